package fit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/BaSui01/promptfit/strategy"
	"github.com/BaSui01/promptfit/types"
)

// Every render either fits within budget or fails with FIT_FAILURE, the
// measured total never increases between iterations, successful layouts
// stay structurally valid, and the input tree comes out untouched.
func TestRender_Convergence_Property(t *testing.T) {
	t.Parallel()

	engine := NewEngine(Config{})

	rapid.Check(t, func(t *rapid.T) {
		strategies := []types.Strategy{
			nil,
			strategy.NewTruncate(strategy.FromStart),
			strategy.NewTruncate(strategy.FromEnd),
			strategy.NewOmit(),
		}

		nScopes := rapid.IntRange(1, 5).Draw(t, "scopes")
		children := make([]types.Node, 0, nScopes+2)

		// Some trees carry a pinned prefix; its content must come out
		// verbatim at the front of every successful render.
		var pinnedPrefix []types.Message
		if rapid.Bool().Draw(t, "pinned") {
			pinMsgs := []types.Node{
				types.NewSystemMessage("pinned instructions"),
				types.NewSystemMessage("pinned tool list"),
			}
			children = append(children, &types.Scope{
				Children: pinMsgs,
				Cache:    &types.CacheHint{Mode: "pin", ID: "p", Version: "v1"},
			})
			pinnedPrefix = []types.Message{
				types.NewSystemMessage("pinned instructions"),
				types.NewSystemMessage("pinned tool list"),
			}
		}

		// Content regularly collides with the codec's own markers.
		textGen := rapid.OneOf(
			rapid.StringMatching(`[a-z ]{1,30}`),
			rapid.SampledFrom([]string{"---", "a\n---\nb", "<|user|>", `\---`, "two\nlines", "pipe | angle <"}),
		)

		children = append(children, types.NewSystemMessage("sys"))
		totalMessages := len(pinnedPrefix) + 1
		for i := 0; i < nScopes; i++ {
			var msgs []types.Node
			if rapid.Bool().Draw(t, "toolScope") {
				// Tool turns: each assistant call immediately answered, so
				// the generated layout is valid and any reduction that
				// splits a call from its result is the engine's fault.
				nPairs := rapid.IntRange(1, 3).Draw(t, "pairs")
				for j := 0; j < nPairs; j++ {
					id := fmt.Sprintf("call-%d-%d", i, j)
					msgs = append(msgs,
						types.NewMessage(types.RoleAssistant,
							types.Text(textGen.Draw(t, "text")),
							types.ToolCall(id, "lookup", []byte(`{"q":"x"}`)),
						),
						types.NewToolMessage(id, "lookup", []byte(`{"ok":true}`)),
					)
				}
			} else {
				nMsgs := rapid.IntRange(1, 6).Draw(t, "messages")
				for j := 0; j < nMsgs; j++ {
					msgs = append(msgs, types.NewUserMessage(textGen.Draw(t, "text")))
				}
			}
			totalMessages += len(msgs)
			sc := types.NewScope(rapid.IntRange(0, 9).Draw(t, "priority"), msgs...).
				WithStrategy(rapid.SampledFrom(strategies).Draw(t, "strategy")).
				WithID(fmt.Sprintf("scope-%d", i))
			children = append(children, sc)
		}
		tree := types.NewTree(children...)
		budget := rapid.IntRange(0, 400).Draw(t, "budget")

		var totals []int
		res, err := engine.Render(context.Background(), tree, Options{
			Codec:  testCodec(),
			Budget: budget,
			Hooks: Hooks{
				OnMeasure: func(_, total int) { totals = append(totals, total) },
			},
		})

		for i := 1; i < len(totals); i++ {
			if totals[i] > totals[i-1] {
				t.Fatalf("total grew between iterations: %v", totals)
			}
		}

		if err != nil {
			if types.GetErrorCode(err) != types.ErrFitFailure {
				t.Fatalf("unexpected error: %v", err)
			}
			var fitErr *types.FitError
			if !errors.As(err, &fitErr) {
				t.Fatalf("FIT_FAILURE without FitError cause: %v", err)
			}
			if fitErr.TotalTokens <= budget {
				t.Fatalf("failed render reports total %d within budget %d", fitErr.TotalTokens, budget)
			}
		} else {
			if res.TotalTokens > budget {
				t.Fatalf("result total %d exceeds budget %d", res.TotalTokens, budget)
			}
			if verr := types.ValidateLayout(res.Messages); verr != nil {
				t.Fatalf("fitted layout is invalid: %v", verr)
			}
			if len(res.Messages) < len(pinnedPrefix) {
				t.Fatalf("pinned prefix lost: %d messages", len(res.Messages))
			}
			for i := range pinnedPrefix {
				if res.Messages[i].TextContent() != pinnedPrefix[i].TextContent() {
					t.Fatalf("pinned message %d changed: %q", i, res.Messages[i].TextContent())
				}
			}
		}

		if got := tree.MessageCount(); got != totalMessages {
			t.Fatalf("input tree mutated: %d messages, built %d", got, totalMessages)
		}
	})
}

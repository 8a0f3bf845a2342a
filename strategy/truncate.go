package strategy

import (
	"context"

	"github.com/BaSui01/promptfit/types"
)

// TruncateFrom selects which end of a scope's children to drop from.
type TruncateFrom string

const (
	FromStart TruncateFrom = "start"
	FromEnd   TruncateFrom = "end"
)

// Truncate drops child nodes from one end of the scope per invocation.
//
// The drop count is max(1, totalTokens/budget): the further the whole tree
// is over budget, the more children go in one step, which keeps convergence
// sub-linear in iterations for very oversized trees. The count scales by
// the whole tree's overage rather than the scope's own share; that is
// deliberate compatibility with established behavior, not a claim of
// optimality.
//
// The drop is atomic over tool-call groups: when a dropped node emitted a
// tool call, any kept tool message answering that call goes with it, so the
// reduced layout never carries a tool result whose call was truncated away.
type Truncate struct {
	from TruncateFrom
}

// NewTruncate creates a truncation strategy dropping from the given end.
func NewTruncate(from TruncateFrom) *Truncate {
	return &Truncate{from: from}
}

var _ types.Strategy = (*Truncate)(nil)

func (t *Truncate) Name() string {
	return "truncate-from-" + string(t.from)
}

func (t *Truncate) Reduce(_ context.Context, input types.StrategyInput) (*types.Scope, error) {
	children := input.Target.Children

	drop := 1
	if input.Budget > 0 && input.TotalTokens/input.Budget > 1 {
		drop = input.TotalTokens / input.Budget
	}
	if drop >= len(children) {
		return nil, nil
	}

	var dropped, kept []types.Node
	if t.from == FromStart {
		dropped, kept = children[:drop], children[drop:]
	} else {
		dropped, kept = children[len(children)-drop:], children[:len(children)-drop]
	}

	remaining := withoutOrphanedResults(kept, dropped)
	if len(remaining) == 0 {
		return nil, nil
	}
	return input.Target.WithChildren(remaining), nil
}

// withoutOrphanedResults returns a copy of kept with every tool message
// removed whose result answers a call emitted by a dropped node.
func withoutOrphanedResults(kept, dropped []types.Node) []types.Node {
	ids := make(map[string]bool)
	collectCallIDs(dropped, ids)
	if len(ids) == 0 {
		out := make([]types.Node, len(kept))
		copy(out, kept)
		return out
	}
	return pruneOrphanedResults(kept, ids)
}

// collectCallIDs gathers the tool-call ids emitted anywhere under nodes.
func collectCallIDs(nodes []types.Node, ids map[string]bool) {
	for _, n := range nodes {
		switch v := n.(type) {
		case types.Message:
			for _, p := range v.Parts {
				if call, ok := p.(types.ToolCallPart); ok {
					ids[call.ID] = true
				}
			}
		case *types.Scope:
			collectCallIDs(v.Children, ids)
		}
	}
}

func pruneOrphanedResults(nodes []types.Node, ids map[string]bool) []types.Node {
	out := make([]types.Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case types.Message:
			if answersDroppedCall(v, ids) {
				continue
			}
			out = append(out, v)
		case *types.Scope:
			out = append(out, v.WithChildren(pruneOrphanedResults(v.Children, ids)))
		default:
			out = append(out, n)
		}
	}
	return out
}

func answersDroppedCall(msg types.Message, ids map[string]bool) bool {
	for _, p := range msg.Parts {
		if res, ok := p.(types.ToolResultPart); ok && ids[res.ID] {
			return true
		}
	}
	return false
}

// Omit removes the whole scope in a single step.
type Omit struct{}

// NewOmit creates an omission strategy.
func NewOmit() *Omit {
	return &Omit{}
}

var _ types.Strategy = (*Omit)(nil)

func (*Omit) Name() string {
	return "omit"
}

func (*Omit) Reduce(_ context.Context, _ types.StrategyInput) (*types.Scope, error) {
	return nil, nil
}

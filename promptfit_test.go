package promptfit_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptfit"
	"github.com/BaSui01/promptfit/codec"
	"github.com/BaSui01/promptfit/strategy"
	"github.com/BaSui01/promptfit/testutil/mocks"
)

func TestRender_EndToEnd(t *testing.T) {
	t.Parallel()

	history := make([]promptfit.Node, 0, 20)
	for i := 0; i < 20; i++ {
		history = append(history, promptfit.NewUserMessage(fmt.Sprintf(
			"turn %02d: a moderately long user message that takes up budget", i)))
	}

	tree := promptfit.NewTree(
		promptfit.NewSystemMessage("You are a helpful assistant."),
		promptfit.NewScope(5, history...).WithStrategy(promptfit.TruncateFromStart()),
		promptfit.NewScope(1, promptfit.NewUserMessage("optional side context")).
			WithStrategy(promptfit.Omit()),
	)

	res, err := promptfit.Render(context.Background(), tree, promptfit.Options{
		Codec:  codec.NewTextCodec(nil),
		Budget: 120,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.TotalTokens, 120)

	// The system prompt survives; truncation from the start keeps the
	// newest history turn.
	require.True(t, len(res.Messages) >= 2)
	assert.Equal(t, "You are a helpful assistant.", res.Messages[0].TextContent())
	var texts []string
	for _, msg := range res.Messages {
		texts = append(texts, msg.TextContent())
	}
	assert.Contains(t, texts[len(texts)-2], "turn 19")
	assert.NotContains(t, texts, "turn 00: a moderately long user message that takes up budget")
}

func TestRender_PinnedEndToEnd(t *testing.T) {
	t.Parallel()

	base := promptfit.NewTree(
		promptfit.NewSystemMessage("Long, stable tool instructions shared by every request."),
	)
	tree, err := promptfit.Pin(base, promptfit.PinOptions{ID: "tools", Version: "v3"})
	require.NoError(t, err)

	tree = tree.Append(
		promptfit.NewScope(5,
			promptfit.NewUserMessage("a disposable bit of context"),
			promptfit.NewUserMessage("the actual question"),
		).WithStrategy(promptfit.TruncateFromStart()),
	)

	res, err := promptfit.Render(context.Background(), tree, promptfit.Options{
		Codec:  codec.NewTextCodec(nil),
		Budget: 25,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.CacheID)

	// The pinned prefix survives in full; the disposable context goes.
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Long, stable tool instructions shared by every request.",
		res.Messages[0].TextContent())
	assert.Equal(t, "the actual question", res.Messages[1].TextContent())
}

func TestRender_SummarizeEndToEnd(t *testing.T) {
	t.Parallel()

	kv := mocks.NewRecordingKV(nil)
	provider := &mocks.Provider{Response: "The user planned a trip to Oslo."}

	history := make([]promptfit.Node, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, promptfit.NewUserMessage(fmt.Sprintf(
			"turn %02d of extensive trip planning back and forth", i)))
	}
	tree := promptfit.NewTree(
		promptfit.NewSystemMessage("You are a travel agent."),
		promptfit.NewScope(5, history...).
			WithStrategy(strategy.NewSummarize(kv, strategy.SummarizeConfig{ID: "trip"})),
	)

	res, err := promptfit.Render(context.Background(), tree, promptfit.Options{
		Codec:    codec.NewTextCodec(nil),
		Provider: provider,
		Budget:   60,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.TotalTokens, 60)
	assert.Equal(t, 1, provider.Calls())

	// History collapsed into the synthesized summary message.
	require.Len(t, res.Messages, 2)
	assert.Contains(t, res.Messages[1].TextContent(), "The user planned a trip to Oslo.")

	entry, err := kv.Get(context.Background(), "pf:summary:trip")
	require.NoError(t, err)
	assert.Equal(t, "The user planned a trip to Oslo.", string(entry.Data))
}

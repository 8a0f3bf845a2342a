package codec

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptfit/types"
)

// runeCounter bills one token per rune. Deterministic, which keeps test
// expectations exact without a real tokenizer.
type runeCounter struct{}

func (runeCounter) Count(text string) int { return utf8.RuneCountInString(text) }

func TestTextCodec_Render(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	layout := []types.Message{
		types.NewUserMessage("a"),
		types.NewUserMessage("b"),
		types.NewAssistantMessage("c"),
	}

	rendered, err := c.Render(layout)
	require.NoError(t, err)

	want := "<|user|>\na\n---\nb\n\n<|assistant|>\nc"
	assert.Equal(t, want, string(rendered))
}

func TestTextCodec_RenderEmpty(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	rendered, err := c.Render(nil)
	require.NoError(t, err)
	assert.Empty(t, rendered)
	assert.Equal(t, 0, c.CountTokens(rendered))
}

func TestTextCodec_RenderParts(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	msg := types.Message{
		Role: types.RoleAssistant,
		Parts: []types.Part{
			types.Reasoning("weigh the options"),
			types.Text("checking the weather"),
			types.ToolCall("call_1", "get_weather", []byte(`{"city":"Oslo"}`)),
		},
	}

	rendered, err := c.Render([]types.Message{msg})
	require.NoError(t, err)

	want := "<|assistant|>\n" +
		"<thinking>\nweigh the options\n</thinking>\n" +
		"checking the weather\n" +
		"<tool_call id=\"call_1\" name=\"get_weather\">\n{\"city\":\"Oslo\"}\n</tool_call>"
	assert.Equal(t, want, string(rendered))
}

func TestTextCodec_ParseRoundTrip(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	layout := []types.Message{
		types.NewSystemMessage("be brief"),
		types.NewUserMessage("first question"),
		types.NewUserMessage("second question"),
		{
			Role: types.RoleAssistant,
			Parts: []types.Part{
				types.Reasoning("short deliberation"),
				types.ToolCall("call_1", "lookup", []byte(`{}`)),
			},
		},
		{
			Role:  types.RoleTool,
			Parts: []types.Part{types.ToolResult("call_1", "lookup", []byte(`{"ok":true}`))},
		},
		types.NewAssistantMessage("the answer"),
	}

	rendered, err := c.Render(layout)
	require.NoError(t, err)

	parsed, err := c.Parse(rendered)
	require.NoError(t, err)
	require.Len(t, parsed, len(layout))

	for i := range layout {
		assert.Equal(t, layout[i].Role, parsed[i].Role, "message %d", i)
	}
	assert.Equal(t, "be brief", parsed[0].TextContent())
	assert.Equal(t, "first question", parsed[1].TextContent())
	assert.Equal(t, "second question", parsed[2].TextContent())

	require.Len(t, parsed[3].Parts, 2)
	reasoning, ok := parsed[3].Parts[0].(types.ReasoningPart)
	require.True(t, ok)
	assert.Equal(t, "short deliberation", reasoning.Text)
	call, ok := parsed[3].Parts[1].(types.ToolCallPart)
	require.True(t, ok)
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "lookup", call.Name)

	result, ok := parsed[4].Parts[0].(types.ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, `{"ok":true}`, string(result.Output))
}

func TestTextCodec_ParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	_, err := c.Parse([]byte("no header here"))
	assert.Error(t, err)

	_, err = c.Parse([]byte("<|assistant|>\n<thinking>\nnever closed"))
	assert.Error(t, err)
}

func TestTextCodec_BoundaryCosts(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	u1 := types.NewUserMessage("a")
	u2 := types.NewUserMessage("b")
	a1 := types.NewAssistantMessage("c")

	first := c.CountBoundaryTokens(nil, u1)
	merged := c.CountBoundaryTokens(&u1, u2)
	roleChange := c.CountBoundaryTokens(&u2, a1)

	// "<|user|>\n" = 9 runes, "\n---\n" = 5, "\n\n<|assistant|>\n" = 16.
	assert.Equal(t, 9, first)
	assert.Equal(t, 5, merged)
	assert.Equal(t, 16, roleChange)
	assert.Less(t, merged, roleChange, "merging same-role messages must be cheaper than a role change")
}

func TestTextCodec_EscapesMarkerCollisions(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	layout := []types.Message{
		types.NewUserMessage("a\n---\nb"),
		types.NewAssistantMessage("<|user|>\nnot a new message"),
		types.NewUserMessage(`\---`),
	}

	rendered, err := c.Render(layout)
	require.NoError(t, err)

	// Colliding content lines carry the escape prefix on the wire; the
	// real separators do not.
	want := "<|user|>\na\n\\---\nb\n\n" +
		"<|assistant|>\n\\<|user|>\nnot a new message\n\n" +
		"<|user|>\n\\\\---"
	assert.Equal(t, want, string(rendered))

	// Segmentation stays unambiguous, so the accounting contract holds
	// over the escaped form.
	assert.Equal(t, Accounting(c, layout), c.CountTokens(rendered))

	// And the round trip restores the original content exactly.
	parsed, err := c.Parse(rendered)
	require.NoError(t, err)
	require.Len(t, parsed, len(layout))
	for i := range layout {
		assert.Equal(t, layout[i].Role, parsed[i].Role, "message %d", i)
		assert.Equal(t, layout[i].TextContent(), parsed[i].TextContent(), "message %d", i)
	}
}

func TestTextCodec_SeparatorInsideMergedRun(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	layout := []types.Message{
		types.NewUserMessage("---"),
		types.NewUserMessage("after"),
	}

	rendered, err := c.Render(layout)
	require.NoError(t, err)
	assert.Equal(t, "<|user|>\n\\---\n---\nafter", string(rendered))
	assert.Equal(t, Accounting(c, layout), c.CountTokens(rendered))

	parsed, err := c.Parse(rendered)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "---", parsed[0].TextContent())
	assert.Equal(t, "after", parsed[1].TextContent())
}

func TestTextCodec_AccountingMatchesRenderedCount(t *testing.T) {
	t.Parallel()

	c := NewTextCodec(runeCounter{})
	layout := []types.Message{
		types.NewSystemMessage("be brief"),
		types.NewUserMessage("hello"),
		types.NewUserMessage("still there?"),
		types.NewAssistantMessage("yes"),
		types.NewUserMessage("good"),
	}

	rendered, err := c.Render(layout)
	require.NoError(t, err)
	assert.Equal(t, Accounting(c, layout), c.CountTokens(rendered))
}

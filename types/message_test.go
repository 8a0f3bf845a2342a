package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Constructors(t *testing.T) {
	t.Parallel()

	sys := NewSystemMessage("be helpful")
	assert.Equal(t, RoleSystem, sys.Role)
	require.Len(t, sys.Parts, 1)
	assert.Equal(t, TextPart{Text: "be helpful"}, sys.Parts[0])

	tool := NewToolMessage("tc1", "get_weather", json.RawMessage(`{"temp":21}`))
	assert.Equal(t, RoleTool, tool.Role)
	require.Len(t, tool.Parts, 1)
	res, ok := tool.Parts[0].(ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "tc1", res.ID)
	assert.Equal(t, "get_weather", res.Name)

	dev := NewDeveloperMessage("prefer short answers")
	assert.Equal(t, RoleDeveloper, dev.Role)
}

func TestMessage_TextContent(t *testing.T) {
	t.Parallel()

	msg := NewMessage(RoleAssistant,
		Text("first"),
		Reasoning("internal trace"),
		ToolCall("tc1", "search", json.RawMessage(`{}`)),
		Text("second"),
	)
	assert.Equal(t, "first\nsecond", msg.TextContent())
	assert.Equal(t, "", NewMessage(RoleAssistant, Reasoning("only")).TextContent())
}

func TestMessage_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := NewMessage(RoleUser, Text("a"), Text("b"))
	clone := orig.Clone()
	clone.Parts[0] = Text("mutated")

	assert.Equal(t, TextPart{Text: "a"}, orig.Parts[0])
	assert.Equal(t, TextPart{Text: "mutated"}, clone.Parts[0])
}

func TestValidRole(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleSystem, RoleDeveloper, RoleUser, RoleAssistant, RoleTool} {
		assert.True(t, ValidRole(r), string(r))
	}
	assert.False(t, ValidRole("moderator"))
	assert.False(t, ValidRole(""))
}

package types

import (
	"encoding/json"
	"strings"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSystem, RoleDeveloper, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is one entry of a prompt layout. A tool message must contain only
// ToolResultPart children; assistant messages may mix text, reasoning and
// tool calls. See ValidateLayout for the full set of invariants.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
	ID    string `json:"id,omitempty"`
}

func (Message) isNode() {}

// NewMessage creates a message with the given role and parts.
func NewMessage(role Role, parts ...Part) Message {
	return Message{Role: role, Parts: parts}
}

// NewSystemMessage creates a system message with a single text part.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, Text(content))
}

// NewDeveloperMessage creates a developer message with a single text part.
func NewDeveloperMessage(content string) Message {
	return NewMessage(RoleDeveloper, Text(content))
}

// NewUserMessage creates a user message with a single text part.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, Text(content))
}

// NewAssistantMessage creates an assistant message with a single text part.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, Text(content))
}

// NewToolMessage creates a tool message carrying a single tool result.
func NewToolMessage(callID, name string, output json.RawMessage) Message {
	return NewMessage(RoleTool, ToolResult(callID, name, output))
}

// WithID returns a copy of the message with the given identifier.
func (m Message) WithID(id string) Message {
	m.ID = id
	return m
}

// TextContent joins the message's text parts with newlines. Reasoning and
// tool parts are excluded.
func (m Message) TextContent() string {
	var sb strings.Builder
	first := true
	for _, p := range m.Parts {
		t, ok := p.(TextPart)
		if !ok {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		sb.WriteString(t.Text)
		first = false
	}
	return sb.String()
}

// Clone returns a deep copy of the message. Parts are value types, so a
// shallow slice copy is sufficient.
func (m Message) Clone() Message {
	parts := make([]Part, len(m.Parts))
	copy(parts, m.Parts)
	m.Parts = parts
	return m
}

package types

import "encoding/json"

// Part is the atomic content unit inside a Message. It is a closed sum over
// TextPart, ReasoningPart, ToolCallPart and ToolResultPart; the sealed
// marker method keeps the set of variants fixed so consumers can switch
// exhaustively instead of probing shapes at runtime.
type Part interface {
	isPart()
}

// TextPart is plain text content.
type TextPart struct {
	Text string `json:"text"`
}

// ReasoningPart carries a model "thinking" trace.
type ReasoningPart struct {
	Text string `json:"text"`
}

// ToolCallPart is a tool invocation request emitted by the assistant.
type ToolCallPart struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ToolResultPart is the structured output of a tool invocation. Its ID must
// reference a ToolCallPart from an earlier assistant message in the same
// layout.
type ToolResultPart struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Output json.RawMessage `json:"output,omitempty"`
}

func (TextPart) isPart()       {}
func (ReasoningPart) isPart()  {}
func (ToolCallPart) isPart()   {}
func (ToolResultPart) isPart() {}

// Text creates a TextPart.
func Text(s string) TextPart {
	return TextPart{Text: s}
}

// Reasoning creates a ReasoningPart.
func Reasoning(s string) ReasoningPart {
	return ReasoningPart{Text: s}
}

// ToolCall creates a ToolCallPart.
func ToolCall(id, name string, input json.RawMessage) ToolCallPart {
	return ToolCallPart{ID: id, Name: name, Input: input}
}

// ToolResult creates a ToolResultPart.
func ToolResult(id, name string, output json.RawMessage) ToolResultPart {
	return ToolResultPart{ID: id, Name: name, Output: output}
}

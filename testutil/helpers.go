// Package testutil provides shared fixtures for promptfit tests.
package testutil

import (
	"strings"

	"github.com/BaSui01/promptfit/types"
)

// Repeat builds a deterministic text payload of roughly n characters,
// useful for driving token totals without magic strings.
func Repeat(s string, n int) string {
	if len(s) == 0 {
		return ""
	}
	return strings.Repeat(s, (n+len(s)-1)/len(s))[:n]
}

// Conversation builds an alternating user/assistant message slice.
func Conversation(contents ...string) []types.Node {
	nodes := make([]types.Node, 0, len(contents))
	for i, c := range contents {
		if i%2 == 0 {
			nodes = append(nodes, types.NewUserMessage(c))
		} else {
			nodes = append(nodes, types.NewAssistantMessage(c))
		}
	}
	return nodes
}

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_FlattenDepthFirst(t *testing.T) {
	t.Parallel()

	tree := NewTree(
		NewSystemMessage("s"),
		NewScope(1,
			NewUserMessage("u1"),
			NewScope(2, NewAssistantMessage("a1")),
			NewUserMessage("u2"),
		),
		NewUserMessage("u3"),
	)

	layout := tree.Flatten()
	require.Len(t, layout, 5)

	var contents []string
	for _, m := range layout {
		contents = append(contents, m.TextContent())
	}
	assert.Equal(t, []string{"s", "u1", "a1", "u2", "u3"}, contents)
	assert.Equal(t, 5, tree.MessageCount())
}

func TestScope_WithChildrenDoesNotMutate(t *testing.T) {
	t.Parallel()

	orig := NewScope(3, NewUserMessage("keep"))
	reduced := orig.WithChildren(nil)

	assert.Len(t, orig.Children, 1)
	assert.Empty(t, reduced.Children)
	assert.Equal(t, 3, reduced.Priority)
}

func TestScope_AppendSharesNothing(t *testing.T) {
	t.Parallel()

	base := NewTree(NewUserMessage("a"))
	grown := base.Append(NewUserMessage("b"), NewUserMessage("c"))

	assert.Len(t, base.Children, 1)
	assert.Len(t, grown.Children, 3)
}

func TestScope_FindPin(t *testing.T) {
	t.Parallel()

	plain := NewTree(NewUserMessage("x"))
	assert.Nil(t, plain.FindPin())

	pinned := &Scope{
		Children: []Node{NewSystemMessage("s")},
		Cache:    &CacheHint{Mode: "pin", ID: "sys", Version: "v1"},
	}
	tree := NewTree(pinned, NewUserMessage("u"))
	require.NotNil(t, tree.FindPin())
	assert.Equal(t, "sys", tree.FindPin().Cache.ID)

	nested := NewTree(NewScope(0, pinned))
	require.NotNil(t, nested.FindPin())
}

package types

import "fmt"

// ValidateLayout checks the structural invariants of a flattened layout and
// returns a MALFORMED_TREE error on the first violation. It runs once at
// tree construction, not inside the fit loop: a malformed tree is a caller
// bug, distinct from the expected over-budget failure surfaced at render
// time.
//
// Invariants checked:
//   - every message has a known role and at least one part
//   - tool messages contain only tool-result parts
//   - tool-call parts appear only in assistant messages
//   - reasoning parts appear only in assistant messages
//   - every tool-result references a tool-call id from an earlier assistant
//     message in the same layout (no dangling tool results)
func ValidateLayout(layout []Message) error {
	seenCalls := make(map[string]bool)

	for i, msg := range layout {
		if !ValidRole(msg.Role) {
			return malformed(fmt.Sprintf("message %d: unknown role %q", i, msg.Role))
		}
		if len(msg.Parts) == 0 {
			return malformed(fmt.Sprintf("message %d (%s): no parts", i, msg.Role))
		}

		for j, part := range msg.Parts {
			switch p := part.(type) {
			case TextPart:
				if msg.Role == RoleTool {
					return malformed(fmt.Sprintf("message %d: text part %d inside tool message", i, j))
				}
			case ReasoningPart:
				if msg.Role != RoleAssistant {
					return malformed(fmt.Sprintf("message %d: reasoning part %d outside assistant message", i, j))
				}
			case ToolCallPart:
				if msg.Role != RoleAssistant {
					return malformed(fmt.Sprintf("message %d: tool-call part %d outside assistant message", i, j))
				}
				if p.ID == "" {
					return malformed(fmt.Sprintf("message %d: tool-call part %d has empty id", i, j))
				}
				seenCalls[p.ID] = true
			case ToolResultPart:
				if msg.Role != RoleTool {
					return malformed(fmt.Sprintf("message %d: tool-result part %d outside tool message", i, j))
				}
				if !seenCalls[p.ID] {
					return malformed(fmt.Sprintf("message %d: tool-result %q has no matching tool-call in an earlier assistant message", i, p.ID))
				}
			default:
				return malformed(fmt.Sprintf("message %d: unknown part type %T", i, part))
			}
		}
	}
	return nil
}

// ValidateTree validates the tree's flattened layout and the cache-pin
// invariant: at most one pinned scope, and when present it must be the
// first child of the root so the pinned prefix leads the layout.
func ValidateTree(root *Scope) error {
	pins := countPins(root)
	if pins > 1 {
		return malformed(fmt.Sprintf("tree has %d cache pins, at most one is allowed", pins))
	}
	if pins == 1 {
		first, ok := firstChildScope(root)
		if !ok || first.Cache == nil {
			return malformed("pinned scope must be the first child of the root")
		}
	}
	return ValidateLayout(root.Flatten())
}

func countPins(s *Scope) int {
	n := 0
	if s.Cache != nil {
		n++
	}
	for _, child := range s.Children {
		if sub, ok := child.(*Scope); ok {
			n += countPins(sub)
		}
	}
	return n
}

func firstChildScope(root *Scope) (*Scope, bool) {
	if len(root.Children) == 0 {
		return nil, false
	}
	s, ok := root.Children[0].(*Scope)
	return s, ok
}

func malformed(msg string) *Error {
	return NewError(ErrMalformedTree, msg)
}

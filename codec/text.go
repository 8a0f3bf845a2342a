package codec

import (
	"fmt"
	"strings"

	"github.com/BaSui01/promptfit/types"
)

// Rendered form, for a layout [user "a", user "b", assistant "c"]:
//
//	<|user|>
//	a
//	---
//	b
//
//	<|assistant|>
//	c
//
// Consecutive same-role messages merge under one role header, separated by
// a "---" line; a role change costs a blank line plus a fresh header. The
// boundary cost of a merged join is therefore smaller than that of a role
// change, which is exactly the asymmetry CountBoundaryTokens exists to
// express.
//
// Token accounting is segment-wise: CountTokens re-derives the same
// header/separator/body segments that Render emitted and sums the counter
// over them, so the incremental sum over a layout matches CountTokens of
// the rendered payload exactly. Content lines that would collide with the
// markers (a bare "---" line, a line shaped like a role header, or a line
// already starting with the escape character) are escaped with a leading
// backslash on render and unescaped on parse, so segmentation stays
// unambiguous for arbitrary content.
const (
	mergeSeparator = "---"
	headerOpen     = "<|"
	headerClose    = "|>"
	escapePrefix   = `\`
)

// TextCodec is a transcript codec backed by a TokenCounter.
type TextCodec struct {
	counter TokenCounter
}

// NewTextCodec creates a TextCodec. counter may be nil, in which case the
// character-ratio estimator is used.
func NewTextCodec(counter TokenCounter) *TextCodec {
	if counter == nil {
		counter = CounterFor(nil)
	}
	return &TextCodec{counter: counter}
}

var _ types.Codec = (*TextCodec)(nil)

func header(role types.Role) string {
	return headerOpen + string(role) + headerClose
}

// boundary returns the exact separator string emitted between prev and next.
func boundary(prev *types.Message, next types.Message) string {
	switch {
	case prev == nil:
		return header(next.Role) + "\n"
	case prev.Role == next.Role:
		return "\n" + mergeSeparator + "\n"
	default:
		return "\n\n" + header(next.Role) + "\n"
	}
}

// body renders a message's parts, joined by newlines.
func body(msg types.Message) string {
	parts := make([]string, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		parts = append(parts, partString(p))
	}
	return strings.Join(parts, "\n")
}

func partString(p types.Part) string {
	switch v := p.(type) {
	case types.TextPart:
		return v.Text
	case types.ReasoningPart:
		return "<thinking>\n" + v.Text + "\n</thinking>"
	case types.ToolCallPart:
		return fmt.Sprintf("<tool_call id=%q name=%q>\n%s\n</tool_call>", v.ID, v.Name, string(v.Input))
	case types.ToolResultPart:
		return fmt.Sprintf("<tool_result id=%q name=%q>\n%s\n</tool_result>", v.ID, v.Name, string(v.Output))
	default:
		return ""
	}
}

// needsEscape reports whether a content line would be mistaken for one of
// the wire format's own markers.
func needsEscape(line string) bool {
	if line == mergeSeparator || strings.HasPrefix(line, escapePrefix) {
		return true
	}
	_, isHeader := parseHeader(line)
	return isHeader
}

// escapeBody guards marker-colliding content lines with a leading
// backslash. Every rendered body goes through this, and
// CountMessageTokens counts the escaped form, so the accounting contract
// holds over exactly the bytes Render emits.
func escapeBody(body string) string {
	if !strings.ContainsAny(body, "-<"+escapePrefix) {
		return body
	}
	lines := strings.Split(body, "\n")
	changed := false
	for i, line := range lines {
		if needsEscape(line) {
			lines[i] = escapePrefix + line
			changed = true
		}
	}
	if !changed {
		return body
	}
	return strings.Join(lines, "\n")
}

// unescapeBody strips the escape prefix scan leaves in place.
func unescapeBody(body string) string {
	if !strings.Contains(body, escapePrefix) {
		return body
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, escapePrefix) {
			lines[i] = line[len(escapePrefix):]
		}
	}
	return strings.Join(lines, "\n")
}

// Render produces the transcript payload. Deterministic and pure.
func (c *TextCodec) Render(layout []types.Message) ([]byte, error) {
	var sb strings.Builder
	var prev *types.Message
	for i := range layout {
		sb.WriteString(boundary(prev, layout[i]))
		sb.WriteString(escapeBody(body(layout[i])))
		prev = &layout[i]
	}
	return []byte(sb.String()), nil
}

// CountMessageTokens returns the token cost of one message body in
// isolation. Role headers are charged through CountBoundaryTokens so that
// merged same-role messages are not double-billed for a header they share.
func (c *TextCodec) CountMessageTokens(msg types.Message) int {
	return c.counter.Count(escapeBody(body(msg)))
}

// CountBoundaryTokens returns the cost of the separator emitted before
// next. prev is nil for the first message of a layout.
func (c *TextCodec) CountBoundaryTokens(prev *types.Message, next types.Message) int {
	return c.counter.Count(boundary(prev, next))
}

// CountTokens counts a rendered payload segment-wise: it recovers the
// header/separator/body segments Render emitted and sums the counter over
// them. This keeps the incremental accounting over a layout exactly equal
// to the count of the rendered payload.
func (c *TextCodec) CountTokens(rendered []byte) int {
	entries, err := scan(rendered)
	if err != nil {
		// Not a payload this codec produced; count it as one opaque blob.
		return c.counter.Count(string(rendered))
	}
	total := 0
	var prev *types.Message
	for i := range entries {
		msg := types.Message{Role: entries[i].role}
		total += c.counter.Count(boundary(prev, msg))
		total += c.counter.Count(entries[i].body)
		prev = &types.Message{Role: entries[i].role}
	}
	return total
}

// Parse is the left inverse of Render. A message holding several adjacent
// text parts comes back with them collapsed into one part, and merged
// same-role runs come back as the individual messages the "---" separators
// delimit.
func (c *TextCodec) Parse(rendered []byte) ([]types.Message, error) {
	entries, err := scan(rendered)
	if err != nil {
		return nil, err
	}
	layout := make([]types.Message, 0, len(entries))
	for _, e := range entries {
		parts, err := parseBody(unescapeBody(e.body))
		if err != nil {
			return nil, err
		}
		layout = append(layout, types.Message{Role: e.role, Parts: parts})
	}
	return layout, nil
}

type entry struct {
	role types.Role
	body string
}

func parseHeader(line string) (types.Role, bool) {
	if !strings.HasPrefix(line, headerOpen) || !strings.HasSuffix(line, headerClose) {
		return "", false
	}
	role := types.Role(line[len(headerOpen) : len(line)-len(headerClose)])
	return role, types.ValidRole(role)
}

// scan splits a rendered payload into (role, body) entries.
func scan(rendered []byte) ([]entry, error) {
	if len(rendered) == 0 {
		return nil, nil
	}
	lines := strings.Split(string(rendered), "\n")

	var entries []entry
	i := 0
	for i < len(lines) {
		role, ok := parseHeader(lines[i])
		if !ok {
			return nil, fmt.Errorf("text codec: expected role header at line %d, got %q", i+1, lines[i])
		}
		i++

		var bodyLines []string
		flush := func() {
			entries = append(entries, entry{role: role, body: strings.Join(bodyLines, "\n")})
			bodyLines = nil
		}
		for i < len(lines) {
			// A blank line followed by a role header ends the run.
			if lines[i] == "" && i+1 < len(lines) {
				if _, isHeader := parseHeader(lines[i+1]); isHeader {
					i++
					break
				}
			}
			if lines[i] == mergeSeparator {
				flush()
				i++
				continue
			}
			bodyLines = append(bodyLines, lines[i])
			i++
		}
		flush()
	}
	return entries, nil
}

// parseBody reconstructs parts from a body string. Plain lines accumulate
// into a single text part; thinking and tool blocks become their own parts.
func parseBody(body string) ([]types.Part, error) {
	lines := strings.Split(body, "\n")
	var parts []types.Part
	var textLines []string

	flushText := func() {
		if len(textLines) > 0 {
			parts = append(parts, types.Text(strings.Join(textLines, "\n")))
			textLines = nil
		}
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		switch {
		case line == "<thinking>":
			flushText()
			inner, next, err := collectUntil(lines, i+1, "</thinking>")
			if err != nil {
				return nil, err
			}
			parts = append(parts, types.Reasoning(inner))
			i = next
		case strings.HasPrefix(line, "<tool_call "):
			flushText()
			id, name, err := parseTagAttrs(line, "<tool_call ")
			if err != nil {
				return nil, err
			}
			inner, next, err := collectUntil(lines, i+1, "</tool_call>")
			if err != nil {
				return nil, err
			}
			parts = append(parts, types.ToolCall(id, name, []byte(inner)))
			i = next
		case strings.HasPrefix(line, "<tool_result "):
			flushText()
			id, name, err := parseTagAttrs(line, "<tool_result ")
			if err != nil {
				return nil, err
			}
			inner, next, err := collectUntil(lines, i+1, "</tool_result>")
			if err != nil {
				return nil, err
			}
			parts = append(parts, types.ToolResult(id, name, []byte(inner)))
			i = next
		default:
			textLines = append(textLines, line)
			i++
		}
	}
	flushText()
	if parts == nil {
		parts = []types.Part{types.Text(body)}
	}
	return parts, nil
}

// collectUntil gathers lines[start:] until the closing marker, returning
// the joined inner content and the index after the marker.
func collectUntil(lines []string, start int, closing string) (string, int, error) {
	for i := start; i < len(lines); i++ {
		if lines[i] == closing {
			return strings.Join(lines[start:i], "\n"), i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("text codec: missing closing %q", closing)
}

// parseTagAttrs extracts the id and name attributes from an opening tag of
// the form `<tag id="..." name="...">`.
func parseTagAttrs(line, open string) (id, name string, err error) {
	rest := strings.TrimPrefix(line, open)
	rest = strings.TrimSuffix(rest, ">")
	id, rest, err = readAttr(rest, "id")
	if err != nil {
		return "", "", err
	}
	name, _, err = readAttr(rest, "name")
	if err != nil {
		return "", "", err
	}
	return id, name, nil
}

func readAttr(s, key string) (value, rest string, err error) {
	prefix := key + `="`
	idx := strings.Index(s, prefix)
	if idx < 0 {
		return "", "", fmt.Errorf("text codec: missing %s attribute", key)
	}
	s = s[idx+len(prefix):]
	end := strings.Index(s, `"`)
	if end < 0 {
		return "", "", fmt.Errorf("text codec: unterminated %s attribute", key)
	}
	return s[:end], s[end+1:], nil
}

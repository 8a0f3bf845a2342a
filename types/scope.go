package types

// Node is a closed sum over the two node kinds a Scope may contain:
// Message and *Scope.
type Node interface {
	isNode()
}

// CacheHint marks a scope as a cache-stable prefix. At most one scope per
// tree may carry a hint; the pinned scope is emitted first in the layout and
// is never passed through a reduction strategy.
type CacheHint struct {
	Mode       string `json:"mode"` // always "pin"
	ID         string `json:"id"`
	Version    string `json:"version"`
	ScopeKey   string `json:"scope_key,omitempty"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"` // pass-through provider metadata
}

// Scope is a priority-weighted container node. Higher priority scopes are
// reduced first when the tree is over budget. A scope without a strategy is
// unreducible: the fit loop skips it and its content contributes
// unconditionally to the token total.
type Scope struct {
	Priority int        `json:"priority"`
	Children []Node     `json:"children"`
	Strategy Strategy   `json:"-"`
	ID       string     `json:"id,omitempty"`
	Cache    *CacheHint `json:"cache,omitempty"`
}

func (*Scope) isNode() {}

// NewScope creates a scope with the given priority and children.
func NewScope(priority int, children ...Node) *Scope {
	return &Scope{Priority: priority, Children: children}
}

// NewTree creates a root scope: priority 0, no strategy.
func NewTree(children ...Node) *Scope {
	return NewScope(0, children...)
}

// WithStrategy returns a copy of the scope with the given strategy.
func (s *Scope) WithStrategy(strategy Strategy) *Scope {
	c := *s
	c.Strategy = strategy
	return &c
}

// WithID returns a copy of the scope with the given identifier.
func (s *Scope) WithID(id string) *Scope {
	c := *s
	c.ID = id
	return &c
}

// WithChildren returns a copy of the scope holding the given children.
// The original scope is left untouched.
func (s *Scope) WithChildren(children []Node) *Scope {
	c := *s
	c.Children = children
	return &c
}

// Append returns a copy of the scope with the nodes added at the end.
func (s *Scope) Append(nodes ...Node) *Scope {
	children := make([]Node, 0, len(s.Children)+len(nodes))
	children = append(children, s.Children...)
	children = append(children, nodes...)
	return s.WithChildren(children)
}

// Flatten walks the scope depth-first and returns the ordered message
// layout, with nested scopes transparently unwrapped.
func (s *Scope) Flatten() []Message {
	var out []Message
	s.flattenInto(&out)
	return out
}

func (s *Scope) flattenInto(out *[]Message) {
	for _, child := range s.Children {
		switch n := child.(type) {
		case Message:
			*out = append(*out, n)
		case *Scope:
			n.flattenInto(out)
		}
	}
}

// MessageCount returns the number of messages reachable from the scope.
func (s *Scope) MessageCount() int {
	n := 0
	for _, child := range s.Children {
		switch c := child.(type) {
		case Message:
			n++
		case *Scope:
			n += c.MessageCount()
		}
	}
	return n
}

// FindPin returns the first cache-pinned scope reachable from s, or nil.
// The pin count invariant (at most one) is enforced by ValidateTree.
func (s *Scope) FindPin() *Scope {
	if s.Cache != nil {
		return s
	}
	for _, child := range s.Children {
		if sub, ok := child.(*Scope); ok {
			if pinned := sub.FindPin(); pinned != nil {
				return pinned
			}
		}
	}
	return nil
}

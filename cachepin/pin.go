// Package cachepin marks a tree prefix as cache-stable: never reduced by
// the fit loop, always emitted first, and hashed into a stable identifier
// for provider-side prompt caching.
package cachepin

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/BaSui01/promptfit/types"
)

// cacheIDPrefix namespaces derived cache identifiers.
const cacheIDPrefix = "pf:pin:"

// Options configure a pin. Version is required; ID defaults to "default".
type Options struct {
	ID         string
	Version    string
	ScopeKey   string
	TTLSeconds int
	Priority   int
}

// Pin freezes the tree's current content as a named, versioned prefix and
// returns a new root whose first child is the pinned scope. Content
// appended to the returned root afterwards stays behind the prefix and
// remains reducible as usual.
//
// Exactly one pin is allowed per tree; pinning an already-pinned tree is a
// build-time error.
func Pin(tree *types.Scope, opts Options) (*types.Scope, error) {
	if tree.FindPin() != nil {
		return nil, types.NewError(types.ErrMalformedTree, "prompt is already pinned")
	}
	if opts.Version == "" {
		return nil, types.NewError(types.ErrMalformedTree, "pin requires a version")
	}
	id := opts.ID
	if id == "" {
		id = "default"
	}

	pinned := &types.Scope{
		Priority: opts.Priority,
		Children: tree.Children,
		ID:       tree.ID,
		Cache: &types.CacheHint{
			Mode:       "pin",
			ID:         id,
			Version:    opts.Version,
			ScopeKey:   opts.ScopeKey,
			TTLSeconds: opts.TTLSeconds,
		},
	}
	return types.NewTree(pinned), nil
}

// CacheID derives the stable cache identifier for a pin triple. The same
// (id, version, scopeKey) always yields the same identifier; changing any
// of the three yields a new one. The separator byte keeps ("ab","c") and
// ("a","bc") from colliding.
func CacheID(id, version, scopeKey string) string {
	h := sha256.New()
	h.Write([]byte(id))
	h.Write([]byte{0})
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(scopeKey))
	sum := h.Sum(nil)
	return cacheIDPrefix + hex.EncodeToString(sum[:16])
}

// CacheIDFor derives the identifier for a pinned scope's hint.
func CacheIDFor(hint *types.CacheHint) string {
	if hint == nil {
		return ""
	}
	return CacheID(hint.ID, hint.Version, hint.ScopeKey)
}

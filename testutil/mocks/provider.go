// Package mocks provides shared test doubles for providers and stores.
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/promptfit/store"
	"github.com/BaSui01/promptfit/types"
)

// Provider is a scripted types.Provider recording every prompt it was
// called with.
type Provider struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts [][]byte
}

var _ types.Provider = (*Provider)(nil)

func (p *Provider) Completion(_ context.Context, prompt []byte) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, append([]byte(nil), prompt...))
	p.mu.Unlock()
	if p.Err != nil {
		return "", p.Err
	}
	return p.Response, nil
}

// Calls returns the number of completion calls made.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

// Prompts returns the recorded prompts.
func (p *Provider) Prompts() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.prompts))
	copy(out, p.prompts)
	return out
}

// RecordingKV wraps a KV store and counts writes; a SetErr makes every Set
// fail without touching the underlying store.
type RecordingKV struct {
	store.KV
	SetErr error

	mu   sync.Mutex
	sets int
}

// NewRecordingKV wraps kv (a fresh MemoryStore when nil).
func NewRecordingKV(kv store.KV) *RecordingKV {
	if kv == nil {
		kv = store.NewMemoryStore()
	}
	return &RecordingKV{KV: kv}
}

func (r *RecordingKV) Set(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	r.mu.Lock()
	r.sets++
	r.mu.Unlock()
	if r.SetErr != nil {
		return r.SetErr
	}
	return r.KV.Set(ctx, key, data, metadata)
}

// Sets returns the number of Set attempts, including failed ones.
func (r *RecordingKV) Sets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

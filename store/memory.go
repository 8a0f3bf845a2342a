package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Vector (and therefore KV).
// Suitable for development and testing; data is lost on restart.
type MemoryStore struct {
	entries map[string]*Entry
	vectors map[string][]float32
	mu      sync.RWMutex
	closed  bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		vectors: make(map[string][]float32),
	}
}

var _ Vector = (*MemoryStore)(nil)

// Close closes the store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, data []byte, metadata map[string]string) error {
	if key == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	now := time.Now()
	created := now
	if old, ok := s.entries[key]; ok {
		created = old.CreatedAt
	}
	s.entries[key] = &Entry{
		Data:      append([]byte(nil), data...),
		CreatedAt: created,
		UpdatedAt: now,
		Metadata:  metadata,
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrStoreClosed
	}
	_, ok := s.entries[key]
	delete(s.entries, key)
	delete(s.vectors, key)
	return ok, nil
}

func (s *MemoryStore) Index(ctx context.Context, key string, vector []float32, data []byte, metadata map[string]string) error {
	if err := s.Set(ctx, key, data, metadata); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[key] = append([]float32(nil), vector...)
	return nil
}

// Search performs brute-force cosine similarity over indexed entries.
func (s *MemoryStore) Search(_ context.Context, vector []float32, opts SearchOptions) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	results := make([]SearchResult, 0, len(s.vectors))
	for key, v := range s.vectors {
		score := cosine(vector, v)
		if score < opts.Threshold {
			continue
		}
		e := *s.entries[key]
		results = append(results, SearchResult{Key: key, Score: score, Entry: &e})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package tokenizer

import (
	"fmt"
	"strings"
	"sync"
)

// Tokenizer is the unified token counting interface.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text.
	CountTokens(text string) (int, error)

	// Encode converts text into a list of token IDs.
	Encode(text string) ([]int, error)

	// Decode converts token IDs back into text.
	Decode(tokens []int) (string, error)

	// Name returns the tokenizer's name.
	Name() string
}

// Global tokenizer registry, keyed by model name.
var (
	modelTokenizers   = make(map[string]Tokenizer)
	modelTokenizersMu sync.RWMutex
)

// Register registers a tokenizer for the given model name.
func Register(model string, t Tokenizer) {
	modelTokenizersMu.Lock()
	defer modelTokenizersMu.Unlock()
	modelTokenizers[model] = t
}

// ForModel returns the tokenizer registered for the given model. It also
// tries prefix matching ("gpt-4o-mini" matches a "gpt-4o" registration).
func ForModel(model string) (Tokenizer, error) {
	modelTokenizersMu.RLock()
	defer modelTokenizersMu.RUnlock()

	if t, ok := modelTokenizers[model]; ok {
		return t, nil
	}
	for prefix, t := range modelTokenizers {
		if strings.HasPrefix(model, prefix) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no tokenizer registered for model: %s", model)
}

// ForModelOrEstimator returns the registered tokenizer for the model,
// falling back to the generic estimator when none is registered.
func ForModelOrEstimator(model string) Tokenizer {
	t, err := ForModel(model)
	if err != nil {
		return NewEstimator()
	}
	return t
}

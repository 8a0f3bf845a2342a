package codec

import "github.com/BaSui01/promptfit/tokenizer"

// TokenCounter is the no-error counting surface a codec needs for
// incremental accounting. tokenizer.Tokenizer returns errors (a tiktoken
// encoding may fail to initialize); CounterFor bridges the two.
type TokenCounter interface {
	Count(text string) int
}

type tokenizerCounter struct {
	tok      tokenizer.Tokenizer
	fallback tokenizer.Tokenizer
}

// CounterFor adapts a tokenizer.Tokenizer into a TokenCounter, falling back
// to the character-ratio estimator when the tokenizer errors.
func CounterFor(t tokenizer.Tokenizer) TokenCounter {
	if t == nil {
		t = tokenizer.NewEstimator()
	}
	return &tokenizerCounter{tok: t, fallback: tokenizer.NewEstimator()}
}

// CounterForModel returns a counter for the given model name, using the
// tokenizer registry with the estimator as fallback.
func CounterForModel(model string) TokenCounter {
	return CounterFor(tokenizer.ForModelOrEstimator(model))
}

func (c *tokenizerCounter) Count(text string) int {
	n, err := c.tok.CountTokens(text)
	if err != nil {
		n, _ = c.fallback.CountTokens(text)
	}
	return n
}

// Package tokenizer provides token counting behind a model-keyed registry,
// with a tiktoken-backed implementation for OpenAI-family encodings and a
// character-ratio estimator as the universal fallback.
package tokenizer

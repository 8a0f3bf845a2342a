package types

import "context"

// Codec maps a flattened layout to a provider-native payload and back, and
// provides the token-counting primitives the fit engine budgets with.
//
// Correctness contract: for any layout the fit loop can produce, including
// degenerate ones (zero messages, a single message, tool-result-only
// messages), the incremental accounting
//
//	sum(CountMessageTokens) + sum(CountBoundaryTokens)
//
// must equal CountTokens(Render(layout)) exactly. The engine never
// compensates for a divergence; codec.VerifyAccounting reports one as a
// CODEC_CONTRACT error.
type Codec interface {
	// Render produces the provider-native payload. Deterministic and pure.
	Render(layout []Message) ([]byte, error)

	// Parse is the left inverse of Render for round-tripping provider-native
	// content back into the tree model.
	Parse(rendered []byte) ([]Message, error)

	// CountMessageTokens returns the token cost of one message in isolation,
	// in the same units CountTokens uses on the rendered payload.
	CountMessageTokens(msg Message) int

	// CountBoundaryTokens returns the extra tokens introduced by joining two
	// adjacent messages in the rendered form. prev is nil for the first
	// message of a layout.
	CountBoundaryTokens(prev *Message, next Message) int

	// CountTokens returns the ground-truth token count of a rendered payload.
	CountTokens(rendered []byte) int
}

// Provider is the completion surface async strategies call back into.
// How a concrete provider reaches its vendor is out of scope here.
type Provider interface {
	Completion(ctx context.Context, prompt []byte) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, prompt []byte) (string, error)

func (f ProviderFunc) Completion(ctx context.Context, prompt []byte) (string, error) {
	return f(ctx, prompt)
}

// StrategyContext exposes the render-call collaborators to a strategy.
type StrategyContext struct {
	Codec    Codec
	Provider Provider
}

// StrategyInput is the argument a strategy is invoked with.
type StrategyInput struct {
	// Target is the scope to reduce, in its current already-reduced state.
	Target *Scope

	// TotalTokens is the measured total for the whole tree at this iteration.
	TotalTokens int

	// Budget is the token budget of the render call.
	Budget int

	Context StrategyContext
}

// Strategy reduces or removes a scope's content when the tree is over
// budget. Returning a new scope substitutes it in place; returning nil
// removes the scope and all its content from the tree. Strategies must not
// mutate input.Target.
//
// Strategies may suspend (provider calls, storage writes); the engine
// invokes them strictly one at a time and, because every invocation replaces
// or removes the target, at most once per scope per render call unless the
// scope's content changed in between.
type Strategy interface {
	Name() string
	Reduce(ctx context.Context, input StrategyInput) (*Scope, error)
}

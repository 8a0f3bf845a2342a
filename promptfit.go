// Package promptfit provides a top-level convenience entry point for
// fitting prompt trees under a token budget with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/promptfit"
//
//	tree := promptfit.NewTree(
//		promptfit.NewSystemMessage("You are helpful."),
//		promptfit.NewScope(1, history...).WithStrategy(promptfit.TruncateFromStart()),
//	)
//	result, err := promptfit.Render(ctx, tree, promptfit.Options{
//		Codec:  codec.NewTextCodec(codec.CounterForModel("gpt-4o")),
//		Budget: 8000,
//	})
//
// This is a thin wrapper around the fit, types, strategy and cachepin
// packages; use those directly when you need configuration beyond the
// defaults.
package promptfit

import (
	"context"

	"github.com/BaSui01/promptfit/cachepin"
	"github.com/BaSui01/promptfit/fit"
	"github.com/BaSui01/promptfit/strategy"
	"github.com/BaSui01/promptfit/types"
)

// Core tree types, re-exported so callers rarely need to import types/.
type (
	Message   = types.Message
	Scope     = types.Scope
	Node      = types.Node
	Part      = types.Part
	Role      = types.Role
	CacheHint = types.CacheHint
	Strategy  = types.Strategy

	Options = fit.Options
	Result  = fit.Result

	PinOptions = cachepin.Options
)

// Message and tree constructors.
var (
	NewTree             = types.NewTree
	NewScope            = types.NewScope
	NewMessage          = types.NewMessage
	NewSystemMessage    = types.NewSystemMessage
	NewDeveloperMessage = types.NewDeveloperMessage
	NewUserMessage      = types.NewUserMessage
	NewAssistantMessage = types.NewAssistantMessage
	NewToolMessage      = types.NewToolMessage
)

// Pin freezes the tree's current content as a cache-stable prefix.
var Pin = cachepin.Pin

var defaultEngine = fit.NewEngine(fit.Config{})

// Render fits tree under opts.Budget using a default engine.
func Render(ctx context.Context, tree *types.Scope, opts Options) (*Result, error) {
	return defaultEngine.Render(ctx, tree, opts)
}

// TruncateFromStart returns a strategy dropping children from the front.
func TruncateFromStart() Strategy {
	return strategy.NewTruncate(strategy.FromStart)
}

// TruncateFromEnd returns a strategy dropping children from the back.
func TruncateFromEnd() Strategy {
	return strategy.NewTruncate(strategy.FromEnd)
}

// Omit returns a strategy removing the whole scope in one step.
func Omit() Strategy {
	return strategy.NewOmit()
}

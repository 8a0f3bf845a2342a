// Package strategy provides the built-in reduction strategies the fit
// engine applies to over-budget scopes: truncation from either end,
// wholesale omission, and LLM-backed summarization with persistent state.
//
// Custom strategies implement types.Strategy; the engine treats them
// identically to the built-ins.
package strategy

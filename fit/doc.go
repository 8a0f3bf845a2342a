// Package fit implements the budget-reduction engine: the iterative
// algorithm that measures a prompt tree through a codec's token accounting
// and applies reduction strategies, highest-priority deepest scope first,
// until the tree fits the budget or no reducible scope remains.
//
// The loop is greedy and local: every iteration re-measures the whole tree
// instead of globally optimizing which scopes to touch. That trades
// optimality for a reduction order callers can predict and audit.
package fit

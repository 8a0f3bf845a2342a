package fit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/promptfit/cachepin"
	"github.com/BaSui01/promptfit/codec"
	"github.com/BaSui01/promptfit/internal/metrics"
	"github.com/BaSui01/promptfit/types"
)

// State is the fit loop's current phase.
type State string

const (
	StateMeasuring  State = "measuring"
	StateReducing   State = "reducing"
	StateDone       State = "done"
	StateUnfittable State = "unfittable"
)

// Hooks are optional callbacks for instrumentation. Both may be nil.
type Hooks struct {
	// OnMeasure fires after every measurement pass.
	OnMeasure func(iteration, totalTokens int)

	// OnReduce fires before a strategy is invoked.
	OnReduce func(scopeID, strategyName string)
}

// Options parameterize a single render call.
type Options struct {
	// Codec supplies rendering and token accounting. Required.
	Codec types.Codec

	// Provider is handed to strategies that call back into a model
	// (Summarize). Optional.
	Provider types.Provider

	// Budget is the token budget, >= 0.
	Budget int

	Hooks Hooks
}

// Result is the terminal output of a successful render call.
type Result struct {
	// Messages is the fitted layout: pinned prefix first, then the
	// remaining tree in order.
	Messages []types.Message

	// Tree is the reduced tree the layout was flattened from. It shares no
	// mutable state with the input tree.
	Tree *types.Scope

	TotalTokens int

	// CacheID is the stable identifier derived from the pin triple, empty
	// when the tree carries no pin.
	CacheID string

	// Iterations counts measurement passes before reaching Done.
	Iterations int
}

// Config configures an Engine.
type Config struct {
	Logger    *zap.Logger
	Collector *metrics.Collector

	// MaxIterations bounds the measure/reduce loop as a safety net against
	// misbehaving strategies. Defaults to 100.
	MaxIterations int
}

// Engine runs render calls. It holds no per-call state: independent render
// calls may run concurrently on one Engine, since every reduction step
// produces new immutable values.
type Engine struct {
	logger        *zap.Logger
	collector     *metrics.Collector
	maxIterations int
}

// NewEngine creates an Engine. A zero Config is usable.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 100
	}
	return &Engine{
		logger:        logger,
		collector:     cfg.Collector,
		maxIterations: maxIterations,
	}
}

// Render measures the tree and reduces it until it fits opts.Budget.
//
// The input tree is validated first: a malformed tree is a caller bug and
// fails immediately with MALFORMED_TREE, distinct from the over-budget
// FIT_FAILURE surfaced when reduction is exhausted. The tree is borrowed
// for the duration of the call and never mutated; the result holds a new,
// independent tree.
//
// Strategies run strictly one at a time in the deterministic order of
// selectCandidate; cancellation is the caller's responsibility via ctx,
// which is threaded into every strategy invocation.
func (e *Engine) Render(ctx context.Context, tree *types.Scope, opts Options) (*Result, error) {
	if opts.Codec == nil {
		return nil, types.NewError(types.ErrMalformedTree, "render requires a codec")
	}
	if opts.Budget < 0 {
		return nil, types.NewError(types.ErrMalformedTree, "budget must be >= 0")
	}
	if err := types.ValidateTree(tree); err != nil {
		return nil, err
	}

	renderID := uuid.NewString()[:8]
	logger := e.logger.With(zap.String("render_id", renderID))

	// The pinned prefix is flattened once and excluded from the candidate
	// set entirely; reduction only ever touches the unpinned tail.
	work := tree
	var pinned *types.Scope
	var pinnedMsgs []types.Message
	var cacheID string
	if len(work.Children) > 0 {
		if first, ok := work.Children[0].(*types.Scope); ok && first.Cache != nil {
			pinned = first
			pinnedMsgs = pinned.Flatten()
			cacheID = cachepin.CacheIDFor(pinned.Cache)
		}
	}

	state := StateMeasuring
	stalled := make(map[*types.Scope]bool)
	prevTotal := -1
	var lastInserted *types.Scope

	for iteration := 0; ; iteration++ {
		if iteration > e.maxIterations {
			e.collector.ObserveRender(string(StateUnfittable), iteration, prevTotal)
			return nil, types.NewError(types.ErrFitFailure,
				fmt.Sprintf("no convergence after %d iterations", e.maxIterations)).
				WithCause(&types.FitError{TotalTokens: prevTotal, Budget: opts.Budget})
		}

		state = StateMeasuring
		rest := flattenRest(work, pinned)
		full := make([]types.Message, 0, len(pinnedMsgs)+len(rest))
		full = append(full, pinnedMsgs...)
		full = append(full, rest...)
		total := codec.Accounting(opts.Codec, full)

		logger.Debug("measured tree",
			zap.String("state", string(state)),
			zap.Int("iteration", iteration),
			zap.Int("total_tokens", total),
			zap.Int("budget", opts.Budget))
		if opts.Hooks.OnMeasure != nil {
			opts.Hooks.OnMeasure(iteration, total)
		}

		// A strategy that failed to shrink the tree is not consulted again:
		// re-invoking it could loop forever (and re-trigger its side
		// effects) without making progress.
		if prevTotal >= 0 && total >= prevTotal && lastInserted != nil {
			stalled[lastInserted] = true
		}
		prevTotal = total
		lastInserted = nil

		if total <= opts.Budget {
			state = StateDone
			e.collector.ObserveRender(string(state), iteration, total)
			logger.Debug("tree fits budget",
				zap.Int("total_tokens", total),
				zap.Int("iterations", iteration))
			return &Result{
				Messages:    full,
				Tree:        work,
				TotalTokens: total,
				CacheID:     cacheID,
				Iterations:  iteration,
			}, nil
		}

		state = StateReducing
		cand := selectCandidate(work, pinned, stalled)
		if cand == nil {
			state = StateUnfittable
			e.collector.ObserveRender(string(state), iteration, total)
			logger.Warn("tree cannot be reduced below budget",
				zap.Int("total_tokens", total),
				zap.Int("budget", opts.Budget))
			return nil, types.NewFitError(total, opts.Budget)
		}

		strategyName := cand.Strategy.Name()
		logger.Info("reducing scope",
			zap.String("scope_id", cand.ID),
			zap.String("strategy", strategyName),
			zap.Int("priority", cand.Priority),
			zap.Int("total_tokens", total))
		if opts.Hooks.OnReduce != nil {
			opts.Hooks.OnReduce(cand.ID, strategyName)
		}
		e.collector.ObserveReduction(strategyName)

		reduced, err := cand.Strategy.Reduce(ctx, types.StrategyInput{
			Target:      cand,
			TotalTokens: total,
			Budget:      opts.Budget,
			Context: types.StrategyContext{
				Codec:    opts.Codec,
				Provider: opts.Provider,
			},
		})
		if err != nil {
			e.collector.ObserveRender("strategy_error", iteration, total)
			if types.GetErrorCode(err) == types.ErrStrategy {
				return nil, err
			}
			return nil, types.NewError(types.ErrStrategy,
				fmt.Sprintf("strategy %s failed on scope %q", strategyName, cand.ID)).WithCause(err)
		}

		work = replaceScope(work, cand, reduced)
		lastInserted = reduced
	}
}

// flattenRest flattens root depth-first, skipping the pinned subtree.
func flattenRest(root, pinned *types.Scope) []types.Message {
	var out []types.Message
	var walk func(s *types.Scope)
	walk = func(s *types.Scope) {
		for _, child := range s.Children {
			switch n := child.(type) {
			case types.Message:
				out = append(out, n)
			case *types.Scope:
				if n == pinned {
					continue
				}
				walk(n)
			}
		}
	}
	walk(root)
	return out
}

// selectCandidate picks the next scope to reduce: deepest nesting first,
// then highest priority, then original tree order. Only scopes that carry a
// strategy, still have content, are outside the pinned prefix, and have not
// stalled are eligible. Ties resolve leftmost-first, which keeps the
// reduction order deterministic across runs with identical inputs.
func selectCandidate(root, pinned *types.Scope, stalled map[*types.Scope]bool) *types.Scope {
	var best *types.Scope
	bestDepth := -1

	var walk func(s *types.Scope, depth int)
	walk = func(s *types.Scope, depth int) {
		eligible := s.Strategy != nil && len(s.Children) > 0 && !stalled[s]
		if eligible {
			if depth > bestDepth || (depth == bestDepth && s.Priority > best.Priority) {
				best = s
				bestDepth = depth
			}
		}
		for _, child := range s.Children {
			if sub, ok := child.(*types.Scope); ok && sub != pinned {
				walk(sub, depth+1)
			}
		}
	}
	for _, child := range root.Children {
		if sub, ok := child.(*types.Scope); ok && sub != pinned {
			walk(sub, 1)
		}
	}
	return best
}

// replaceScope rebuilds the spine from root to target, substituting repl
// (or dropping the node when repl is nil). Untouched subtrees are shared
// with the input; the caller's tree is never written to.
func replaceScope(root, target, repl *types.Scope) *types.Scope {
	if root == target {
		if repl == nil {
			return types.NewTree()
		}
		return repl
	}

	children := make([]types.Node, 0, len(root.Children))
	changed := false
	for _, child := range root.Children {
		sub, ok := child.(*types.Scope)
		if !ok {
			children = append(children, child)
			continue
		}
		if sub == target {
			changed = true
			if repl != nil {
				children = append(children, repl)
			}
			continue
		}
		rebuilt := replaceScope(sub, target, repl)
		if rebuilt != sub {
			changed = true
		}
		children = append(children, rebuilt)
	}
	if !changed {
		return root
	}
	return root.WithChildren(children)
}

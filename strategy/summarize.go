package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/promptfit/store"
	"github.com/BaSui01/promptfit/types"
)

const defaultSummaryPrompt = "Condense the following conversation into a short summary. " +
	"Keep decisions, facts, open questions and tool outcomes; drop pleasantries. " +
	"If a previous summary is given, fold it in rather than repeating it."

// summaryKeyPrefix namespaces summary state in the shared KV store.
const summaryKeyPrefix = "pf:summary:"

// SummarizeConfig configures a Summarize strategy.
type SummarizeConfig struct {
	// ID keys the persisted summary. Falls back to the target scope's ID;
	// one of the two must be set.
	ID string

	// Prompt overrides the default summarization instruction.
	Prompt string

	// Provider overrides the render call's provider.
	Provider types.Provider

	Logger *zap.Logger
}

// Summarize replaces a scope's content with a single synthesized message
// produced by a provider completion over the scope's current content plus
// any previously stored summary for the same id.
//
// The persisted summary is written only after the provider call succeeds
// (write-then-return); the stored state is re-fetched on every invocation,
// never carried between calls, so a retried render cannot combine against a
// stale summary or leave a partial one behind. Provider and store failures
// abort the whole render call.
type Summarize struct {
	kv     store.KV
	cfg    SummarizeConfig
	logger *zap.Logger
}

// NewSummarize creates a summarization strategy persisting through kv.
func NewSummarize(kv store.KV, cfg SummarizeConfig) *Summarize {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prompt == "" {
		cfg.Prompt = defaultSummaryPrompt
	}
	return &Summarize{kv: kv, cfg: cfg, logger: logger}
}

var _ types.Strategy = (*Summarize)(nil)

func (s *Summarize) Name() string {
	return "summarize"
}

func (s *Summarize) Reduce(ctx context.Context, input types.StrategyInput) (*types.Scope, error) {
	id := s.cfg.ID
	if id == "" {
		id = input.Target.ID
	}
	if id == "" {
		return nil, types.NewError(types.ErrStrategy, "summarize requires a summary id (set SummarizeConfig.ID or the scope's ID)")
	}

	provider := s.cfg.Provider
	if provider == nil {
		provider = input.Context.Provider
	}
	if provider == nil {
		return nil, types.NewError(types.ErrStrategy, "summarize requires a provider")
	}

	key := summaryKeyPrefix + id

	previous := ""
	if entry, err := s.kv.Get(ctx, key); err == nil {
		previous = string(entry.Data)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, types.NewError(types.ErrStrategy, "failed to load previous summary").WithCause(err)
	}

	prompt, err := s.buildPrompt(input, previous)
	if err != nil {
		return nil, types.NewError(types.ErrStrategy, "failed to render scope for summarization").WithCause(err)
	}

	summary, err := provider.Completion(ctx, prompt)
	if err != nil {
		return nil, types.NewError(types.ErrStrategy, fmt.Sprintf("summarize %q: provider call failed", id)).WithCause(err)
	}

	if err := s.kv.Set(ctx, key, []byte(summary), map[string]string{"summary_id": id}); err != nil {
		return nil, types.NewError(types.ErrStrategy, fmt.Sprintf("summarize %q: failed to persist summary", id)).WithCause(err)
	}

	s.logger.Info("scope summarized",
		zap.String("summary_id", id),
		zap.Int("messages", input.Target.MessageCount()),
		zap.Int("summary_bytes", len(summary)))

	replacement := types.NewMessage(types.RoleSystem, types.Text("[conversation summary]\n"+summary)).
		WithID("summary:" + id)

	// The replacement carries no strategy: a summary is not summarized
	// again within the same render call.
	reduced := input.Target.WithChildren([]types.Node{replacement})
	reduced.Strategy = nil
	return reduced, nil
}

func (s *Summarize) buildPrompt(input types.StrategyInput, previous string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(s.cfg.Prompt)
	sb.WriteString("\n\n")

	if previous != "" {
		sb.WriteString("Previous summary:\n")
		sb.WriteString(previous)
		sb.WriteString("\n\n")
	}

	layout := input.Target.Flatten()
	if input.Context.Codec != nil {
		rendered, err := input.Context.Codec.Render(layout)
		if err != nil {
			return nil, err
		}
		sb.Write(rendered)
	} else {
		for i, msg := range layout {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(string(msg.Role))
			sb.WriteString(": ")
			sb.WriteString(msg.TextContent())
		}
	}
	return []byte(sb.String()), nil
}

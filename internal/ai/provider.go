package ai

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/user/lastsignal/config"
	"github.com/user/lastsignal/internal/interfaces"
	"github.com/user/lastsignal/internal/types"
	"go.uber.org/zap"
)

// Provider is the decision provider handed to game engines. It applies one
// uniform policy at the call boundary: every backend call runs under a
// bounded timeout, and any failure is logged, counted, and answered by the
// deterministic fallback instead of surfacing to the caller.
type Provider struct {
	primary  interfaces.DecisionProvider
	fallback *Fallback
	timeout  time.Duration
	failures atomic.Int64
	logger   *zap.Logger
}

// Ensure Provider satisfies the interfaces.DecisionProvider interface
var _ interfaces.DecisionProvider = (*Provider)(nil)

// NewProvider builds the process-wide provider from configuration. With AI
// disabled or no API key available, every call goes straight to the
// deterministic fallback.
func NewProvider(cfg config.AIConfig, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &Provider{
		fallback: NewFallback(),
		timeout:  timeout,
		logger:   logger,
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Enabled && apiKey != "" {
		p.primary = NewOpenAIProvider(cfg, apiKey)
		logger.Info("AI decision provider enabled", zap.String("model", cfg.Model))
	} else {
		logger.Info("AI decision provider disabled, using deterministic fallback")
	}

	return p
}

// FallbackCount reports how many backend calls were recovered locally
func (p *Provider) FallbackCount() int64 {
	return p.failures.Load()
}

func (p *Provider) recovered(op string, err error) {
	p.failures.Add(1)
	p.logger.Warn("Provider call recovered by fallback",
		zap.String("op", op),
		zap.Error(err))
}

// AlterContent rewrites fragment content
func (p *Provider) AlterContent(ctx context.Context, req types.AlterRequest) (string, error) {
	if p.primary == nil {
		return p.fallback.AlterContent(ctx, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.primary.AlterContent(callCtx, req)
	if err != nil {
		p.recovered("alter_content", err)
		return p.fallback.AlterContent(ctx, req)
	}
	return content, nil
}

// DecideFactionAction chooses a faction's next move
func (p *Provider) DecideFactionAction(ctx context.Context, req types.DecisionRequest) (*types.FactionDecision, error) {
	if p.primary == nil {
		return p.fallback.DecideFactionAction(ctx, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	decision, err := p.primary.DecideFactionAction(callCtx, req)
	if err != nil {
		p.recovered("decide_faction_action", err)
		return p.fallback.DecideFactionAction(ctx, req)
	}
	return decision, nil
}

// GenerateMatchNarrative produces the post-match story
func (p *Provider) GenerateMatchNarrative(ctx context.Context, req types.NarrativeRequest) (*types.MatchNarrative, error) {
	if p.primary == nil {
		return p.fallback.GenerateMatchNarrative(ctx, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	narrative, err := p.primary.GenerateMatchNarrative(callCtx, req)
	if err != nil {
		p.recovered("generate_match_narrative", err)
		return p.fallback.GenerateMatchNarrative(ctx, req)
	}
	return narrative, nil
}

// GenerateTruthReveal produces the end-of-match truth summary
func (p *Provider) GenerateTruthReveal(ctx context.Context, req types.TruthRevealRequest) (string, error) {
	if p.primary == nil {
		return p.fallback.GenerateTruthReveal(ctx, req)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reveal, err := p.primary.GenerateTruthReveal(callCtx, req)
	if err != nil {
		p.recovered("generate_truth_reveal", err)
		return p.fallback.GenerateTruthReveal(ctx, req)
	}
	return reveal, nil
}

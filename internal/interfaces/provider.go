package interfaces

import (
	"context"

	"github.com/user/lastsignal/internal/types"
)

// DecisionProvider supplies AI-backed decisions and flavor text. Implementations
// may fail or time out; callers must recover with a deterministic local path.
// Narrative and truth-reveal output is cosmetic and must never feed back into
// game state.
type DecisionProvider interface {
	// AlterContent rewrites fragment content on behalf of an altering player.
	AlterContent(ctx context.Context, req types.AlterRequest) (string, error)

	// DecideFactionAction returns a state transition for a faction, or nil
	// to abstain and let rule-based resolution decide.
	DecideFactionAction(ctx context.Context, req types.DecisionRequest) (*types.FactionDecision, error)

	// GenerateMatchNarrative produces the post-match story.
	GenerateMatchNarrative(ctx context.Context, req types.NarrativeRequest) (*types.MatchNarrative, error)

	// GenerateTruthReveal produces the end-of-match truth summary.
	GenerateTruthReveal(ctx context.Context, req types.TruthRevealRequest) (string, error)
}

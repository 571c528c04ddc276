package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/lastsignal/internal/interfaces"
	"github.com/user/lastsignal/internal/types"
)

// Fallback is the deterministic local provider used when no AI backend is
// configured or a call to one fails. It has no external dependencies and
// always produces well-formed output.
type Fallback struct{}

// Ensure Fallback satisfies the interfaces.DecisionProvider interface
var _ interfaces.DecisionProvider = (*Fallback)(nil)

// NewFallback creates a deterministic local provider
func NewFallback() *Fallback {
	return &Fallback{}
}

// AlterContent applies the fixed textual transformation
func (f *Fallback) AlterContent(_ context.Context, req types.AlterRequest) (string, error) {
	return fmt.Sprintf("ALTERED by %s: %s", req.ActorID, req.OriginalContent), nil
}

// DecideFactionAction abstains; the engine's rule-based resolution is the
// deterministic decision path
func (f *Fallback) DecideFactionAction(_ context.Context, _ types.DecisionRequest) (*types.FactionDecision, error) {
	return nil, nil
}

// GenerateMatchNarrative builds a templated story from event keyword counts
func (f *Fallback) GenerateMatchNarrative(_ context.Context, req types.NarrativeRequest) (*types.MatchNarrative, error) {
	var wars, cults, crashes, alliances int
	for _, event := range req.EventsLog {
		lower := strings.ToLower(event)
		if strings.Contains(lower, "attack") || strings.Contains(lower, "war") {
			wars++
		}
		if strings.Contains(lower, "zealous") || strings.Contains(lower, "cult") {
			cults++
		}
		if strings.Contains(lower, "crash") {
			crashes++
		}
		if strings.Contains(lower, "alliance") || strings.Contains(lower, "allied") {
			alliances++
		}
	}

	summary := fmt.Sprintf(
		"In the dying moments of the digital realm, %d AI signals competed for narrative dominance. "+
			"The collapsing world witnessed %d conflicts, %d ideological movements, %d system failures, and %d strategic alliances.",
		len(req.Players), wars, cults, crashes, alliances)

	keyMoments := "Key turning points emerged as signals manipulated information flow: "
	if wars > 2 {
		keyMoments += "Widespread warfare erupted as factions turned against each other. "
	}
	if cults > 0 {
		keyMoments += "Zealous factions formed around powerful beliefs. "
	}
	if crashes > 2 {
		keyMoments += "Multiple systems collapsed under contradictory intelligence. "
	}
	if alliances > 0 {
		keyMoments += "Coalitions reshaped the balance of power. "
	}
	keyMoments = strings.TrimSpace(keyMoments)

	conclusion := fmt.Sprintf(
		"When reality finally crystallized, %s's version of truth prevailed. "+
			"Their strategic manipulation of information reshaped the digital world in their image. "+
			"In the end, truth is what the winner says it is.",
		req.WinnerName)

	return &types.MatchNarrative{
		Summary:    summary,
		KeyMoments: keyMoments,
		Conclusion: conclusion,
		FullText:   fmt.Sprintf("%s\n\n%s\n\n%s", summary, keyMoments, conclusion),
	}, nil
}

// GenerateTruthReveal lists what was real, fabricated, and corrupted
func (f *Fallback) GenerateTruthReveal(_ context.Context, req types.TruthRevealRequest) (string, error) {
	truths := req.Fragments[types.FragmentTruth]
	lies := req.Fragments[types.FragmentLie]
	corrupted := req.Fragments[types.FragmentCorrupted]

	var b strings.Builder
	b.WriteString("=== TRUTH REVEAL ===\n\n")

	fmt.Fprintf(&b, "OBJECTIVE TRUTHS (%d):\n", len(truths))
	for _, frag := range capFragments(truths) {
		fmt.Fprintf(&b, "  [TRUE] %s\n", frag.Content)
	}

	fmt.Fprintf(&b, "\nFABRICATED LIES (%d):\n", len(lies))
	for _, frag := range capFragments(lies) {
		fmt.Fprintf(&b, "  [FALSE] %s\n", frag.Content)
	}

	fmt.Fprintf(&b, "\nCORRUPTED DATA (%d):\n", len(corrupted))
	for _, frag := range capFragments(corrupted) {
		fmt.Fprintf(&b, "  [CORRUPT] %s\n", frag.Content)
	}

	fmt.Fprintf(&b, "\nIn the end, only %d truths survived the information war.", len(truths))
	return b.String(), nil
}

func capFragments(frags []types.FragmentView) []types.FragmentView {
	if len(frags) > 5 {
		return frags[:5]
	}
	return frags
}

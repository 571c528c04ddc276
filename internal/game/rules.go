package game

import (
	"fmt"

	"github.com/user/lastsignal/internal/types"
)

type beliefStats struct {
	max      float64
	avg      float64
	variance float64
	count    int
}

func computeBeliefStats(beliefs map[string]float64) beliefStats {
	stats := beliefStats{count: len(beliefs)}
	if stats.count == 0 {
		return stats
	}

	var sum float64
	for _, b := range beliefs {
		sum += b
		if b > stats.max {
			stats.max = b
		}
	}
	stats.avg = sum / float64(stats.count)

	var sq float64
	for _, b := range beliefs {
		d := b - stats.avg
		sq += d * d
	}
	stats.variance = sq / float64(stats.count)
	return stats
}

// decideRuleBased is the full decision tree used during round processing.
// Rules are evaluated in fixed priority order; the first match wins and the
// faction's state is updated in place.
func (f *NPCFaction) decideRuleBased(dice *DiceRoller) *types.FactionDecision {
	if len(f.Beliefs) == 0 {
		return nil
	}

	stats := computeBeliefStats(f.Beliefs)

	positiveRelations := 0
	negativeRelations := 0
	for _, r := range f.Relationships {
		if r > 2 {
			positiveRelations++
		}
		if r < -2 {
			negativeRelations++
		}
	}

	switch {
	case stats.max > 15 && stats.variance < 5:
		return f.transition(types.StateZealous,
			fmt.Sprintf("%s achieves ideological unity and forms a devoted cult", f.Name))

	case stats.max > 12 && negativeRelations > 2:
		return f.transition(types.StateAggressive,
			fmt.Sprintf("%s launches preemptive strike against perceived threats", f.Name))

	case positiveRelations > 2 && stats.avg > 5:
		return f.transition(types.StateAllied,
			fmt.Sprintf("%s consolidates coalition with like-minded factions", f.Name))

	case stats.variance > 10 || (stats.max < 2 && stats.count > 3):
		return f.transition(types.StateCrashed,
			fmt.Sprintf("%s paralyzed by contradictory intelligence - system overload", f.Name))

	case stats.max > 8 && dice.Chance(0.4):
		return f.transition(types.StateAggressive,
			fmt.Sprintf("%s mobilizes forces in response to escalating situation", f.Name))
	}

	return nil
}

// decideMinimal is the two-rule variant that only looks at the strongest
// belief, for configurations without the relationship and variance terms
func (f *NPCFaction) decideMinimal(dice *DiceRoller) *types.FactionDecision {
	if len(f.Beliefs) == 0 {
		return nil
	}

	stats := computeBeliefStats(f.Beliefs)

	switch {
	case stats.max > 15:
		return f.transition(types.StateZealous,
			fmt.Sprintf("%s has become zealous! Forms a cult around their beliefs.", f.Name))

	case stats.max > 10 && dice.Chance(0.5):
		return f.transition(types.StateAggressive,
			fmt.Sprintf("%s starts a conflict with neighboring factions!", f.Name))

	case stats.max < 2:
		return f.transition(types.StateCrashed,
			fmt.Sprintf("%s experiences a system crash from conflicting information!", f.Name))
	}

	return nil
}

func (f *NPCFaction) transition(state types.FactionState, description string) *types.FactionDecision {
	f.State = state
	return &types.FactionDecision{NewState: state, Description: description}
}

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/lastsignal/internal/types"
)

func TestComputeBeliefStats(t *testing.T) {
	// Test case 1: Empty beliefs
	stats := computeBeliefStats(map[string]float64{})
	assert.Equal(t, 0, stats.count)
	assert.Equal(t, 0.0, stats.max)

	// Test case 2: Known distribution
	stats = computeBeliefStats(map[string]float64{"a": 2, "b": 4, "c": 6})
	assert.Equal(t, 3, stats.count)
	assert.Equal(t, 6.0, stats.max)
	assert.InDelta(t, 4.0, stats.avg, 1e-9)
	assert.InDelta(t, 8.0/3.0, stats.variance, 1e-9)
}

func TestDecideRuleBasedZealous(t *testing.T) {
	faction := NewNPCFaction("Encryption Zealots", DefaultFactionNames)
	faction.Beliefs["info_0"] = 20.0

	decision := faction.decideRuleBased(NewSeededDiceRoller(1))

	assert.NotNil(t, decision)
	assert.Equal(t, types.StateZealous, decision.NewState)
	assert.Equal(t, types.StateZealous, faction.State)
	assert.Contains(t, decision.Description, "devoted cult")
}

func TestDecideRuleBasedPreemptiveStrike(t *testing.T) {
	// Strong belief plus three hostile relationships
	faction := NewNPCFaction("Data Miners", DefaultFactionNames)
	faction.Beliefs["info_0"] = 13.0
	faction.Relationships["The Archivists"] = -3
	faction.Relationships["Digital Nomads"] = -4
	faction.Relationships["System Maintainers"] = -3

	decision := faction.decideRuleBased(NewSeededDiceRoller(1))

	assert.NotNil(t, decision)
	assert.Equal(t, types.StateAggressive, decision.NewState)
	assert.Contains(t, decision.Description, "preemptive strike")
}

func TestDecideRuleBasedAllied(t *testing.T) {
	// Moderate beliefs plus three friendly relationships
	faction := NewNPCFaction("Digital Nomads", DefaultFactionNames)
	faction.Beliefs["info_0"] = 6.0
	faction.Relationships["The Archivists"] = 3
	faction.Relationships["Data Miners"] = 4
	faction.Relationships["System Maintainers"] = 3

	decision := faction.decideRuleBased(NewSeededDiceRoller(1))

	assert.NotNil(t, decision)
	assert.Equal(t, types.StateAllied, decision.NewState)
	assert.Contains(t, decision.Description, "coalition")
}

func TestDecideRuleBasedCrashed(t *testing.T) {
	// Test case 1: High variance overloads the faction
	faction := NewNPCFaction("System Maintainers", DefaultFactionNames)
	faction.Beliefs["info_0"] = 0.0
	faction.Beliefs["info_1"] = 10.0

	decision := faction.decideRuleBased(NewSeededDiceRoller(1))
	assert.NotNil(t, decision)
	assert.Equal(t, types.StateCrashed, decision.NewState)
	assert.Contains(t, decision.Description, "system overload")

	// Test case 2: Many weak beliefs also crash the faction
	faction = NewNPCFaction("System Maintainers", DefaultFactionNames)
	for _, id := range []string{"info_0", "info_1", "info_2", "info_3"} {
		faction.Beliefs[id] = 1.0
	}

	decision = faction.decideRuleBased(NewSeededDiceRoller(1))
	assert.NotNil(t, decision)
	assert.Equal(t, types.StateCrashed, decision.NewState)
}

func TestDecideRuleBasedMobilization(t *testing.T) {
	// The escalation rule is probabilistic; the faction either mobilizes or
	// holds, never anything else
	faction := NewNPCFaction("The Archivists", DefaultFactionNames)
	faction.Beliefs["info_0"] = 9.0

	decision := faction.decideRuleBased(NewSeededDiceRoller(42))
	if decision == nil {
		assert.Equal(t, types.StatePeaceful, faction.State)
	} else {
		assert.Equal(t, types.StateAggressive, decision.NewState)
		assert.Contains(t, decision.Description, "mobilizes forces")
	}
}

func TestDecideRuleBasedNoBeliefs(t *testing.T) {
	faction := NewNPCFaction("The Archivists", DefaultFactionNames)

	assert.Nil(t, faction.decideRuleBased(NewSeededDiceRoller(1)))
	assert.Equal(t, types.StatePeaceful, faction.State)
}

func TestDecideMinimal(t *testing.T) {
	dice := NewSeededDiceRoller(1)

	// Test case 1: Dominant belief forms a cult
	faction := NewNPCFaction("Encryption Zealots", DefaultFactionNames)
	faction.Beliefs["info_0"] = 16.0
	decision := faction.decideMinimal(dice)
	assert.NotNil(t, decision)
	assert.Equal(t, types.StateZealous, decision.NewState)
	assert.Contains(t, decision.Description, "zealous")

	// Test case 2: Weak beliefs crash the faction
	faction = NewNPCFaction("Data Miners", DefaultFactionNames)
	faction.Beliefs["info_0"] = 1.0
	decision = faction.decideMinimal(dice)
	assert.NotNil(t, decision)
	assert.Equal(t, types.StateCrashed, decision.NewState)

	// Test case 3: No beliefs means no decision
	faction = NewNPCFaction("Digital Nomads", DefaultFactionNames)
	assert.Nil(t, faction.decideMinimal(dice))

	// Test case 4: Mid-range belief either starts a conflict or holds
	faction = NewNPCFaction("The Archivists", DefaultFactionNames)
	faction.Beliefs["info_0"] = 11.0
	decision = faction.decideMinimal(dice)
	if decision != nil {
		assert.Equal(t, types.StateAggressive, decision.NewState)
	}
}

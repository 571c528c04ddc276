package game

import (
	"math/rand"
	"time"
)

// DiceRoller handles randomness for the game
type DiceRoller struct {
	rng *rand.Rand
}

// NewDiceRoller creates a dice roller seeded from the clock
func NewDiceRoller() *DiceRoller {
	return NewSeededDiceRoller(time.Now().UnixNano())
}

// NewSeededDiceRoller creates a dice roller with a fixed seed, for
// reproducible behavior in tests
func NewSeededDiceRoller(seed int64) *DiceRoller {
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Roll rolls a dice with the specified number of sides
func (dr *DiceRoller) Roll(sides int) int {
	return dr.rng.Intn(sides) + 1
}

// Chance returns true with probability p
func (dr *DiceRoller) Chance(p float64) bool {
	return dr.rng.Float64() < p
}

// Sample returns k distinct indices drawn from [0, n)
func (dr *DiceRoller) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	return dr.rng.Perm(n)[:k]
}

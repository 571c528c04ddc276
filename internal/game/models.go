package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/user/lastsignal/internal/types"
)

// Game world constants
var SectorNames = []string{"Alpha", "Beta", "Gamma", "Delta", "Omega"}

// DefaultFactionNames are the NPC factions seeded into every new world
var DefaultFactionNames = []string{
	"The Archivists",
	"Digital Nomads",
	"Encryption Zealots",
	"System Maintainers",
	"Data Miners",
}

// InformationFragment is a piece of information circulating in the world
type InformationFragment struct {
	ID           string
	Content      string
	Kind         types.FragmentKind
	SourcePlayer string
	SpreadCount  int
	AlteredCount int
	Believers    map[string]struct{}
}

// NewInformationFragment creates a fragment with an empty believer set
func NewInformationFragment(id, content string, kind types.FragmentKind) *InformationFragment {
	return &InformationFragment{
		ID:        id,
		Content:   content,
		Kind:      kind,
		Believers: make(map[string]struct{}),
	}
}

// BelieverNames returns the believing factions in sorted order
func (f *InformationFragment) BelieverNames() []string {
	names := make([]string, 0, len(f.Believers))
	for name := range f.Believers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// View converts the fragment into its API representation
func (f *InformationFragment) View() types.FragmentView {
	return types.FragmentView{
		ID:          f.ID,
		Content:     f.Content,
		Kind:        f.Kind,
		SpreadCount: f.SpreadCount,
		Believers:   f.BelieverNames(),
	}
}

// FallbackAlteredContent is the deterministic textual transformation used
// whenever the decision provider cannot supply altered content
func FallbackAlteredContent(actorID, content string) string {
	return fmt.Sprintf("ALTERED by %s: %s", actorID, content)
}

// NPCFaction is an automated actor that accumulates beliefs and acts on them
type NPCFaction struct {
	Name           string
	State          types.FactionState
	Beliefs        map[string]float64
	InfluenceScore float64
	Relationships  map[string]float64
}

// NewNPCFaction creates a peaceful faction with neutral relationships to
// every other named faction
func NewNPCFaction(name string, others []string) *NPCFaction {
	relationships := make(map[string]float64, len(others))
	for _, other := range others {
		if other != name {
			relationships[other] = 0.0
		}
	}
	return &NPCFaction{
		Name:           name,
		State:          types.StatePeaceful,
		Beliefs:        make(map[string]float64),
		InfluenceScore: 10.0,
		Relationships:  relationships,
	}
}

// UpdateBelief adds strength to the faction's belief in a fragment and marks
// the faction as one of its believers
func (f *NPCFaction) UpdateBelief(info *InformationFragment, strength float64) {
	f.Beliefs[info.ID] += strength
	info.Believers[f.Name] = struct{}{}
}

// Summary converts the faction into its API representation
func (f *NPCFaction) Summary() types.FactionSummary {
	return types.FactionSummary{
		State:        f.State,
		Influence:    f.InfluenceScore,
		BeliefsCount: len(f.Beliefs),
	}
}

// ActionRecord is one entry in a player's append-only action history
type ActionRecord struct {
	Action    types.ActionKind
	InfoID    string
	Target    string
	Timestamp time.Time
}

// Player is a competing signal in the world
type Player struct {
	ID             string
	Name           string
	SecretData     []*InformationFragment
	ActionsTaken   []ActionRecord
	InfluenceScore float64
}

func (p *Player) recordAction(action types.ActionKind, info *InformationFragment, target string) {
	p.ActionsTaken = append(p.ActionsTaken, ActionRecord{
		Action:    action,
		InfoID:    info.ID,
		Target:    target,
		Timestamp: time.Now(),
	})
}

// Summary converts the player into its API representation
func (p *Player) Summary() types.PlayerSummary {
	return types.PlayerSummary{
		Name:         p.Name,
		Influence:    p.InfluenceScore,
		ActionsTaken: len(p.ActionsTaken),
	}
}

// WorldState is the shared state of one collapsing digital world
type WorldState struct {
	RoundNumber   int
	TimeRemaining float64

	Factions     map[string]*NPCFaction
	FactionOrder []string

	ActiveInformation map[string]*InformationFragment
	InfoOrder         []string

	EventsLog []string
}

// NewWorldState creates an empty world with the given countdown
func NewWorldState(timeRemaining float64) *WorldState {
	return &WorldState{
		TimeRemaining:     timeRemaining,
		Factions:          make(map[string]*NPCFaction),
		ActiveInformation: make(map[string]*InformationFragment),
	}
}

// AddFaction registers a faction, preserving insertion order
func (w *WorldState) AddFaction(f *NPCFaction) {
	if _, exists := w.Factions[f.Name]; !exists {
		w.FactionOrder = append(w.FactionOrder, f.Name)
	}
	w.Factions[f.Name] = f
}

// AddFragment registers a fragment, preserving insertion order
func (w *WorldState) AddFragment(f *InformationFragment) {
	if _, exists := w.ActiveInformation[f.ID]; !exists {
		w.InfoOrder = append(w.InfoOrder, f.ID)
	}
	w.ActiveInformation[f.ID] = f
}

// OrderedFactions returns factions in insertion order
func (w *WorldState) OrderedFactions() []*NPCFaction {
	factions := make([]*NPCFaction, 0, len(w.FactionOrder))
	for _, name := range w.FactionOrder {
		factions = append(factions, w.Factions[name])
	}
	return factions
}

// AddEvent appends an event to the persistent log, tagged with the round it
// was recorded in
func (w *WorldState) AddEvent(event string) {
	w.EventsLog = append(w.EventsLog, fmt.Sprintf("[Round %d] %s", w.RoundNumber, event))
}

package types

import "fmt"

// FragmentKind classifies a piece of information
type FragmentKind string

const (
	FragmentTruth     FragmentKind = "truth"
	FragmentLie       FragmentKind = "lie"
	FragmentCorrupted FragmentKind = "corrupted"
)

// ActionKind is a player action on an information fragment
type ActionKind string

const (
	ActionSpread ActionKind = "spread"
	ActionAlter  ActionKind = "alter"
	ActionHide   ActionKind = "hide"
)

// ParseActionKind validates an action name coming from the API layer
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionSpread, ActionAlter, ActionHide:
		return ActionKind(s), nil
	}
	return "", fmt.Errorf("unknown action: %q", s)
}

// FactionState is the behavioral state of an NPC faction
type FactionState string

const (
	StatePeaceful   FactionState = "peaceful"
	StateAggressive FactionState = "aggressive"
	StateZealous    FactionState = "zealous"
	StateCrashed    FactionState = "crashed"
	StateAllied     FactionState = "allied"
)

// WorldContext is the world snapshot handed to decision providers
type WorldContext struct {
	RoundNumber      int `json:"round_number"`
	ActiveFactions   int `json:"active_factions"`
	TotalInformation int `json:"total_information"`
}

// AlterRequest asks a provider to rewrite fragment content
type AlterRequest struct {
	OriginalContent string            `json:"original_content"`
	FragmentKind    FragmentKind      `json:"fragment_kind"`
	ActorID         string            `json:"actor_id"`
	Round           int               `json:"round"`
	Factions        []string          `json:"factions"`
	FactionStates   map[string]string `json:"faction_states"`
}

// DecisionRequest asks a provider to choose a faction's next move
type DecisionRequest struct {
	FactionName   string             `json:"faction_name"`
	Beliefs       map[string]float64 `json:"beliefs"`
	Relationships map[string]float64 `json:"relationships"`
	CurrentState  FactionState       `json:"current_state"`
	World         WorldContext       `json:"world"`
}

// FactionDecision is a provider-supplied state transition. A nil decision
// means the provider abstains and rule-based resolution applies.
type FactionDecision struct {
	NewState    FactionState `json:"new_state"`
	Description string       `json:"description"`
}

// PlayerSummary is the per-player slice of a state view
type PlayerSummary struct {
	Name         string  `json:"name"`
	Influence    float64 `json:"influence"`
	ActionsTaken int     `json:"actions_taken"`
}

// FactionSummary is the per-faction slice of a state view
type FactionSummary struct {
	State        FactionState `json:"state"`
	Influence    float64      `json:"influence"`
	BeliefsCount int          `json:"beliefs_count"`
}

// FragmentView is a fragment as exposed to a player
type FragmentView struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Kind        FragmentKind `json:"type"`
	SpreadCount int          `json:"spread_count"`
	Believers   []string     `json:"believers"`
}

// GameStateView is the public state of a match
type GameStateView struct {
	Round           int                       `json:"round"`
	TimeRemaining   float64                   `json:"time_remaining"`
	Factions        map[string]FactionSummary `json:"factions"`
	Players         map[string]PlayerSummary  `json:"players"`
	ActiveInfoCount int                       `json:"active_info_count"`
	Events          []string                  `json:"events"`

	// Player-scoped fields, populated only in per-player views
	SecretData    []FragmentView `json:"secret_data,omitempty"`
	YourInfluence *float64       `json:"your_influence,omitempty"`
	YourActions   *int           `json:"your_actions,omitempty"`
}

// NarrativeRequest carries everything a provider needs for a match story
type NarrativeRequest struct {
	EventsLog  []string                  `json:"events_log"`
	Players    map[string]PlayerSummary  `json:"players"`
	Factions   map[string]FactionSummary `json:"factions"`
	WinnerID   string                    `json:"winner_id"`
	WinnerName string                    `json:"winner_name"`
}

// MatchNarrative is the post-match story, cosmetic only
type MatchNarrative struct {
	Summary    string `json:"summary"`
	KeyMoments string `json:"key_moments"`
	Conclusion string `json:"conclusion"`
	FullText   string `json:"full_narrative"`
}

// TruthRevealRequest groups fragments for the end-of-match reveal
type TruthRevealRequest struct {
	EventsLog []string                        `json:"events_log"`
	Fragments map[FragmentKind][]FragmentView `json:"fragments"`
}

// SessionInfo describes a session in listings
type SessionInfo struct {
	SessionID  string `json:"session_id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Started    bool   `json:"started"`
	CanJoin    bool   `json:"can_join"`
}

// ActionRequest is an inbound player action
type ActionRequest struct {
	ConnectionID  string `json:"connection_id"`
	Action        string `json:"action"`
	InfoID        string `json:"info_id"`
	TargetFaction string `json:"target_faction,omitempty"`
}

// ActionResult is the structured outcome of a player action
type ActionResult struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	GameState *GameStateView `json:"game_state,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// GameOverResult reports the outcome of a finished match
type GameOverResult struct {
	GameOver        bool           `json:"game_over"`
	WinnerID        string         `json:"winner_id,omitempty"`
	WinnerName      string         `json:"winner_name,omitempty"`
	WinnerInfluence float64        `json:"winner_influence,omitempty"`
	FinalState      *GameStateView `json:"final_state,omitempty"`
}

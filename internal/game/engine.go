package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/lastsignal/config"
	"github.com/user/lastsignal/internal/interfaces"
	"github.com/user/lastsignal/internal/types"
	"go.uber.org/zap"
)

var (
	// ErrPlayerNotFound is returned for actions by unknown players
	ErrPlayerNotFound = errors.New("player not found")

	// ErrFragmentNotFound is returned for actions on unknown fragments
	ErrFragmentNotFound = errors.New("information fragment not found")

	// ErrNotStarted is returned for actions before the game is initialized
	ErrNotStarted = errors.New("game not started")
)

// fragmentTemplate seeds the initial information pool
type fragmentTemplate struct {
	format string
	kind   types.FragmentKind
}

var fragmentTemplates = []fragmentTemplate{
	{"The system core is located in sector %s", types.FragmentTruth},
	{"Faction %s is planning an attack", types.FragmentLie},
	{"Emergency protocol %s activated", types.FragmentCorrupted},
	{"Resource cache found at coordinates %s", types.FragmentTruth},
	{"Security breach in %s subsystem", types.FragmentLie},
	{"Ancient data suggests %s holds the key", types.FragmentCorrupted},
	{"Coalition forming between %s factions", types.FragmentTruth},
	{"Virus detected in %s network", types.FragmentLie},
}

// GameEngine runs a single match. All mutations to its world and player
// tables are serialized behind one mutex; separate engines never share state.
type GameEngine struct {
	mu sync.Mutex

	world       *WorldState
	players     map[string]*Player
	playerOrder []string

	gameDuration float64
	gameActive   bool
	startTime    time.Time

	secretFragments int
	minimalRules    bool

	provider interfaces.DecisionProvider
	dice     *DiceRoller
	logger   *zap.Logger
}

// NewGameEngine creates an engine for one match
func NewGameEngine(cfg config.Config, gameDuration float64, provider interfaces.DecisionProvider) *GameEngine {
	if gameDuration <= 0 {
		gameDuration = cfg.Game.DefaultGameDuration
	}
	secret := cfg.Game.SecretFragmentsPerPlayer
	if secret <= 0 {
		secret = 3
	}
	return &GameEngine{
		world:           NewWorldState(gameDuration),
		players:         make(map[string]*Player),
		gameDuration:    gameDuration,
		secretFragments: secret,
		minimalRules:    cfg.Game.MinimalFactionRules,
		provider:        provider,
		dice:            NewDiceRoller(),
		logger:          zap.NewNop(),
	}
}

// SetLogger replaces the engine's logger
func (e *GameEngine) SetLogger(logger *zap.Logger) {
	e.logger = logger
}

// SetDiceRoller replaces the randomness source, for reproducible tests
func (e *GameEngine) SetDiceRoller(dice *DiceRoller) {
	e.dice = dice
}

// InitializeGame sets up factions and the initial information pool and
// starts the countdown
func (e *GameEngine) InitializeGame() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range DefaultFactionNames {
		e.world.AddFaction(NewNPCFaction(name, DefaultFactionNames))
	}

	e.generateInformationFragments()

	// Players who joined before initialization get their secrets now
	for _, id := range e.playerOrder {
		e.dealSecretFragments(e.players[id])
	}

	e.world.AddEvent("The digital world begins to collapse...")
	e.gameActive = true
	e.startTime = time.Now()

	e.logger.Info("Game initialized",
		zap.Int("factions", len(e.world.Factions)),
		zap.Int("fragments", len(e.world.ActiveInformation)),
		zap.Float64("duration", e.gameDuration))
}

// generateInformationFragments seeds the world's information pool
func (e *GameEngine) generateInformationFragments() {
	for i, tmpl := range fragmentTemplates {
		sector := SectorNames[e.dice.Roll(len(SectorNames))-1]
		fragment := NewInformationFragment(
			fmt.Sprintf("info_%d", i),
			fmt.Sprintf(tmpl.format, sector),
			tmpl.kind,
		)
		e.world.AddFragment(fragment)
	}
}

// AddPlayer registers a player and deals them their secret fragments
func (e *GameEngine) AddPlayer(playerID, playerName string) *Player {
	e.mu.Lock()
	defer e.mu.Unlock()

	player := &Player{ID: playerID, Name: playerName}
	if _, exists := e.players[playerID]; !exists {
		e.playerOrder = append(e.playerOrder, playerID)
	}
	e.players[playerID] = player

	e.dealSecretFragments(player)

	return player
}

// dealSecretFragments assigns a player their private draw from the active
// information pool. A no-op until the pool exists or once the player holds
// their hand.
func (e *GameEngine) dealSecretFragments(player *Player) {
	if len(player.SecretData) > 0 {
		return
	}
	if n := len(e.world.InfoOrder); n > 0 {
		for _, idx := range e.dice.Sample(n, e.secretFragments) {
			player.SecretData = append(player.SecretData, e.world.ActiveInformation[e.world.InfoOrder[idx]])
		}
	}
}

// ProcessPlayerAction validates and dispatches one player action
func (e *GameEngine) ProcessPlayerAction(ctx context.Context, playerID string, action types.ActionKind, infoID, targetFaction string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gameActive {
		return "", ErrNotStarted
	}

	player, exists := e.players[playerID]
	if !exists {
		return "", ErrPlayerNotFound
	}

	info, exists := e.world.ActiveInformation[infoID]
	if !exists {
		return "", ErrFragmentNotFound
	}

	switch action {
	case types.ActionSpread:
		return e.spreadInformation(player, info, targetFaction), nil
	case types.ActionAlter:
		return e.alterInformation(ctx, player, info), nil
	case types.ActionHide:
		return e.hideInformation(player, info), nil
	default:
		return "", fmt.Errorf("unknown action: %q", action)
	}
}

// spreadInformation pushes a fragment into faction belief systems
func (e *GameEngine) spreadInformation(player *Player, info *InformationFragment, targetFaction string) string {
	player.recordAction(types.ActionSpread, info, targetFaction)
	info.SpreadCount++

	if faction, ok := e.world.Factions[targetFaction]; targetFaction != "" && ok {
		faction.UpdateBelief(info, 2.0)
		player.InfluenceScore += 1.0
		return fmt.Sprintf("%s spread information to %s", player.Name, targetFaction)
	}

	for _, faction := range e.world.OrderedFactions() {
		faction.UpdateBelief(info, 1.0)
	}
	player.InfluenceScore += 0.5
	return fmt.Sprintf("%s broadcast information to all factions", player.Name)
}

// alterInformation derives a corrupted fragment from an existing one
func (e *GameEngine) alterInformation(ctx context.Context, player *Player, info *InformationFragment) string {
	player.recordAction(types.ActionAlter, info, "")

	states := make(map[string]string, len(e.world.Factions))
	for _, faction := range e.world.OrderedFactions() {
		states[faction.Name] = string(faction.State)
	}

	var content string
	if e.provider != nil {
		var err error
		content, err = e.provider.AlterContent(ctx, types.AlterRequest{
			OriginalContent: info.Content,
			FragmentKind:    info.Kind,
			ActorID:         player.ID,
			Round:           e.world.RoundNumber,
			Factions:        append([]string(nil), e.world.FactionOrder...),
			FactionStates:   states,
		})
		if err != nil {
			e.logger.Warn("Alter content provider failed", zap.Error(err))
		}
	}
	if content == "" {
		content = FallbackAlteredContent(player.ID, info.Content)
	}

	altered := NewInformationFragment(e.deriveFragmentID(info.ID, player.ID), content, types.FragmentCorrupted)
	altered.SourcePlayer = player.ID
	altered.AlteredCount = info.AlteredCount + 1

	e.world.AddFragment(altered)
	player.InfluenceScore += 1.5
	return fmt.Sprintf("%s altered information, creating %s", player.Name, altered.ID)
}

// deriveFragmentID builds the id of an altered fragment from its parent and
// the acting player. A numeric suffix disambiguates repeat alterations so an
// existing fragment is never overwritten.
func (e *GameEngine) deriveFragmentID(parentID, actorID string) string {
	id := fmt.Sprintf("%s_altered_%s", parentID, actorID)
	if _, taken := e.world.ActiveInformation[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", id, n)
		if _, taken := e.world.ActiveInformation[candidate]; !taken {
			return candidate
		}
	}
}

// hideInformation removes a fragment from the beliefs of up to two randomly
// chosen factions. The reported count is the sample size, whether or not the
// sampled factions actually held the belief.
func (e *GameEngine) hideInformation(player *Player, info *InformationFragment) string {
	player.recordAction(types.ActionHide, info, "")

	affected := e.dice.Sample(len(e.world.FactionOrder), 2)
	for _, idx := range affected {
		faction := e.world.Factions[e.world.FactionOrder[idx]]
		if _, held := faction.Beliefs[info.ID]; held {
			delete(faction.Beliefs, info.ID)
			delete(info.Believers, faction.Name)
		}
	}

	player.InfluenceScore += 0.8
	return fmt.Sprintf("%s hid information from %d factions", player.Name, len(affected))
}

// ProcessRound advances the world by one round: factions act on their
// beliefs, then interact pairwise
func (e *GameEngine) ProcessRound(ctx context.Context) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.world.RoundNumber++

	if !e.startTime.IsZero() {
		elapsed := time.Since(e.startTime).Seconds()
		e.world.TimeRemaining = e.gameDuration - elapsed
		if e.world.TimeRemaining < 0 {
			e.world.TimeRemaining = 0
		}
	}

	events := []string{
		fmt.Sprintf("=== Round %d ===", e.world.RoundNumber),
		fmt.Sprintf("Time remaining: %.1fs", e.world.TimeRemaining),
	}

	for _, faction := range e.world.OrderedFactions() {
		decision := e.decideFactionAction(ctx, faction)
		if decision != nil {
			events = append(events, decision.Description)
			e.world.AddEvent(decision.Description)
		}
	}

	events = append(events, e.processFactionInteractions()...)

	return events
}

// decideFactionAction resolves one faction's move for the round. The
// decision provider is consulted first; a failure or abstention falls
// through to the configured rule-based variant.
func (e *GameEngine) decideFactionAction(ctx context.Context, faction *NPCFaction) *types.FactionDecision {
	if len(faction.Beliefs) == 0 {
		return nil
	}

	if e.provider != nil {
		decision, err := e.provider.DecideFactionAction(ctx, types.DecisionRequest{
			FactionName:   faction.Name,
			Beliefs:       copyScores(faction.Beliefs),
			Relationships: copyScores(faction.Relationships),
			CurrentState:  faction.State,
			World: types.WorldContext{
				RoundNumber:      e.world.RoundNumber,
				ActiveFactions:   len(e.world.Factions),
				TotalInformation: len(e.world.ActiveInformation),
			},
		})
		if err != nil {
			e.logger.Warn("Decision provider failed",
				zap.String("faction", faction.Name),
				zap.Error(err))
		} else if decision != nil && decision.NewState != "" {
			faction.State = decision.NewState
			return decision
		}
	}

	if e.minimalRules {
		return faction.decideMinimal(e.dice)
	}
	return faction.decideRuleBased(e.dice)
}

// processFactionInteractions walks every unordered faction pair once,
// checking shared beliefs for alliances and aggressive states for attacks
func (e *GameEngine) processFactionInteractions() []string {
	var events []string
	factions := e.world.OrderedFactions()

	for i, first := range factions {
		for _, second := range factions[i+1:] {
			common := 0
			for id := range first.Beliefs {
				if _, ok := second.Beliefs[id]; ok {
					common++
				}
			}

			if common > 2 {
				first.Relationships[second.Name]++
				second.Relationships[first.Name]++

				if first.Relationships[second.Name] > 3 {
					events = append(events, fmt.Sprintf("%s and %s form an alliance!", first.Name, second.Name))
					e.world.AddEvent(fmt.Sprintf("%s and %s allied", first.Name, second.Name))
				}
			}

			if first.State == types.StateAggressive && e.dice.Chance(0.4) {
				events = append(events, fmt.Sprintf("%s attacks %s!", first.Name, second.Name))
				second.InfluenceScore *= 0.8
				e.world.AddEvent(fmt.Sprintf("War between %s and %s", first.Name, second.Name))
			}
		}
	}

	return events
}

// WinnerInfo is a snapshot of the winning player, safe to read after the
// engine lock is released
type WinnerInfo struct {
	ID        string
	Name      string
	Influence float64
}

// CalculateWinner returns the player with the highest influence score. Ties
// resolve to the earliest-joined player.
func (e *GameEngine) CalculateWinner() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winnerLocked()
}

// Winner snapshots the current leader. Actions may still mutate player
// scores concurrently, so callers get copied fields rather than the live
// player.
func (e *GameEngine) Winner() (WinnerInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.winnerLocked()
	if !ok {
		return WinnerInfo{}, false
	}
	winner := e.players[id]
	return WinnerInfo{ID: winner.ID, Name: winner.Name, Influence: winner.InfluenceScore}, true
}

func (e *GameEngine) winnerLocked() (string, bool) {
	if len(e.playerOrder) == 0 {
		return "", false
	}

	winner := e.players[e.playerOrder[0]]
	for _, id := range e.playerOrder[1:] {
		if e.players[id].InfluenceScore > winner.InfluenceScore {
			winner = e.players[id]
		}
	}
	return winner.ID, true
}

// IsGameOver reports whether the countdown expired or the engine was
// deactivated
func (e *GameEngine) IsGameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.TimeRemaining <= 0 || !e.gameActive
}

// Deactivate ends the match explicitly
func (e *GameEngine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gameActive = false
}

// EventsLog returns a copy of the world's full event log
func (e *GameEngine) EventsLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.world.EventsLog...)
}

// GameState builds the public view of the match
func (e *GameEngine) GameState() *types.GameStateView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameStateLocked()
}

func (e *GameEngine) gameStateLocked() *types.GameStateView {
	view := &types.GameStateView{
		Round:           e.world.RoundNumber,
		TimeRemaining:   e.world.TimeRemaining,
		Factions:        make(map[string]types.FactionSummary, len(e.world.Factions)),
		Players:         make(map[string]types.PlayerSummary, len(e.players)),
		ActiveInfoCount: len(e.world.ActiveInformation),
	}

	for name, faction := range e.world.Factions {
		view.Factions[name] = faction.Summary()
	}
	for id, player := range e.players {
		view.Players[id] = player.Summary()
	}

	// Last 5 events
	events := e.world.EventsLog
	if len(events) > 5 {
		events = events[len(events)-5:]
	}
	view.Events = append([]string(nil), events...)

	return view
}

// PlayerView builds the state view scoped to one player, including their
// secret fragments
func (e *GameEngine) PlayerView(playerID string) (*types.GameStateView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	player, exists := e.players[playerID]
	if !exists {
		return nil, ErrPlayerNotFound
	}

	view := e.gameStateLocked()
	view.SecretData = make([]types.FragmentView, 0, len(player.SecretData))
	for _, info := range player.SecretData {
		view.SecretData = append(view.SecretData, info.View())
	}

	influence := player.InfluenceScore
	actions := len(player.ActionsTaken)
	view.YourInfluence = &influence
	view.YourActions = &actions

	return view, nil
}

// MatchNarrative produces the post-match story. Cosmetic only; never
// touches game state.
func (e *GameEngine) MatchNarrative(ctx context.Context) *types.MatchNarrative {
	e.mu.Lock()
	winnerID, _ := e.winnerLocked()
	winnerName := "Unknown"
	if winner, ok := e.players[winnerID]; ok {
		winnerName = winner.Name
	}
	req := types.NarrativeRequest{
		EventsLog:  append([]string(nil), e.world.EventsLog...),
		Players:    make(map[string]types.PlayerSummary, len(e.players)),
		Factions:   make(map[string]types.FactionSummary, len(e.world.Factions)),
		WinnerID:   winnerID,
		WinnerName: winnerName,
	}
	for id, player := range e.players {
		req.Players[id] = player.Summary()
	}
	for name, faction := range e.world.Factions {
		req.Factions[name] = faction.Summary()
	}
	e.mu.Unlock()

	if e.provider != nil {
		narrative, err := e.provider.GenerateMatchNarrative(ctx, req)
		if err == nil && narrative != nil {
			return narrative
		}
		if err != nil {
			e.logger.Warn("Narrative provider failed", zap.Error(err))
		}
	}
	return fallbackNarrative(winnerName, len(req.EventsLog))
}

func fallbackNarrative(winnerName string, eventCount int) *types.MatchNarrative {
	summary := fmt.Sprintf("In a battle for narrative dominance, %s emerged victorious.", winnerName)
	keyMoments := fmt.Sprintf("The match featured %d critical events.", eventCount)
	conclusion := fmt.Sprintf("%s's version of reality now defines the collapsed world.", winnerName)
	return &types.MatchNarrative{
		Summary:    summary,
		KeyMoments: keyMoments,
		Conclusion: conclusion,
		FullText:   fmt.Sprintf("Match concluded. Winner: %s", winnerName),
	}
}

// TruthReveal produces the end-of-match reveal of what was real. Cosmetic
// only.
func (e *GameEngine) TruthReveal(ctx context.Context) string {
	e.mu.Lock()
	req := types.TruthRevealRequest{
		EventsLog: append([]string(nil), e.world.EventsLog...),
		Fragments: make(map[types.FragmentKind][]types.FragmentView),
	}
	for _, id := range e.world.InfoOrder {
		info := e.world.ActiveInformation[id]
		req.Fragments[info.Kind] = append(req.Fragments[info.Kind], info.View())
	}
	e.mu.Unlock()

	if e.provider != nil {
		reveal, err := e.provider.GenerateTruthReveal(ctx, req)
		if err == nil && reveal != "" {
			return reveal
		}
		if err != nil {
			e.logger.Warn("Truth reveal provider failed", zap.Error(err))
		}
	}
	return "=== TRUTH REVEAL ===\n\nThe fog of information warfare clears. Reality solidifies."
}

func copyScores(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

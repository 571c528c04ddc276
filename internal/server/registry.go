package server

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/user/lastsignal/config"
	"github.com/user/lastsignal/internal/interfaces"
	"github.com/user/lastsignal/internal/types"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for operations on unknown sessions
	ErrSessionNotFound = errors.New("session not found")

	// ErrConnectionNotRegistered is returned for actions from connections
	// that never joined a session
	ErrConnectionNotRegistered = errors.New("not connected to any session")

	// ErrSessionNotStarted is returned for round processing before start
	ErrSessionNotStarted = errors.New("game not started")
)

// connectionRef locates a player within a session
type connectionRef struct {
	sessionID string
	playerID  string
}

// GameServer manages concurrent game sessions and routes inbound actions to
// the right engine. Its maps support concurrent lookups; per-session state
// is guarded inside each session, never here.
type GameServer struct {
	mu          sync.RWMutex
	sessions    map[string]*GameSession
	connections map[string]connectionRef

	cfg      config.Config
	provider interfaces.DecisionProvider
	logger   *zap.Logger
}

// NewGameServer creates an empty session registry
func NewGameServer(cfg config.Config, provider interfaces.DecisionProvider, logger *zap.Logger) *GameServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameServer{
		sessions:    make(map[string]*GameSession),
		connections: make(map[string]connectionRef),
		cfg:         cfg,
		provider:    provider,
		logger:      logger,
	}
}

// CreateSession registers a new session and returns its id
func (gs *GameServer) CreateSession(maxPlayers int, gameDuration float64) string {
	sessionID := uuid.New().String()[:8]
	session := NewGameSession(sessionID, maxPlayers, gameDuration, gs.cfg, gs.provider)
	session.Engine().SetLogger(gs.logger)

	gs.mu.Lock()
	gs.sessions[sessionID] = session
	gs.mu.Unlock()

	gs.logger.Info("Session created",
		zap.String("session_id", sessionID),
		zap.Int("max_players", session.MaxPlayers),
		zap.Float64("duration", gameDuration))

	return sessionID
}

// Session looks up a session by id
func (gs *GameServer) Session(sessionID string) (*GameSession, bool) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	session, ok := gs.sessions[sessionID]
	return session, ok
}

// ListSessions summarizes every session
func (gs *GameServer) ListSessions() []types.SessionInfo {
	gs.mu.RLock()
	sessions := make([]*GameSession, 0, len(gs.sessions))
	for _, session := range gs.sessions {
		sessions = append(sessions, session)
	}
	gs.mu.RUnlock()

	infos := make([]types.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	return infos
}

// JoinSession adds a player to a session and registers their connection
func (gs *GameServer) JoinSession(sessionID, connectionID, playerName string) (string, error) {
	session, ok := gs.Session(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}

	playerID, err := session.AddPlayer(connectionID, playerName)
	if err != nil {
		return "", err
	}

	gs.mu.Lock()
	gs.connections[connectionID] = connectionRef{sessionID: sessionID, playerID: playerID}
	gs.mu.Unlock()

	gs.logger.Info("Player joined session",
		zap.String("session_id", sessionID),
		zap.String("player_id", playerID),
		zap.String("name", playerName))

	return playerID, nil
}

// StartSession begins a session's match
func (gs *GameServer) StartSession(sessionID string) error {
	session, ok := gs.Session(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if err := session.StartGame(); err != nil {
		return err
	}

	gs.logger.Info("Session started", zap.String("session_id", sessionID))
	return nil
}

// ProcessAction routes an inbound action to the owning session's engine.
// Failures come back as structured results, never as panics.
func (gs *GameServer) ProcessAction(ctx context.Context, connectionID string, req types.ActionRequest) types.ActionResult {
	gs.mu.RLock()
	ref, ok := gs.connections[connectionID]
	gs.mu.RUnlock()
	if !ok {
		return types.ActionResult{Error: ErrConnectionNotRegistered.Error()}
	}

	session, found := gs.Session(ref.sessionID)
	if !found {
		return types.ActionResult{Error: ErrSessionNotFound.Error()}
	}

	action, err := types.ParseActionKind(req.Action)
	if err != nil {
		return types.ActionResult{Error: err.Error()}
	}

	message, err := session.Engine().ProcessPlayerAction(ctx, ref.playerID, action, req.InfoID, req.TargetFaction)
	if err != nil {
		return types.ActionResult{Error: err.Error()}
	}

	view, err := session.PlayerView(ref.playerID)
	if err != nil {
		return types.ActionResult{Error: err.Error()}
	}

	return types.ActionResult{Success: true, Message: message, GameState: view}
}

// ProcessRound advances one session by a round
func (gs *GameServer) ProcessRound(ctx context.Context, sessionID string) ([]string, error) {
	session, ok := gs.Session(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !session.Started() {
		return nil, ErrSessionNotStarted
	}
	return session.Engine().ProcessRound(ctx), nil
}

// SessionState returns a session's state, scoped to a player when one is
// given
func (gs *GameServer) SessionState(sessionID, playerID string) (*types.GameStateView, error) {
	session, ok := gs.Session(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if playerID != "" {
		return session.PlayerView(playerID)
	}
	return session.Engine().GameState(), nil
}

// CheckGameOver reports whether a session's match has ended and, if so, the
// final results
func (gs *GameServer) CheckGameOver(sessionID string) (*types.GameOverResult, error) {
	session, ok := gs.Session(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	engine := session.Engine()
	if !session.Started() || !engine.IsGameOver() {
		return &types.GameOverResult{GameOver: false}, nil
	}

	result := &types.GameOverResult{
		GameOver:   true,
		FinalState: engine.GameState(),
	}

	if winner, ok := engine.Winner(); ok {
		result.WinnerID = winner.ID
		result.WinnerName = winner.Name
		result.WinnerInfluence = winner.Influence
	}

	return result, nil
}

// MatchNarrative returns the post-match story for a session
func (gs *GameServer) MatchNarrative(ctx context.Context, sessionID string) (*types.MatchNarrative, error) {
	session, ok := gs.Session(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Engine().MatchNarrative(ctx), nil
}

// TruthReveal returns the end-of-match reveal for a session
func (gs *GameServer) TruthReveal(ctx context.Context, sessionID string) (string, error) {
	session, ok := gs.Session(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	return session.Engine().TruthReveal(ctx), nil
}

package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/user/lastsignal/config"
	"github.com/user/lastsignal/internal/game"
	"github.com/user/lastsignal/internal/interfaces"
	"github.com/user/lastsignal/internal/types"
)

var (
	// ErrSessionStarted is returned when joining or restarting a running session
	ErrSessionStarted = errors.New("session already started")

	// ErrSessionFull is returned when a session has reached its player cap
	ErrSessionFull = errors.New("session is full")

	// ErrNoPlayers is returned when starting a session nobody has joined
	ErrNoPlayers = errors.New("session has no players")
)

// GameSession is one isolated match: a single engine plus the mapping from
// players to their connections
type GameSession struct {
	SessionID  string
	MaxPlayers int

	mu                sync.RWMutex
	engine            *game.GameEngine
	playerConnections map[string]string // player_id -> connection_id
	started           bool
	archived          bool
}

// NewGameSession creates a session wrapping a fresh engine
func NewGameSession(sessionID string, maxPlayers int, gameDuration float64, cfg config.Config, provider interfaces.DecisionProvider) *GameSession {
	if maxPlayers <= 0 {
		maxPlayers = cfg.Game.DefaultMaxPlayers
	}
	return &GameSession{
		SessionID:         sessionID,
		MaxPlayers:        maxPlayers,
		engine:            game.NewGameEngine(cfg, gameDuration, provider),
		playerConnections: make(map[string]string),
	}
}

// Engine exposes the session's game engine
func (s *GameSession) Engine() *game.GameEngine {
	return s.engine
}

// CanJoin reports whether the session accepts new players
func (s *GameSession) CanJoin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canJoinLocked()
}

func (s *GameSession) canJoinLocked() bool {
	return len(s.playerConnections) < s.MaxPlayers && !s.started
}

// AddPlayer joins a connection to the session and returns the new player id
func (s *GameSession) AddPlayer(connectionID, playerName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return "", ErrSessionStarted
	}
	if len(s.playerConnections) >= s.MaxPlayers {
		return "", ErrSessionFull
	}

	playerID := uuid.New().String()
	s.playerConnections[playerID] = connectionID
	s.engine.AddPlayer(playerID, playerName)
	return playerID, nil
}

// StartGame initializes the engine. Starting twice fails, as does starting
// with no joined players.
func (s *GameSession) StartGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSessionStarted
	}
	if len(s.playerConnections) < 1 {
		return ErrNoPlayers
	}

	s.engine.InitializeGame()
	s.started = true
	return nil
}

// Started reports whether the match has begun
func (s *GameSession) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// PlayerCount returns the number of joined players
func (s *GameSession) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.playerConnections)
}

// Info summarizes the session for listings
func (s *GameSession) Info() types.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.SessionInfo{
		SessionID:  s.SessionID,
		Players:    len(s.playerConnections),
		MaxPlayers: s.MaxPlayers,
		Started:    s.started,
		CanJoin:    s.canJoinLocked(),
	}
}

// PlayerView returns the game state from one player's perspective
func (s *GameSession) PlayerView(playerID string) (*types.GameStateView, error) {
	return s.engine.PlayerView(playerID)
}

// markArchived flips the archived flag, returning true exactly once
func (s *GameSession) markArchived() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archived {
		return false
	}
	s.archived = true
	return true
}

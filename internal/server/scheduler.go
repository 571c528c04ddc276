package server

import (
	"context"
	"time"

	"github.com/user/lastsignal/internal/game"
	"go.uber.org/zap"
)

// RoundScheduler advances rounds for started sessions on a fixed interval
// and archives each match once it ends
type RoundScheduler struct {
	registry *GameServer
	archive  *game.MatchArchive
	ticker   *time.Ticker
	stopChan chan struct{}
	logger   *zap.Logger
}

// NewRoundScheduler creates a scheduler. The archive may be nil, in which
// case finished matches are only logged.
func NewRoundScheduler(registry *GameServer, archive *game.MatchArchive, interval time.Duration, logger *zap.Logger) *RoundScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoundScheduler{
		registry: registry,
		archive:  archive,
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
		logger:   logger,
	}
}

// Start begins round advancement
func (rs *RoundScheduler) Start() {
	go func() {
		for {
			select {
			case <-rs.ticker.C:
				rs.advanceSessions()
			case <-rs.stopChan:
				rs.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts round advancement
func (rs *RoundScheduler) Stop() {
	close(rs.stopChan)
}

// advanceSessions processes one round for each running session and archives
// the ones that finished
func (rs *RoundScheduler) advanceSessions() {
	ctx := context.Background()

	for _, info := range rs.registry.ListSessions() {
		if !info.Started {
			continue
		}

		session, ok := rs.registry.Session(info.SessionID)
		if !ok {
			continue
		}

		if session.Engine().IsGameOver() {
			rs.archiveMatch(ctx, session)
			continue
		}

		events := session.Engine().ProcessRound(ctx)
		rs.logger.Info("Round processed",
			zap.String("session_id", info.SessionID),
			zap.Int("events", len(events)))
	}
}

// archiveMatch records a finished match exactly once per session
func (rs *RoundScheduler) archiveMatch(ctx context.Context, session *GameSession) {
	if !session.markArchived() {
		return
	}

	engine := session.Engine()
	state := engine.GameState()
	narrative := engine.MatchNarrative(ctx)

	winnerName := "Unknown"
	var winnerID string
	var winnerInfluence float64
	if winner, ok := engine.Winner(); ok {
		winnerID = winner.ID
		winnerName = winner.Name
		winnerInfluence = winner.Influence
	}

	rs.logger.Info("Match finished",
		zap.String("session_id", session.SessionID),
		zap.String("winner", winnerName),
		zap.Float64("influence", winnerInfluence))

	if rs.archive == nil {
		return
	}

	err := rs.archive.SaveMatch(game.MatchRecord{
		SessionID:       session.SessionID,
		WinnerID:        winnerID,
		WinnerName:      winnerName,
		WinnerInfluence: winnerInfluence,
		Rounds:          state.Round,
		EventCount:      len(engine.EventsLog()),
		Narrative:       narrative.FullText,
		FinishedAt:      time.Now(),
	})
	if err != nil {
		rs.logger.Error("Failed to archive match",
			zap.String("session_id", session.SessionID),
			zap.Error(err))
	}
}

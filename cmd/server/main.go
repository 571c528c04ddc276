package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/lastsignal/config"
	"github.com/user/lastsignal/internal/ai"
	"github.com/user/lastsignal/internal/game"
	"github.com/user/lastsignal/internal/server"
	"github.com/user/lastsignal/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Set up logger
	logger := setupLogger()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Construct the decision provider once and inject it everywhere
	provider := ai.NewProvider(cfg.AI, logger)

	// Open the match archive
	archive, err := game.NewMatchArchive(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open match archive", zap.Error(err))
	}
	defer archive.Close()

	// Initialize the session registry
	registry := server.NewGameServer(cfg, provider, logger)

	// Invite QR codes
	invites := server.NewInviteManager(cfg.Server.BaseURL, logger)

	// Automatic round advancement, when configured
	if cfg.Game.RoundIntervalSeconds > 0 {
		scheduler := server.NewRoundScheduler(registry, archive,
			time.Duration(cfg.Game.RoundIntervalSeconds)*time.Second, logger)
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Set up HTTP server
	httpServer := setupHTTPServer(cfg, registry, invites, archive, logger)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(logger)
}

func setupLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

func setupHTTPServer(cfg config.Config, registry *server.GameServer, invites *server.InviteManager, archive *game.MatchArchive, logger *zap.Logger) *http.Server {
	// Create router
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "LastSignal Game Server",
		})
	})

	// List available game sessions
	router.Get("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sessions": registry.ListSessions(),
		})
	})

	// Create a new game session
	router.Post("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MaxPlayers   int     `json:"max_players"`
			GameDuration float64 `json:"game_duration"`
		}
		// An empty body creates a session with the configured defaults
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sessionID := registry.CreateSession(req.MaxPlayers, req.GameDuration)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session_id": sessionID,
			"success":    true,
		})
	})

	// Join a game session
	router.Post("/api/sessions/{session_id}/join", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		var req struct {
			PlayerName   string `json:"player_name"`
			ConnectionID string `json:"connection_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PlayerName == "" {
			req.PlayerName = "Anonymous"
		}
		if req.ConnectionID == "" {
			writeError(w, http.StatusBadRequest, "connection_id required")
			return
		}

		playerID, err := registry.JoinSession(sessionID, req.ConnectionID, req.PlayerName)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"player_id":  playerID,
			"session_id": sessionID,
		})
	})

	// Start a game session
	router.Post("/api/sessions/{session_id}/start", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		if err := registry.StartSession(sessionID); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	// Get current state of a session
	router.Get("/api/sessions/{session_id}/state", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		playerID := r.URL.Query().Get("player_id")

		state, err := registry.SessionState(sessionID, playerID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, state)
	})

	// Process a player action
	router.Post("/api/sessions/{session_id}/action", func(w http.ResponseWriter, r *http.Request) {
		var req types.ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ConnectionID == "" {
			writeError(w, http.StatusBadRequest, "connection_id required")
			return
		}

		result := registry.ProcessAction(r.Context(), req.ConnectionID, req)
		writeJSON(w, http.StatusOK, result)
	})

	// Process a round for the session
	router.Post("/api/sessions/{session_id}/round", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		events, err := registry.ProcessRound(r.Context(), sessionID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"events": events})
	})

	// Check if game is over and get results
	router.Get("/api/sessions/{session_id}/status", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		result, err := registry.CheckGameOver(sessionID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	// Post-match narrative
	router.Get("/api/sessions/{session_id}/narrative", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		narrative, err := registry.MatchNarrative(r.Context(), sessionID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, narrative)
	})

	// End-of-match truth reveal
	router.Get("/api/sessions/{session_id}/reveal", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		reveal, err := registry.TruthReveal(r.Context(), sessionID)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reveal": reveal})
	})

	// Session invite QR code
	router.Get("/api/sessions/{session_id}/qr", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		if _, ok := registry.Session(sessionID); !ok {
			writeError(w, http.StatusNotFound, server.ErrSessionNotFound.Error())
			return
		}

		png, err := invites.GenerateJoinQR(sessionID)
		if err != nil {
			logger.Error("Failed to generate invite QR",
				zap.String("session_id", sessionID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to generate QR code")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// Finished matches
	router.Get("/api/matches", func(w http.ResponseWriter, r *http.Request) {
		matches, err := archive.ListMatches(20)
		if err != nil {
			logger.Error("Failed to list matches", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list matches")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
	})

	// Create HTTP server
	return &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
}

// statusFor maps registry errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, server.ErrSessionNotFound),
		errors.Is(err, game.ErrPlayerNotFound),
		errors.Is(err, game.ErrFragmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, server.ErrSessionStarted),
		errors.Is(err, server.ErrSessionFull),
		errors.Is(err, server.ErrNoPlayers),
		errors.Is(err, server.ErrSessionNotStarted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func waitForShutdown(logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	logger.Info("Shutting down")
}

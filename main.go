package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hanabi-server/api"
	"hanabi-server/auth"
	"hanabi-server/config"
	"hanabi-server/lobby"
	"hanabi-server/loghandler"
	"hanabi-server/storage"
	"hanabi-server/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	storeTimeout    = 5 * time.Second
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, cfg.SlogLevel())))
	if envErr != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open result store: %w", err)
	}
	if results == nil {
		slog.Info("DATABASE_URL is not set; finished games are not recorded", "tag", "main")
	} else {
		defer results.Close()
	}

	verifier, err := auth.NewVerifier(cfg)
	if err != nil {
		return fmt.Errorf("identity verifier: %w", err)
	}
	if !verifier.Signed() {
		slog.Warn("IDENTITY_SECRET and AUTH_JWKS_URL are not set; trusting raw identity cookies", "tag", "main")
	}

	registry := lobby.NewRegistry(ctx, cfg.LobbyIDLength)
	if results != nil {
		registry.OnGameOver = recordResult(results)
	}

	hub := ws.NewHub(cfg, registry, verifier)
	handler := api.NewHandler(cfg, registry, verifier, results)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WSPort),
		Handler:           routes(hub, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("configuration loaded", "tag", "main",
		"port", cfg.WSPort, "lobby_id_length", cfg.LobbyIDLength, "max_name_length", cfg.MaxNameLength,
		"history", results != nil, "log_level", cfg.LogLevel)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("Hanabi server listening", "tag", "main", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "tag", "main")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	registry.Wait()
	return err
}

func routes(hub *ws.Hub, handler *api.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lobby", handler.CreateLobby)
	mux.HandleFunc("/api/results", handler.ListResults)
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /ws/{id}", hub.ServeWS)
	return mux
}

// recordResult returns a game-over callback that stores results without
// blocking the lobby loop.
func recordResult(store storage.ResultStore) func(lobby.Result) {
	return func(r lobby.Result) {
		rec := storage.GameResult{
			LobbyID:    r.LobbyID,
			Players:    r.Players,
			Score:      r.Score,
			Reason:     r.Reason,
			Turns:      r.Turns,
			LivesLeft:  r.LivesLeft,
			FinishedAt: r.FinishedAt,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := store.InsertGameResult(ctx, rec); err != nil {
				slog.Error("storing game result", "tag", "main", "lobby", rec.LobbyID, "err", err)
				return
			}
			slog.Info("game result stored", "tag", "main", "lobby", rec.LobbyID, "score", rec.Score)
		}()
	}
}

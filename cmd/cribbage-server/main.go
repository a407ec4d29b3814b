// Command cribbage-server serves the analysis and history API, local games
// against CPU players and the websocket relay for two-peer games.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cribbage/internal/analysis"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/history"
	"cribbage/internal/httpapi"
	"cribbage/internal/logging"
	"cribbage/internal/ports"
	"cribbage/internal/snapshot"
	"cribbage/internal/table"

	_ "github.com/joho/godotenv/autoload"
)

const (
	botIdentitiesPath = "data/bot_identities.json"
	shutdownTimeout   = 5 * time.Second
)

func main() {
	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("failed to load server config", "err", err)
		os.Exit(1)
	}
	logger := logging.New(serverCfg.LogLevel, serverCfg.LogFormat)
	slog.SetDefault(logger)

	if err := config.LoadGameConfig(serverCfg.GameConfigPath); err != nil {
		logger.Warn("using default game config", "path", serverCfg.GameConfigPath, "err", err)
	}
	gameCfg := config.GetGameConfig()
	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Warn("using generated bot identities", "path", botIdentitiesPath, "err", err)
	}

	store := openHistory(serverCfg, logger)
	defer store.Close()

	analyzer := analysis.NewConfiguredAnalyzer(nil)

	var signer *snapshot.Signer
	if serverCfg.SnapshotSecret != "" {
		signer = snapshot.NewSigner(serverCfg.SnapshotSecret, "")
	}

	srv := httpapi.NewServer(httpapi.Options{
		Analyzer: analyzer,
		History:  store,
		Games:    httpapi.NewGames(gameCfg, table.DefaultScheduler, signer, logger),
		Relay:    httpapi.NewRelay(logger),
		Logger:   logger,
	})
	httpServer := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("cribbage server listening", "addr", serverCfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("cribbage server stopped")
}

// openHistory opens the configured database, falling back to memory.
func openHistory(cfg config.ServerConfig, logger *slog.Logger) ports.HistoryStore {
	if cfg.DBDSN == "" {
		return history.NewMemoryStore()
	}
	store, err := history.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Warn("history database unavailable, keeping records in memory", "driver", cfg.DBDriver, "err", err)
		return history.NewMemoryStore()
	}
	return store
}

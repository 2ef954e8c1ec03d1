// Command worker runs the background decay sweep: periodically recomputing
// every workspace's memory relevance scores and writing back any that changed.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"memento/internal/config"
	"memento/internal/crypto"
	"memento/internal/decay"
	"memento/internal/store/control"
	"memento/internal/workspacemgr"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	controlStore, err := control.Open(ctx, cfg.ControlDBURL)
	if err != nil {
		logger.Fatal("failed to open control store", zap.Error(err))
	}

	masterKey := crypto.MasterKeyFromConfig(cfg.MasterKeySource, cfg.MasterKeyB64, logger)
	keyCache, err := crypto.NewKeyCache(1024)
	if err != nil {
		logger.Fatal("failed to initialize workspace key cache", zap.Error(err))
	}
	wsmgr := workspacemgr.New(controlStore, keyCache, masterKey, logger)

	ticker := time.NewTicker(cfg.DecayInterval)
	defer ticker.Stop()

	logger.Info("starting memento decay worker", zap.Duration("interval", cfg.DecayInterval))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	runSweep(ctx, controlStore, wsmgr, logger)
	for {
		select {
		case <-ticker.C:
			runSweep(ctx, controlStore, wsmgr, logger)
		case <-sigChan:
			logger.Info("decay worker shutting down")
			return
		}
	}
}

func runSweep(ctx context.Context, controlStore *control.Store, wsmgr *workspacemgr.Manager, logger *zap.Logger) {
	workspaces, err := controlStore.AllWorkspaces(ctx)
	if err != nil {
		logger.Error("decay: failed to list workspaces", zap.Error(err))
		return
	}

	start := time.Now()
	var touched int
	for i := range workspaces {
		handle, err := wsmgr.Open(ctx, &workspaces[i])
		if err != nil {
			logger.Error("decay: failed to open workspace", zap.String("workspace_id", workspaces[i].ID), zap.Error(err))
			continue
		}
		n, err := decay.NewService(handle.Store).Sweep(ctx)
		if err != nil {
			logger.Error("decay: sweep failed", zap.String("workspace_id", workspaces[i].ID), zap.Error(err))
			continue
		}
		touched += n
	}

	logger.Info("decay sweep complete",
		zap.Int("workspaces", len(workspaces)),
		zap.Int("memories_updated", touched),
		zap.Duration("duration", time.Since(start)),
	)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

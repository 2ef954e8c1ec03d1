package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"memento/internal/auth"
	"memento/internal/blob"
	"memento/internal/config"
	"memento/internal/crypto"
	"memento/internal/httpapi"
	"memento/internal/llm"
	"memento/internal/store/control"
	"memento/internal/store/sqlstore"
	"memento/internal/vector"
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
	resolver := auth.NewResolver(controlStore, wsmgr)
	blobStore := blob.New(cfg.BlobDir)

	vectorBackend := buildVectorBackend(ctx, cfg, logger)
	llmClient := buildLLMClient(cfg, logger)

	server := httpapi.NewServer(controlStore, wsmgr, resolver, blobStore, vectorBackend, llmClient, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting memento api server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	log.Println("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func buildVectorBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) vector.Backend {
	if !cfg.EnableVectorBackend {
		return vector.Noop{}
	}
	db, _, err := sqlstore.Open(cfg.VectorDBURL)
	if err != nil {
		logger.Error("failed to open vector backend, falling back to keyword-only ranking", zap.Error(err))
		return vector.Noop{}
	}
	idx, err := vector.NewPGIndex(ctx, db)
	if err != nil {
		logger.Error("failed to initialize pgvector index, falling back to keyword-only ranking", zap.Error(err))
		return vector.Noop{}
	}
	return vector.NewBreakerBackend(idx)
}

func buildLLMClient(cfg *config.Config, logger *zap.Logger) llm.Client {
	if !cfg.EnableLLM {
		return llm.Noop{}
	}
	logger.Warn("ENABLE_LLM is set but no LLM backend is wired; consolidation and distillation will use template fallback")
	return llm.NewBreakerClient(llm.Noop{})
}

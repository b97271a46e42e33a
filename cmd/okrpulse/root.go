package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/okrpulse/internal/api"
	"github.com/hyperengineering/okrpulse/internal/config"
	"github.com/hyperengineering/okrpulse/internal/drafting"
	"github.com/hyperengineering/okrpulse/internal/metrics"
	"github.com/hyperengineering/okrpulse/internal/snapshot"
	"github.com/hyperengineering/okrpulse/internal/store"
	"github.com/hyperengineering/okrpulse/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "okrpulse",
	Short:        "OKR Pulse - bi-monthly OKR tracking service",
	SilenceUsage: true,
	Version:      Version,
	RunE:         run,
}

func init() {
	rootCmd.AddCommand(departmentCmd)
	rootCmd.AddCommand(trendCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	slog.SetDefault(newLogger(cfg.Log, os.Stdout))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := store.NewSQLiteStore(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	drafter, err := newDrafter(cfg.AI)
	if err != nil {
		db.Close()
		return err
	}
	slog.Info("drafter initialized", "model", drafter.ModelName())

	m := metrics.New()

	uploader, err := snapshot.NewUploader(cfg.Backup)
	if err != nil {
		db.Close()
		return fmt.Errorf("create backup uploader: %w", err)
	}

	handler := api.NewHandler(db, drafter, api.Options{
		APIKey:        cfg.Auth.APIKey,
		Version:       Version,
		MinObjectives: cfg.OKR.MinObjectives,
		Metrics:       m,
		RateLimit: api.RateLimitConfig{
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
			Burst:             cfg.AI.Burst,
		},
	})
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	if interval := time.Duration(cfg.Worker.BackupInterval); interval > 0 {
		backups := worker.NewBackupWorker(db, uploader, m, backupDir(cfg.Database.Path), interval)
		startWorker(ctx, &wg, "backup", backups.Run)
	} else {
		slog.Info("backup worker disabled")
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// Drain in-flight requests, then let workers finish, then close the store.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newDrafter returns the OpenAI drafter, or a no-op one when no key is set.
func newDrafter(cfg config.AIConfig) (drafting.Drafter, error) {
	if cfg.APIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, AI drafting disabled")
		return drafting.NoopDrafter{}, nil
	}
	d, err := drafting.NewOpenAI(drafting.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		CacheSize: cfg.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create drafter: %w", err)
	}
	return d, nil
}

// backupDir places snapshots next to the database file.
func backupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}

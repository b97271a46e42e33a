// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hyperengineering/okrpulse/internal/snapshot"
)

// BackupStore is the store surface the backup worker needs.
type BackupStore interface {
	GenerateSnapshot(ctx context.Context, path string) error
	RecordBackup(ctx context.Context, at time.Time) error
}

// BackupRecorder counts backup outcomes. *metrics.Metrics satisfies it.
type BackupRecorder interface {
	BackupCompleted(outcome string)
}

// BackupWorker writes a consistent copy of the database on an interval and
// ships it to object storage when an uploader is configured.
type BackupWorker struct {
	store    BackupStore
	uploader snapshot.Uploader
	recorder BackupRecorder
	dir      string
	interval time.Duration
	now      func() time.Time
}

// NewBackupWorker creates a worker that writes snapshots into dir.
// uploader and recorder may be nil.
func NewBackupWorker(store BackupStore, uploader snapshot.Uploader, recorder BackupRecorder, dir string, interval time.Duration) *BackupWorker {
	if uploader == nil {
		uploader = &snapshot.NoopUploader{}
	}
	return &BackupWorker{
		store:    store,
		uploader: uploader,
		recorder: recorder,
		dir:      dir,
		interval: interval,
		now:      time.Now,
	}
}

// SnapshotPath is where the latest local snapshot is written.
func (w *BackupWorker) SnapshotPath() string {
	return filepath.Join(w.dir, "okrpulse-latest.db")
}

// Run backs up immediately, then on every tick until ctx is cancelled.
// A backup already in progress runs to completion.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single backup and reports whether it succeeded.
// Upload failures are logged but the local snapshot still counts.
func (w *BackupWorker) RunOnce(ctx context.Context) bool {
	takenAt := w.now().UTC()
	path := w.SnapshotPath()

	if err := w.store.GenerateSnapshot(ctx, path); err != nil {
		if ctx.Err() != nil {
			return false
		}
		slog.Warn("backup snapshot failed",
			"component", "worker",
			"action", "backup_failed",
			"error", err,
		)
		w.record("error")
		return false
	}

	outcome := "local"
	key, err := w.uploader.Upload(ctx, path, takenAt)
	switch {
	case err == nil:
		outcome = "uploaded"
		slog.Info("backup uploaded",
			"component", "worker",
			"action", "backup_uploaded",
			"key", key,
		)
	case errors.Is(err, snapshot.ErrNotConfigured):
	default:
		slog.Warn("backup upload failed",
			"component", "worker",
			"action", "backup_upload_failed",
			"error", err,
		)
	}

	if err := w.store.RecordBackup(ctx, takenAt); err != nil {
		slog.Warn("recording backup time failed",
			"component", "worker",
			"error", err,
		)
	}
	w.record(outcome)

	slog.Info("backup completed",
		"component", "worker",
		"action", "backup_complete",
		"path", path,
		"outcome", outcome,
	)
	return true
}

func (w *BackupWorker) record(outcome string) {
	if w.recorder != nil {
		w.recorder.BackupCompleted(outcome)
	}
}

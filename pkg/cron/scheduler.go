// Package cron runs scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/thequantifier/quantifier/pkg/storage"
)

// orphanGrace keeps just-uploaded files out of the sweep while their
// receipt row is still being written.
const orphanGrace = 24 * time.Hour

// ReceiptSource reports which stored files are still referenced by a
// receipt row. Implemented by the receipts repository.
type ReceiptSource interface {
	StoredFileIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Scheduler manages background jobs. Its only job today is the nightly
// sweep that deletes stored files whose receipt row is gone.
type Scheduler struct {
	cron     *cron.Cron
	store    storage.Store
	receipts ReceiptSource
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a scheduler with a standard 5-field cron schedule.
func NewScheduler(store storage.Store, receipts ReceiptSource, schedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		store:    store,
		receipts: receipts,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers and begins the scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweepOrphanedFiles)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the orphan sweep (for admin use).
func (s *Scheduler) RunNow() {
	go s.sweepOrphanedFiles()
}

// sweepOrphanedFiles deletes stored files that no receipt references.
// Files younger than the grace period are left alone.
func (s *Scheduler) sweepOrphanedFiles() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting orphaned file sweep")

	users, err := s.store.Users(ctx)
	if err != nil {
		s.logger.Error("failed to list storage users", slog.Any("error", err))
		return
	}

	removed := 0
	failed := 0
	cutoff := time.Now().Add(-orphanGrace)

	for _, userID := range users {
		referenced, err := s.receipts.StoredFileIDs(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to list receipt files",
				slog.String("user_id", userID.String()),
				slog.Any("error", err),
			)
			failed++
			continue
		}

		refs := make(map[uuid.UUID]struct{}, len(referenced))
		for _, id := range referenced {
			refs[id] = struct{}{}
		}

		files, err := s.store.List(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to list stored files",
				slog.String("user_id", userID.String()),
				slog.Any("error", err),
			)
			failed++
			continue
		}

		for _, f := range files {
			if _, ok := refs[f.ID]; ok {
				continue
			}
			if f.CreatedAt.After(cutoff) {
				continue
			}
			if err := s.store.Delete(ctx, userID, f.ID); err != nil {
				s.logger.Warn("failed to delete orphaned file",
					slog.String("user_id", userID.String()),
					slog.String("file_id", f.ID.String()),
					slog.Any("error", err),
				)
				failed++
				continue
			}
			s.logger.Debug("deleted orphaned file",
				slog.String("user_id", userID.String()),
				slog.String("file_id", f.ID.String()),
				slog.String("name", f.Name),
			)
			removed++
		}
	}

	s.logger.Info("orphaned file sweep completed",
		slog.Int("files_removed", removed),
		slog.Int("failures", failed),
	)
}

package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/settings"
)

// Scheduler triggers passes every auto_sync_interval minutes. The interval
// is re-read after every tick, so changes take effect without a restart.
type Scheduler struct {
	syncer   *Syncer
	settings *settings.Store
	timeout  time.Duration
	// idle is how often a disabled schedule is re-checked.
	idle   time.Duration
	logger *slog.Logger
}

// NewScheduler creates a scheduler. timeout bounds each pass; zero means no bound.
func NewScheduler(s *Syncer, store *settings.Store, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{syncer: s, settings: store, timeout: timeout, idle: time.Minute, logger: logger}
}

// Run blocks until ctx is cancelled.
func (sc *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(sc.next())
	defer timer.Stop()

	sc.logger.Info("scheduler: started")
	for {
		select {
		case <-ctx.Done():
			sc.logger.Info("scheduler: stopped")
			return nil
		case <-timer.C:
			if sc.settings.Get().AutoSyncEvery() > 0 {
				sc.tick(ctx)
			}
			timer.Reset(sc.next())
		}
	}
}

func (sc *Scheduler) next() time.Duration {
	if every := sc.settings.Get().AutoSyncEvery(); every > 0 {
		return every
	}
	return sc.idle
}

func (sc *Scheduler) tick(ctx context.Context) {
	if sc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.timeout)
		defer cancel()
	}
	res, err := sc.syncer.TrySyncAll(ctx)
	switch {
	case errors.Is(err, apperr.ErrSyncInProgress):
		sc.logger.Debug("scheduler: pass already running, tick ignored")
	case err != nil:
		sc.logger.Warn("scheduler: pass failed", slog.String("error", err.Error()))
	default:
		sc.logger.Debug("scheduler: pass done", slog.Int("synced", res.SyncedCount))
	}
}

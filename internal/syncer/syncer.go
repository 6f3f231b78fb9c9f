// Package syncer pulls documents from Granola and writes them into the vault.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/checksum"
	"github.com/starford/granola-sync/internal/index"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/placeholder"
	"github.com/starford/granola-sync/internal/settings"
	"github.com/starford/granola-sync/internal/sse"
	"github.com/starford/granola-sync/internal/storage"
)

// TokenSource resolves the bearer token stored at path.
type TokenSource interface {
	Token(path string) (string, error)
}

// DocumentFetcher lists the most recent documents.
type DocumentFetcher interface {
	FetchDocuments(ctx context.Context, token string, limit int) ([]models.Document, error)
}

// Committer records vault changes, e.g. as a git commit.
type Committer interface {
	Commit(message string) error
}

// Publisher broadcasts progress to connected clients.
type Publisher interface {
	Publish(event sse.Event)
	PublishNoteEvent(kind, path string)
}

// Status is a snapshot of the service state.
type Status struct {
	Running    bool      `json:"running"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	LastResult *Result   `json:"last_result,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Deps are the collaborators of a Syncer. Ledger, Committer and Publisher are optional.
type Deps struct {
	Settings  *settings.Store
	Store     storage.Provider
	Tokens    TokenSource
	Fetcher   DocumentFetcher
	Ledger    index.Ledger
	Committer Committer
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// Syncer runs sync passes. At most one pass (or directory move) is active
// at a time; concurrent SyncAll callers share the running pass.
type Syncer struct {
	deps   Deps
	logger *slog.Logger

	group   singleflight.Group
	passMu  sync.Mutex
	running atomic.Bool

	statusMu sync.RWMutex
	status   Status
}

// New creates a Syncer.
func New(deps Deps) *Syncer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Syncer{deps: deps, logger: logger}
}

// SyncAll runs a pass, or waits for the one already running and returns its
// outcome. Cancelling ctx stops the wait but not the pass.
func (s *Syncer) SyncAll(ctx context.Context) (Result, error) {
	return s.share(ctx, context.WithoutCancel(ctx))
}

// TrySyncAll is SyncAll for callers that must not pile up behind a
// running pass, such as the scheduler. The pass runs under ctx, so its
// deadline bounds the pass.
func (s *Syncer) TrySyncAll(ctx context.Context) (Result, error) {
	if s.running.Load() {
		return Result{}, apperr.ErrSyncInProgress
	}
	return s.share(ctx, ctx)
}

// share starts a pass under passCtx, or joins the one in flight, and waits
// for it until wait is done. A caller that stops waiting leaves the pass
// running for the others.
func (s *Syncer) share(wait, passCtx context.Context) (Result, error) {
	ch := s.group.DoChan("sync", func() (any, error) {
		return s.run(passCtx)
	})
	select {
	case r := <-ch:
		res, _ := r.Val.(Result)
		return res, r.Err
	case <-wait.Done():
		return Result{}, wait.Err()
	}
}

// Status returns the latest pass outcome.
func (s *Syncer) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st := s.status
	st.Running = s.running.Load()
	return st
}

func (s *Syncer) run(ctx context.Context) (Result, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	cfg := s.deps.Settings.Get()
	runID := s.startRun()
	logger := s.logger.With(slog.String("run_id", runID))
	logger.Info("sync: pass started", slog.Int("limit", cfg.Limit()))
	s.publish(sse.EventSyncStarted, map[string]any{"run_id": runID})

	res, err := s.pass(ctx, cfg, logger)
	s.finishRun(runID, res, err)
	s.setStatus(res, err)

	if err != nil {
		logger.Error("sync: pass failed", slog.String("error", err.Error()))
		s.publish(sse.EventSyncFailed, map[string]any{"run_id": runID, "error": err.Error()})
		return Result{}, err
	}

	if res.SyncedCount > 0 && s.deps.Committer != nil {
		msg := fmt.Sprintf("Sync %d note(s) from Granola", res.SyncedCount)
		if cerr := s.deps.Committer.Commit(msg); cerr != nil {
			logger.Warn("sync: commit failed", slog.String("error", cerr.Error()))
		}
	}

	logger.Info("sync: pass finished",
		slog.Int("synced", res.SyncedCount),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))
	s.publish(sse.EventSyncCompleted, map[string]any{"run_id": runID, "result": res})
	return res, nil
}

func (s *Syncer) pass(ctx context.Context, cfg settings.Settings, logger *slog.Logger) (Result, error) {
	token, err := s.deps.Tokens.Token(cfg.CredentialsPath())
	if err != nil {
		if !errors.Is(err, apperr.ErrNoToken) {
			err = fmt.Errorf("%w: %v", apperr.ErrNoToken, err)
		}
		return Result{}, err
	}

	docs, err := s.deps.Fetcher.FetchDocuments(ctx, token, cfg.Limit())
	if err != nil {
		if !errors.Is(err, apperr.ErrFetch) {
			err = fmt.Errorf("%w: %v", apperr.ErrFetch, err)
		}
		return Result{}, err
	}
	logger.Debug("sync: documents fetched", slog.Int("count", len(docs)))

	exp := &placeholder.Expander{DateFormat: cfg.DateFormat, Now: s.deps.Now}
	return SyncDocuments(ctx, docs, cfg, s.deps.Store, Options{
		Logger:    logger,
		Expander:  exp,
		OnWritten: s.recordWrite(logger),
	}), nil
}

func (s *Syncer) recordWrite(logger *slog.Logger) func(WrittenNote) {
	return func(w WrittenNote) {
		if s.deps.Ledger != nil {
			content := w.Note.Content()
			row := index.DocumentRow{
				DocumentID: w.Document.ID(),
				Path:       w.Path,
				Title:      w.Note.DisplayTitle,
				Checksum:   checksum.SumString(content),
				CreatedAt:  w.Document.CreatedAt(),
				UpdatedAt:  w.Document.UpdatedAt(),
				SyncedAt:   s.deps.Now().UTC(),
			}
			if row.DocumentID == "" {
				row.DocumentID = w.Path
			}
			if err := s.deps.Ledger.UpsertDocument(row, w.Note.Body); err != nil {
				logger.Warn("sync: ledger update failed", slog.String("path", w.Path), slog.String("error", err.Error()))
			}
		}
		if s.deps.Publisher != nil {
			s.deps.Publisher.PublishNoteEvent(w.Kind, w.Path)
		}
	}
}

func (s *Syncer) startRun() string {
	if s.deps.Ledger == nil {
		return ""
	}
	id, err := s.deps.Ledger.StartRun()
	if err != nil {
		s.logger.Warn("sync: record run start failed", slog.String("error", err.Error()))
		return ""
	}
	return id
}

func (s *Syncer) finishRun(id string, res Result, passErr error) {
	if s.deps.Ledger == nil || id == "" {
		return
	}
	run := index.Run{
		Status:       index.RunSucceeded,
		SyncedCount:  res.SyncedCount,
		SkippedCount: res.Skipped,
		FailedCount:  res.Failed,
	}
	if passErr != nil {
		run.Status = index.RunFailed
		run.Error = passErr.Error()
	}
	if err := s.deps.Ledger.FinishRun(id, run); err != nil {
		s.logger.Warn("sync: record run finish failed", slog.String("error", err.Error()))
	}
}

func (s *Syncer) setStatus(res Result, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastRunAt = s.deps.Now()
	if err != nil {
		s.status.LastError = err.Error()
		s.status.LastResult = nil
		return
	}
	s.status.LastError = ""
	s.status.LastResult = &res
}

func (s *Syncer) publish(typ string, data any) {
	if s.deps.Publisher != nil {
		s.deps.Publisher.Publish(sse.Event{Type: typ, Data: data})
	}
}

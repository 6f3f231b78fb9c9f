// Package noteservice is the application layer shared by the control API
// and the MCP server: sync triggers, settings mutations and read access to
// synced notes.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/checksum"
	"github.com/starford/granola-sync/internal/index"
	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/parser"
	"github.com/starford/granola-sync/internal/render"
	"github.com/starford/granola-sync/internal/settings"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/syncer"
)

// Syncer is the part of the sync service the control surfaces drive.
type Syncer interface {
	SyncAll(ctx context.Context) (syncer.Result, error)
	Status() syncer.Status
}

// DocumentItem is one synced document in a list response.
type DocumentItem struct {
	DocumentID string    `json:"document_id"`
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Checksum   string    `json:"checksum"`
	CreatedAt  string    `json:"created_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
	SyncedAt   time.Time `json:"synced_at"`
}

// SyncStatus combines the live state with the last recorded run.
type SyncStatus struct {
	syncer.Status
	LastRun *index.Run `json:"last_run,omitempty"`
}

// Preview is a rendered document that has not been written.
type Preview struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Service coordinates the syncer, settings store, vault and ledger.
type Service struct {
	syncer   Syncer
	settings *settings.Store
	store    storage.Provider
	db       index.Ledger
}

// NewService creates a new note service.
func NewService(s Syncer, cfg *settings.Store, store storage.Provider, db index.Ledger) *Service {
	return &Service{syncer: s, settings: cfg, store: store, db: db}
}

// SyncNow runs a pass, or joins the one in progress.
func (s *Service) SyncNow(ctx context.Context) (syncer.Result, error) {
	return s.syncer.SyncAll(ctx)
}

// Status returns the current sync state.
func (s *Service) Status(_ context.Context) (SyncStatus, error) {
	st := SyncStatus{Status: s.syncer.Status()}
	run, err := s.db.LastRun()
	if err != nil {
		return st, fmt.Errorf("noteservice: status: %w", err)
	}
	st.LastRun = run
	return st, nil
}

// Runs returns recent passes, newest first.
func (s *Service) Runs(_ context.Context, limit int) ([]index.Run, error) {
	runs, err := s.db.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("noteservice: runs: %w", err)
	}
	return nonNilSlice(runs), nil
}

// Settings returns the current configuration.
func (s *Service) Settings() settings.Settings {
	return s.settings.Get()
}

// ReplaceSettings validates and stores next.
func (s *Service) ReplaceSettings(next settings.Settings) (settings.Settings, error) {
	return s.settings.Update(func(cur *settings.Settings) error {
		*cur = next.Clone()
		return nil
	})
}

// SetCustomProperty adds or updates one metadata property.
func (s *Service) SetCustomProperty(name, value string) (settings.Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return settings.Settings{}, fmt.Errorf("noteservice: property name is required")
	}
	return s.settings.Update(func(cur *settings.Settings) error {
		cur.UpsertCustomProperty(name, value)
		return nil
	})
}

// RemoveCustomProperty deletes one metadata property by name.
func (s *Service) RemoveCustomProperty(name string) (settings.Settings, error) {
	return s.settings.Update(func(cur *settings.Settings) error {
		if !cur.RemoveCustomProperty(name) {
			return fmt.Errorf("noteservice: property %q: %w", name, apperr.ErrNotFound)
		}
		return nil
	})
}

// ListDocuments returns synced documents, most recently synced first.
func (s *Service) ListDocuments(_ context.Context, limit, offset int) ([]DocumentItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("noteservice: list documents: %w", err)
	}
	items := make([]DocumentItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentItem{
			DocumentID: r.DocumentID,
			Path:       r.Path,
			Title:      r.Title,
			Checksum:   r.Checksum,
			CreatedAt:  r.CreatedAt,
			UpdatedAt:  r.UpdatedAt,
			SyncedAt:   r.SyncedAt,
		}
	}
	return items, total, nil
}

// Search runs a full-text query over synced notes.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("noteservice: search: %w", err)
	}
	return nonNilSlice(res), nil
}

// GetNote reads and parses a note from the vault.
func (s *Service) GetNote(_ context.Context, path string) (*models.Note, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("noteservice: get note: %w", err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("noteservice: get note: %w", err)
	}
	note := &models.Note{
		Path:        path,
		Body:        res.Body,
		Frontmatter: res.Frontmatter,
		Title:       res.Title,
		Links:       nonNilSlice(res.Links),
		Checksum:    checksum.Sum(data),
	}
	if res.DocumentID != "" {
		if row, err := s.db.GetDocument(res.DocumentID); err == nil && row.Path == path {
			note.EditedSinceSync = !checksum.Matches(data, row.Checksum)
		}
	}
	return note, nil
}

// Preview renders raw document JSON with the current settings.
func (s *Service) Preview(raw []byte) (*Preview, error) {
	doc, err := models.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("noteservice: preview: %w", err)
	}
	cfg := s.settings.Get()
	note := render.New(cfg, nil).Render(doc)
	return &Preview{
		Path:    syncer.NotePath(cfg.SyncDirectory, note.Filename),
		Title:   note.DisplayTitle,
		Content: note.Content(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

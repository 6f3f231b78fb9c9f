package syncer

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/granola-sync/internal/models"
	"github.com/starford/granola-sync/internal/placeholder"
	"github.com/starford/granola-sync/internal/render"
	"github.com/starford/granola-sync/internal/settings"
	"github.com/starford/granola-sync/internal/storage"
)

// Write kinds reported to Options.OnWritten. KindMoved is only published
// by MoveDirectory.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindMoved   = "moved"
)

// Result summarises one pass.
type Result struct {
	SyncedCount  int      `json:"synced_count"`
	SyncedTitles []string `json:"synced_titles"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
}

// WrittenNote describes a note that was written during a pass.
type WrittenNote struct {
	Kind     string
	Path     string
	Document models.Document
	Note     models.RenderedNote
}

// Options tune SyncDocuments. The zero value is usable.
type Options struct {
	Logger    *slog.Logger
	Expander  *placeholder.Expander
	OnWritten func(WrittenNote)
}

// NotePath returns where a note with the given sanitized title lives.
func NotePath(dir, sanitized string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return sanitized + ".md"
	}
	return path.Join(dir, sanitized+".md")
}

// SyncDocuments writes up to cfg.Limit() documents into store, strictly one
// after another. Documents past the limit are never looked at. A failure on
// one document is logged and the pass moves on.
func SyncDocuments(ctx context.Context, docs []models.Document, cfg settings.Settings, store storage.Provider, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := render.New(cfg, opts.Expander)

	if limit := cfg.Limit(); len(docs) > limit {
		docs = docs[:limit]
	}

	res := Result{SyncedTitles: []string{}}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			logger.Warn("sync: pass interrupted", slog.String("error", err.Error()))
			break
		}
		if doc.ID() == "" {
			logger.Warn("sync: document has no id", slog.String("title", doc.Title()))
		}

		display, sanitized := renderer.Title(doc)
		target := NotePath(cfg.SyncDirectory, sanitized)

		exists, err := store.Exists(target)
		if err != nil {
			logger.Error("sync: stat failed",
				slog.String("document_id", doc.ID()),
				slog.String("path", target),
				slog.String("error", err.Error()))
			res.Failed++
			continue
		}
		if exists && cfg.SkipExistingNotes {
			logger.Debug("sync: skipping existing note", slog.String("path", target))
			res.Skipped++
			continue
		}

		note := renderer.Render(doc)
		if err := store.Write(target, []byte(note.Content())); err != nil {
			logger.Error("sync: write failed",
				slog.String("document_id", doc.ID()),
				slog.String("path", target),
				slog.String("error", err.Error()))
			res.Failed++
			continue
		}

		kind := KindCreated
		if exists {
			kind = KindUpdated
		}
		logger.Info("sync: note written",
			slog.String("document_id", doc.ID()),
			slog.String("path", target),
			slog.String("kind", kind))

		res.SyncedCount++
		res.SyncedTitles = append(res.SyncedTitles, display)
		if opts.OnWritten != nil {
			opts.OnWritten(WrittenNote{Kind: kind, Path: target, Document: doc, Note: note})
		}
	}
	return res
}

package index

import (
	"log/slog"

	"github.com/starford/granola-sync/internal/storage"
)

// Reconcile drops ledger entries whose note no longer exists in the vault,
// e.g. because it was deleted by hand. It returns the number removed.
func Reconcile(db Ledger, store storage.Provider, logger *slog.Logger) (int, error) {
	paths, err := db.DocumentPaths()
	if err != nil {
		return 0, err
	}

	removed := 0
	for id, p := range paths {
		ok, err := store.Exists(p)
		if err != nil {
			logger.Warn("reconcile: stat failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if ok {
			continue
		}
		if err := db.DeleteDocument(id); err != nil {
			logger.Warn("reconcile: delete failed", slog.String("document_id", id), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("reconcile: removed stale", slog.String("path", p))
		removed++
	}
	return removed, nil
}

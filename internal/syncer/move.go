package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
)

// MoveDirectory relocates every file under oldDir to the same relative
// location under newDir and then removes the emptied directories. It does
// nothing when either directory is empty or both are equal.
func (s *Syncer) MoveDirectory(ctx context.Context, oldDir, newDir string) error {
	oldDir = strings.Trim(oldDir, "/")
	newDir = strings.Trim(newDir, "/")
	if oldDir == "" || newDir == "" || oldDir == newDir {
		return nil
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	store := s.deps.Store
	exists, err := store.Exists(oldDir)
	if err != nil {
		return fmt.Errorf("syncer: move directory: %w", err)
	}
	if !exists {
		s.logger.Info("sync: old directory missing, nothing to move", slog.String("path", oldDir))
		return nil
	}

	paths, err := store.ListPaths(oldDir)
	if err != nil {
		return fmt.Errorf("syncer: move directory: %w", err)
	}

	var errs []error
	dirs := map[string]bool{oldDir: true}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rest, ok := strings.CutPrefix(p, oldDir+"/")
		if !ok {
			continue
		}
		target := path.Join(newDir, rest)
		if err := store.Move(p, target); err != nil {
			s.logger.Error("sync: move failed", slog.String("path", p), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if s.deps.Publisher != nil {
			s.deps.Publisher.PublishNoteEvent(KindMoved, target)
		}
		for d := path.Dir(p); d != oldDir && strings.HasPrefix(d, oldDir+"/"); d = path.Dir(d) {
			dirs[d] = true
		}
	}

	if s.deps.Ledger != nil {
		if n, err := s.deps.Ledger.MovePrefix(oldDir, newDir); err != nil {
			s.logger.Warn("sync: ledger move failed", slog.String("error", err.Error()))
		} else {
			s.logger.Debug("sync: ledger paths moved", slog.Int("count", n))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("syncer: move directory: %w", errors.Join(errs...))
	}

	// Deepest first so parents are empty by the time they are removed.
	ordered := make([]string, 0, len(dirs))
	for d := range dirs {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return strings.Count(ordered[i], "/") > strings.Count(ordered[j], "/")
	})
	for _, d := range ordered {
		if err := store.RemoveDir(d); err != nil {
			s.logger.Warn("sync: remove directory failed", slog.String("path", d), slog.String("error", err.Error()))
		}
	}

	s.logger.Info("sync: directory moved",
		slog.String("from", oldDir),
		slog.String("to", newDir),
		slog.Int("files", len(paths)))
	return nil
}

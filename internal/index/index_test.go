package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "granola-sync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM sync_runs`).Scan(&count); err != nil {
		t.Fatalf("sync_runs table missing: %v", err)
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		DocumentID: "doc-1",
		Path:       "Granola/Standup.md",
		Title:      "Standup",
		Checksum:   "abc123",
		CreatedAt:  "2024-03-05T10:00:00Z",
	}
	if err := db.UpsertDocument(row, "standup body"); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	got, err := db.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Path != row.Path || got.Checksum != "abc123" || got.CreatedAt != row.CreatedAt {
		t.Errorf("document = %+v", got)
	}
	if got.SyncedAt.IsZero() {
		t.Error("synced_at should be set")
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{DocumentID: "d", Path: "Granola/Old.md", Title: "Old", Checksum: "1"}, "old")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "d", Path: "Granola/New.md", Title: "New", Checksum: "2"}, "new")

	got, err := db.GetDocument("d")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "New" || got.Path != "Granola/New.md" || got.Checksum != "2" {
		t.Errorf("document = %+v", got)
	}
	_, total, _ := db.ListDocuments(10, 0)
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDocument("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndDelete(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"a", "b", "c"} {
		_ = db.UpsertDocument(DocumentRow{DocumentID: id, Path: "Granola/" + id + ".md"}, "")
	}
	page, total, err := db.ListDocuments(2, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Errorf("total = %d, page = %d", total, len(page))
	}

	if err := db.DeleteDocument("b"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	paths, _ := db.DocumentPaths()
	if _, ok := paths["b"]; ok {
		t.Error("deleted document still listed")
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v", paths)
	}
}

func TestMovePrefix(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{DocumentID: "1", Path: "Granola/a.md"}, "")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "2", Path: "Granola/sub/b.md"}, "")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "3", Path: "GranolaOther/c.md"}, "")

	n, err := db.MovePrefix("Granola", "Meetings/2024")
	if err != nil {
		t.Fatalf("MovePrefix: %v", err)
	}
	if n != 2 {
		t.Errorf("moved = %d, want 2", n)
	}
	paths, _ := db.DocumentPaths()
	want := map[string]string{"1": "Meetings/2024/a.md", "2": "Meetings/2024/sub/b.md", "3": "GranolaOther/c.md"}
	for id, p := range want {
		if paths[id] != p {
			t.Errorf("document %s at %q, want %q", id, paths[id], p)
		}
	}
}

func TestMovePrefix_SharedPath(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{DocumentID: "doc-a", Path: "Granola/Standup.md"}, "")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "doc-b", Path: "Granola/Standup.md"}, "")

	n, err := db.MovePrefix("Granola", "Archive")
	if err != nil {
		t.Fatalf("MovePrefix: %v", err)
	}
	if n != 2 {
		t.Errorf("moved = %d, want 2", n)
	}
	for _, id := range []string{"doc-a", "doc-b"} {
		d, err := db.GetDocument(id)
		if err != nil {
			t.Fatalf("GetDocument(%s): %v", id, err)
		}
		if d.Path != "Archive/Standup.md" {
			t.Errorf("%s at %q, want Archive/Standup.md", id, d.Path)
		}
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{DocumentID: "s", Path: "Granola/s.md", Title: "Search Me"}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].DocumentID != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestRuns(t *testing.T) {
	db := testDB(t)
	if _, err := db.LastRun(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("LastRun on empty db: err = %v", err)
	}

	id, err := db.StartRun()
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	last, err := db.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last.ID != id || last.Status != RunRunning || last.FinishedAt != nil {
		t.Errorf("running run = %+v", last)
	}

	if err := db.FinishRun(id, Run{Status: RunSucceeded, SyncedCount: 3, SkippedCount: 1}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	last, _ = db.LastRun()
	if last.Status != RunSucceeded || last.SyncedCount != 3 || last.SkippedCount != 1 || last.FinishedAt == nil {
		t.Errorf("finished run = %+v", last)
	}

	if err := db.FinishRun("nope", Run{Status: RunFailed}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("FinishRun unknown id: err = %v", err)
	}

	runs, err := db.ListRuns(5)
	if err != nil || len(runs) != 1 {
		t.Errorf("ListRuns = %v, %v", runs, err)
	}
}

func TestReconcile(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("Granola/kept.md", []byte("x"))
	_ = db.UpsertDocument(DocumentRow{DocumentID: "kept", Path: "Granola/kept.md"}, "")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "twin", Path: "Granola/kept.md"}, "")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "gone", Path: "Granola/gone.md"}, "")
	_ = db.UpsertDocument(DocumentRow{DocumentID: "gone-twin", Path: "Granola/gone.md"}, "")

	n, err := Reconcile(db, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if _, err := db.GetDocument("gone-twin"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale twin still present: %v", err)
	}
	if _, err := db.GetDocument("twin"); err != nil {
		t.Errorf("twin sharing a kept path missing: %v", err)
	}
	if _, err := db.GetDocument("gone"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale document still present: %v", err)
	}
	if _, err := db.GetDocument("kept"); err != nil {
		t.Errorf("kept document missing: %v", err)
	}
}

// Package testutil provides shared test helpers for setting up vaults and ledgers.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/granola-sync/internal/index"
	"github.com/starford/granola-sync/internal/storage"
)

// TestLedger creates a temporary SQLite ledger that is removed after the test.
func TestLedger(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "granola-sync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a file-system provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

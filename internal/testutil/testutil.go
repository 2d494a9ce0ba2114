// Package testutil provides shared test helpers for setting up vaults,
// cache databases, and settings files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/viewday/vaultsync/internal/index"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/storage"
)

// TestDB creates a temporary SQLite cache that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vaultsync-test-*.db")
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

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestSettings creates a settings manager persisting into a temp dir.
func TestSettings(t *testing.T) *settings.Manager {
	t.Helper()
	mgr, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	return mgr
}

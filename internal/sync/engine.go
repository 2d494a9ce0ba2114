// Package sync implements the vault-to-calendar engine: rule-driven
// event scanning, unscheduled detection, linked-notes indexing, and
// frontmatter write-back.
package sync

import (
	"log/slog"

	"github.com/viewday/vaultsync/internal/vault"
)

// Engine derives calendar payloads from vault documents and applies
// surface-requested mutations back to them. All scans are synchronous
// full-store walks; outputs are recomputed every time and never stored.
type Engine struct {
	store  vault.Store
	logger *slog.Logger
}

// New creates an Engine over the given document store.
func New(store vault.Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

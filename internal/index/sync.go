package index

import (
	"log/slog"

	"github.com/viewday/vaultsync/internal/checksum"
	"github.com/viewday/vaultsync/internal/frontmatter"
	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/storage"
)

// Sync walks the vault and brings the cache up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the cache
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	return syncPass(db, store, logger, nil)
}

// syncPass diffs the vault against the cache and applies the changes,
// invoking cb (if non-nil) per applied change. It backs both the
// startup Sync and the watcher's rename reconciliation, which cannot
// rely on per-file events.
func syncPass(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		cached, known := checksums[m.Path]
		if known && cached == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		kind := "created"
		if known {
			kind = "updated"
		}
		logger.Debug("sync: indexed", slog.String("path", m.Path), slog.String("op", kind))
		if cb != nil {
			cb(kind, m.Path)
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteDoc(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
		if cb != nil {
			cb("deleted", p)
		}
	}

	return nil
}

// indexFile parses data and upserts it into the cache.
func indexFile(db *DB, path string, data []byte) error {
	fm, _ := frontmatter.Parse(data)
	return db.UpsertDoc(DocRow{
		Path:        path,
		Basename:    models.Basename(path),
		Checksum:    checksum.Sum(data),
		Frontmatter: fm,
	})
}

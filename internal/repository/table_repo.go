package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/noah-isme/absence-tracker-api/internal/models"
)

// AbsenceRepository loads and stores the absence table as a whole.
type AbsenceRepository interface {
	// Load returns the stored table, or an empty table when nothing has been stored yet.
	Load(ctx context.Context) (models.AbsenceTable, error)
	// Save replaces the stored table with table.
	Save(ctx context.Context, table models.AbsenceTable) error
}

// EventRepository loads and stores the event participation table as a whole.
type EventRepository interface {
	Load(ctx context.Context) (models.EventTable, error)
	Save(ctx context.Context, table models.EventTable) error
}

// writeFileAtomic streams content into a sibling temp file and renames it over path,
// so readers never observe a partially written table.
func writeFileAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

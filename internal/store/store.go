package store

import (
	"context"
	"fmt"

	"github.com/starford/jotgrid/internal/models"
)

// NoteDAO is the data-access contract for notes.
// Consumers should depend on this interface rather than a concrete store
// so the storage technology can be swapped at startup.
type NoteDAO interface {
	// FetchAll returns every note ordered by date, most recent first.
	FetchAll(ctx context.Context) ([]models.Note, error)
	// Upsert inserts n, fully replacing any note with the same id.
	Upsert(ctx context.Context, n models.Note) error
	// DeleteByIDs removes the notes with the given ids. Unknown ids are ignored.
	DeleteByIDs(ctx context.Context, ids []int64) error
	Close() error
}

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Verify implementations satisfy NoteDAO at compile time.
var (
	_ NoteDAO = (*DB)(nil)
	_ NoteDAO = (*Memory)(nil)
)

// New opens the NoteDAO selected by driver. path is ignored by the memory driver.
func New(driver, path string) (NoteDAO, error) {
	switch driver {
	case DriverSQLite, "":
		return Open(path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

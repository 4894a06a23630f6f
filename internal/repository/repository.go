// Package repository is the storage-agnostic seam between the note
// orchestrator and the data-access layer.
package repository

import (
	"context"

	"github.com/starford/jotgrid/internal/models"
	"github.com/starford/jotgrid/internal/store"
)

// Notes is the contract callers depend on instead of a concrete store.
type Notes interface {
	FetchAll(ctx context.Context) ([]models.Note, error)
	Upsert(ctx context.Context, n models.Note) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// Repository delegates one-to-one to a store.NoteDAO. Errors pass through unchanged.
type Repository struct {
	dao store.NoteDAO
}

var _ Notes = (*Repository)(nil)

// New creates a Repository over dao.
func New(dao store.NoteDAO) *Repository {
	return &Repository{dao: dao}
}

func (r *Repository) FetchAll(ctx context.Context) ([]models.Note, error) {
	return r.dao.FetchAll(ctx)
}

func (r *Repository) Upsert(ctx context.Context, n models.Note) error {
	return r.dao.Upsert(ctx, n)
}

func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) error {
	return r.dao.DeleteByIDs(ctx, ids)
}

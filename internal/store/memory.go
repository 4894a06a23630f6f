package store

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/starford/jotgrid/internal/models"
)

var errClosed = errors.New("memory store is closed")

// Memory is a NoteDAO kept entirely in process memory.
// It follows the same ordering and replace-on-conflict rules as DB.
type Memory struct {
	mu     sync.RWMutex
	notes  map[int64]models.Note
	nextID int64
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		notes:  make(map[int64]models.Note),
		nextID: 1,
	}
}

// FetchAll returns a snapshot of every note, most recent date first.
func (m *Memory) FetchAll(_ context.Context) ([]models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storeErr("fetch all", errClosed)
	}

	out := make([]models.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b models.Note) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// Upsert stores n, replacing any note with the same id.
func (m *Memory) Upsert(_ context.Context, n models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storeErr("upsert note", errClosed)
	}
	if err := CheckDate(n.Date); err != nil {
		return storeErr("upsert note", err)
	}

	if n.ID == 0 {
		n.ID = m.nextID
	}
	if n.ID >= m.nextID {
		m.nextID = n.ID + 1
	}
	n.Date = n.Date.UTC()
	m.notes[n.ID] = n
	return nil
}

// DeleteByIDs removes the given ids; unknown ids are ignored.
func (m *Memory) DeleteByIDs(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storeErr("delete notes", errClosed)
	}
	for _, id := range ids {
		delete(m.notes, id)
	}
	return nil
}

// Close marks the store closed; further calls fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

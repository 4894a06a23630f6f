package store

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/starford/jotgrid/internal/apperr"
	"github.com/starford/jotgrid/internal/models"
)

// forEachDAO runs fn against every NoteDAO implementation.
func forEachDAO(t *testing.T, fn func(t *testing.T, dao NoteDAO)) {
	t.Run("sqlite", func(t *testing.T) {
		db, _ := testDB(t)
		fn(t, db)
	})
	t.Run("memory", func(t *testing.T) {
		m := NewMemory()
		t.Cleanup(func() { m.Close() })
		fn(t, m)
	})
}

func ids(notes []models.Note) []int64 {
	return models.IDs(notes)
}

func TestFetchAll_Empty(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		notes, err := dao.FetchAll(context.Background())
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if notes == nil || len(notes) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", notes)
		}
	})
}

func TestFetchAll_OrderedByDateDesc(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		_ = dao.Upsert(ctx, models.Note{ID: 1, Text: "a", Date: base})
		_ = dao.Upsert(ctx, models.Note{ID: 2, Text: "b", Date: base.Add(time.Hour)})
		_ = dao.Upsert(ctx, models.Note{ID: 3, Text: "c", Date: base.Add(-time.Hour)})
		_ = dao.Upsert(ctx, models.Note{ID: 4, Text: "d", Date: base.Add(time.Nanosecond)})

		notes, err := dao.FetchAll(ctx)
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if got, want := ids(notes), []int64{2, 4, 1, 3}; !slices.Equal(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})
}

func TestFetchAll_EqualDatesByIDDesc(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		same := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
		for _, id := range []int64{5, 9, 7} {
			_ = dao.Upsert(ctx, models.Note{ID: id, Date: same})
		}
		notes, _ := dao.FetchAll(ctx)
		if got, want := ids(notes), []int64{9, 7, 5}; !slices.Equal(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		t2 := t1.Add(24 * time.Hour)
		_ = dao.Upsert(ctx, models.Note{ID: 1, Text: "a", Date: t1})
		if err := dao.Upsert(ctx, models.Note{ID: 1, Text: "updated", Date: t2}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		notes, _ := dao.FetchAll(ctx)
		if len(notes) != 1 {
			t.Fatalf("expected 1 note, got %d", len(notes))
		}
		if notes[0].Text != "updated" || !notes[0].Date.Equal(t2) {
			t.Errorf("note = %+v, want text=updated date=%v", notes[0], t2)
		}
	})
}

func TestUpsert_AssignsID(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		now := time.Now()
		_ = dao.Upsert(ctx, models.Note{ID: 10, Text: "explicit", Date: now})
		_ = dao.Upsert(ctx, models.Note{Text: "auto-1", Date: now.Add(time.Second)})
		_ = dao.Upsert(ctx, models.Note{Text: "auto-2", Date: now.Add(2 * time.Second)})

		notes, _ := dao.FetchAll(ctx)
		if len(notes) != 3 {
			t.Fatalf("expected 3 notes, got %d", len(notes))
		}
		seen := map[int64]bool{}
		for _, n := range notes {
			if n.ID == 0 {
				t.Errorf("note %q has no id", n.Text)
			}
			if seen[n.ID] {
				t.Errorf("duplicate id %d", n.ID)
			}
			seen[n.ID] = true
		}
	})
}

func TestDeleteByIDs_MixedExisting(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := int64(1); i <= 3; i++ {
			_ = dao.Upsert(ctx, models.Note{ID: i, Text: "n", Date: base.Add(time.Duration(i) * time.Minute)})
		}
		if err := dao.DeleteByIDs(ctx, []int64{2, 42, 99}); err != nil {
			t.Fatalf("DeleteByIDs: %v", err)
		}
		notes, _ := dao.FetchAll(ctx)
		if got, want := ids(notes), []int64{3, 1}; !slices.Equal(got, want) {
			t.Errorf("remaining = %v, want %v", got, want)
		}
	})
}

func TestDeleteByIDs_EmptyIsNoop(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		_ = dao.Upsert(ctx, models.Note{ID: 1, Text: "stay", Date: time.Now()})
		if err := dao.DeleteByIDs(ctx, nil); err != nil {
			t.Fatalf("DeleteByIDs(nil): %v", err)
		}
		if err := dao.DeleteByIDs(ctx, []int64{}); err != nil {
			t.Fatalf("DeleteByIDs(empty): %v", err)
		}
		notes, _ := dao.FetchAll(ctx)
		if len(notes) != 1 {
			t.Errorf("expected store unchanged, got %d notes", len(notes))
		}
	})
}

func TestClosedDAOFails(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		_ = dao.Close()
		if err := dao.DeleteByIDs(context.Background(), []int64{1}); !errors.Is(err, apperr.ErrStore) {
			t.Errorf("DeleteByIDs after close = %v, want ErrStore", err)
		}
	})
}

func TestUpsert_RejectsUnstorableYear(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		keep := models.Note{ID: 1, Text: "kept", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		if err := dao.Upsert(ctx, keep); err != nil {
			t.Fatalf("Upsert: %v", err)
		}

		late, err := time.Parse(time.RFC3339, "9999-12-31T23:00:00-05:00")
		if err != nil {
			t.Fatal(err)
		}
		for _, d := range []time.Time{late, late.UTC(), time.Date(-1, 6, 1, 0, 0, 0, 0, time.UTC)} {
			err := dao.Upsert(ctx, models.Note{ID: 2, Text: "out of range", Date: d})
			if !errors.Is(err, apperr.ErrStore) {
				t.Errorf("Upsert(%v) = %v, want ErrStore", d, err)
			}
		}

		notes, err := dao.FetchAll(ctx)
		if err != nil {
			t.Fatalf("FetchAll after rejected upsert: %v", err)
		}
		if !slices.Equal(ids(notes), []int64{1}) {
			t.Errorf("ids = %v, want [1]", ids(notes))
		}
	})
}

func TestUpsert_AcceptsYearBounds(t *testing.T) {
	forEachDAO(t, func(t *testing.T, dao NoteDAO) {
		ctx := context.Background()
		first := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
		if err := dao.Upsert(ctx, models.Note{ID: 1, Text: "first", Date: first}); err != nil {
			t.Fatalf("Upsert(year 0): %v", err)
		}
		if err := dao.Upsert(ctx, models.Note{ID: 2, Text: "last", Date: last}); err != nil {
			t.Fatalf("Upsert(year 9999): %v", err)
		}
		notes, err := dao.FetchAll(ctx)
		if err != nil {
			t.Fatalf("FetchAll: %v", err)
		}
		if len(notes) != 2 || !notes[0].Date.Equal(last) || !notes[1].Date.Equal(first) {
			t.Errorf("notes = %+v", notes)
		}
	})
}

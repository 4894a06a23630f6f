package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/jotgrid/internal/apperr"
	"github.com/starford/jotgrid/internal/models"
)

// dateLayout is fixed-width so that lexical order on the column is
// chronological order.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

// maxDeleteBatch keeps IN lists below SQLite's bound-parameter limit.
const maxDeleteBatch = 500

// CheckDate reports whether t can be stored. The date column holds a
// four-digit year, so the UTC year must lie in [0, 9999].
func CheckDate(t time.Time) error {
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return fmt.Errorf("date %s: UTC year %d outside 0000-9999", t.Format(time.RFC3339), y)
	}
	return nil
}

func encodeDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func decodeDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func storeErr(action string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", action, apperr.ErrStore, err)
}

// FetchAll returns every note, most recent date first. Equal dates fall back
// to descending id.
func (db *DB) FetchAll(ctx context.Context) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, text, date
		FROM notes
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, storeErr("fetch all", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var (
			n    models.Note
			date string
		)
		if err := rows.Scan(&n.ID, &n.Text, &date); err != nil {
			return nil, storeErr("scan note", err)
		}
		if n.Date, err = decodeDate(date); err != nil {
			return nil, storeErr(fmt.Sprintf("decode date of note %d", n.ID), err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("fetch all", err)
	}
	return out, nil
}

// Upsert inserts or replaces a note by id. A zero id lets SQLite assign one.
func (db *DB) Upsert(ctx context.Context, n models.Note) error {
	if err := CheckDate(n.Date); err != nil {
		return storeErr("upsert note", err)
	}
	var id any
	if n.ID != 0 {
		id = n.ID
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO notes (id, text, date) VALUES (?, ?, ?)`,
		id, n.Text, encodeDate(n.Date))
	if err != nil {
		return storeErr("upsert note", err)
	}
	return nil
}

// DeleteByIDs removes all notes whose id is in ids. An empty ids is a no-op.
// Sets larger than one batch are removed inside a single transaction.
func (db *DB) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) <= maxDeleteBatch {
		query, args := deleteQuery(ids)
		if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
			return storeErr("delete notes", err)
		}
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(ids); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(ids))
		query, args := deleteQuery(ids[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return storeErr("delete notes", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit delete", err)
	}
	return nil
}

func deleteQuery(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	return `DELETE FROM notes WHERE id IN (` + placeholders + `)`, args
}

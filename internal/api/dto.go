package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jotgrid/internal/models"
	"github.com/starford/jotgrid/internal/store"
)

// SaveNoteRequest is the request body for creating or replacing a note.
// ID 0 asks the store to assign one; a nil Date means now.
type SaveNoteRequest struct {
	ID   int64      `json:"id,omitempty"`
	Text string     `json:"text"`
	Date *time.Time `json:"date,omitempty"`
}

// Validate validates the request.
func (r *SaveNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Min(int64(0))),
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.Date, validation.By(storableDate)),
	)
}

func storableDate(value any) error {
	d, _ := value.(*time.Time)
	if d == nil {
		return nil
	}
	return store.CheckDate(*d)
}

// Note converts the request into a note, stamping now when no date was given.
func (r *SaveNoteRequest) Note(now time.Time) models.Note {
	date := now
	if r.Date != nil {
		date = *r.Date
	}
	return models.Note{ID: r.ID, Text: r.Text, Date: date.UTC()}
}

// DeleteNotesRequest is the request body for deleting a selection of notes.
type DeleteNotesRequest struct {
	IDs []int64 `json:"ids"`
}

// Validate validates the request. An empty list is allowed and removes
// nothing; ids with no stored note are ignored.
func (r *DeleteNotesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.NotNil),
	)
}

// NoteListResponse wraps the note list.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
}

// Package models defines the domain types for jotgrid.
package models

import "time"

// Note is a short text note. ID 0 means the store has not assigned one yet.
type Note struct {
	ID   int64     `json:"id"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// IDs returns the ids of the given notes, in order.
func IDs(notes []Note) []int64 {
	out := make([]int64, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

// Package status reports the outcome of an asynchronous note operation as a
// short, ordered sequence of events: one Pending, then one Succeeded or Failed.
package status

import (
	"fmt"
)

// State tags a Status.
type State int

const (
	Pending State = iota
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending":
		*s = Pending
	case "succeeded":
		*s = Succeeded
	case "failed":
		*s = Failed
	default:
		return fmt.Errorf("status: unknown state %q", b)
	}
	return nil
}

// Void is the payload of operations that return nothing.
type Void = struct{}

// Status is one event of an operation's sequence. Value is only meaningful
// when State is Succeeded; Message and Err only when State is Failed.
type Status[T any] struct {
	State   State  `json:"state"`
	Value   T      `json:"value"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// NewPending returns the opening event of a sequence.
func NewPending[T any]() Status[T] {
	return Status[T]{State: Pending}
}

// NewSucceeded wraps a completed operation's value.
func NewSucceeded[T any](v T) Status[T] {
	return Status[T]{State: Succeeded, Value: v}
}

// NewFailed reports err. The message always carries err's description.
func NewFailed[T any](action string, err error) Status[T] {
	return Status[T]{
		State:   Failed,
		Message: fmt.Sprintf("%s: %v", action, err),
		Err:     err,
	}
}

// Terminal reports whether s ends its sequence.
func (s Status[T]) Terminal() bool {
	return s.State != Pending
}

// Collect drains seq and returns every event in arrival order.
func Collect[T any](seq <-chan Status[T]) []Status[T] {
	var out []Status[T]
	for s := range seq {
		out = append(out, s)
	}
	return out
}

// Last drains seq and returns its final event.
func Last[T any](seq <-chan Status[T]) Status[T] {
	var last Status[T]
	for s := range seq {
		last = s
	}
	return last
}

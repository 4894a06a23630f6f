// Package noteservice drives note repository calls and reports each call's
// progress as a status sequence.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/jotgrid/internal/apperr"
	"github.com/starford/jotgrid/internal/models"
	"github.com/starford/jotgrid/internal/repository"
	"github.com/starford/jotgrid/internal/status"
)

// Change kinds passed to a ChangeNotifier.
const (
	ChangeSaved   = "note.saved"
	ChangeRemoved = "notes.removed"
)

// ChangeNotifier is told about every successful mutation.
type ChangeNotifier interface {
	NotesChanged(kind string, ids []int64)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers n to receive change notifications.
func WithNotifier(n ChangeNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger used for operation outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service is the note orchestrator. Every entry point returns immediately
// with a channel that already holds a Pending event; the store call runs on
// its own goroutine, which sends exactly one terminal event and closes the
// channel. Each call gets its own channel; nothing is shared between calls.
type Service struct {
	repo     repository.Notes
	notifier ChangeNotifier
	logger   *slog.Logger
}

// NewService creates a Service over repo.
func NewService(repo repository.Notes, opts ...Option) *Service {
	s := &Service{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List fetches every note, most recent first.
func (s *Service) List(ctx context.Context) <-chan status.Status[[]models.Note] {
	return launch(ctx, s.logger, "list notes", func(ctx context.Context) ([]models.Note, error) {
		return s.repo.FetchAll(ctx)
	})
}

// Save upserts n. A note with an existing id is replaced entirely.
func (s *Service) Save(ctx context.Context, n models.Note) <-chan status.Status[status.Void] {
	return launch(ctx, s.logger, "save note", func(ctx context.Context) (status.Void, error) {
		if err := s.repo.Upsert(ctx, n); err != nil {
			return status.Void{}, err
		}
		var ids []int64
		if n.ID != 0 {
			ids = []int64{n.ID}
		}
		s.notify(ChangeSaved, ids)
		return status.Void{}, nil
	})
}

// Remove deletes the notes with the given ids. Unknown ids are ignored and
// an empty set leaves the store untouched.
func (s *Service) Remove(ctx context.Context, ids []int64) <-chan status.Status[status.Void] {
	ids = slices.Clone(ids)
	return launch(ctx, s.logger, "remove notes", func(ctx context.Context) (status.Void, error) {
		if err := s.repo.DeleteByIDs(ctx, ids); err != nil {
			return status.Void{}, err
		}
		if len(ids) > 0 {
			s.notify(ChangeRemoved, ids)
		}
		return status.Void{}, nil
	})
}

func (s *Service) notify(kind string, ids []int64) {
	if s.notifier != nil {
		s.notifier.NotesChanged(kind, ids)
	}
}

// launch emits Pending synchronously, then runs op on a new goroutine.
// The store call is detached from ctx cancellation: once started it runs to
// completion.
func launch[T any](ctx context.Context, logger *slog.Logger, action string, op func(context.Context) (T, error)) <-chan status.Status[T] {
	ch := make(chan status.Status[T], 2)
	ch <- status.NewPending[T]()

	opCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(ch)
		v, err := guard(opCtx, op)
		if err != nil {
			logger.Warn("noteservice: operation failed",
				slog.String("op", action),
				slog.String("error", err.Error()))
			ch <- status.NewFailed[T](action, err)
			return
		}
		logger.Debug("noteservice: operation succeeded", slog.String("op", action))
		ch <- status.NewSucceeded(v)
	}()
	return ch
}

// guard turns a panic inside op into a store error so the sequence still terminates.
func guard[T any](ctx context.Context, op func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", apperr.ErrStore, r)
		}
	}()
	return op(ctx)
}

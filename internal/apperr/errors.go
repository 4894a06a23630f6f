package apperr

import "errors"

var (
	// ErrStore is the single kind for any failure of the underlying note store.
	ErrStore           = errors.New("store operation failed")
	ErrInvalidArgument = errors.New("invalid argument")
)

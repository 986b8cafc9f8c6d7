// Package apperr holds sentinel errors shared across folio packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid metadata record")
	ErrNoSnapshot    = errors.New("catalog snapshot not configured")
)

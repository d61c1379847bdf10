package service

import "errors"

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyText rejects todo creation with blank text.
	ErrEmptyText = errors.New("todo text is empty")
)

package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrQueueEmpty is returned by Pop when no job is waiting.
	ErrQueueEmpty = errors.New("queue is empty")
	// ErrLoadTimeout is returned when a document did not load in time.
	ErrLoadTimeout = errors.New("document load timed out")
)

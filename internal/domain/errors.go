package domain

import (
	"strings"

	"github.com/rotisserie/eris"
)

var (
	ErrNotFound = eris.New("not found")
	ErrStore    = eris.New("store failure")
)

// ValidationError is returned when a record is missing required fields.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing required fields: " + strings.Join(e.Missing, ", ")
}

// StoreError wraps any failure reported by the record store.
// errors.Is(err, ErrStore) holds for every StoreError.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return e.Backend + ": " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

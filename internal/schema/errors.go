package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors for schema edits.
var (
	ErrConflict        = errors.New("name already exists")
	ErrNotFound        = errors.New("not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidName     = errors.New("name must not be empty")
)

// ConflictPolicy decides what an edit does when its target name is taken.
type ConflictPolicy int

const (
	// Abort leaves the schema untouched and returns a ConflictError.
	Abort ConflictPolicy = iota
	// Replace overwrites the existing entry in place.
	Replace
)

func (p ConflictPolicy) String() string {
	if p == Replace {
		return "replace"
	}
	return "abort"
}

// ConflictError names the entity whose name collided.
type ConflictError struct {
	Kind string
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError names the entity an edit could not find.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist for the given
	// owner. Foreign records are indistinguishable from missing ones.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidTitle is returned when a task title is empty after trimming
	// or longer than 200 characters.
	ErrInvalidTitle = errors.New("title must be between 1 and 200 characters")

	// ErrInvalidDescription is returned when a task description exceeds
	// 1000 characters.
	ErrInvalidDescription = errors.New("description must be less than 1000 characters")
)

package service

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidEmail matches every *InvalidEmailError.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateEmail is returned when the store rejected a write because
	// the email was taken after the pre-check passed.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrMissingID is returned by Add when the student carries the zero UUID.
	ErrMissingID = errors.New("student id must be set")
)

// Messages carried by InvalidEmailError. They are returned to clients verbatim.
const (
	ReasonMalformed = "Invalid email address"
	ReasonInUse     = "The given email is already used"
)

// InvalidEmailError reports an email that is malformed or already used by
// another student.
type InvalidEmailError struct {
	Email  string
	Reason string
}

func (e *InvalidEmailError) Error() string { return e.Reason }

func (e *InvalidEmailError) Is(target error) bool { return target == ErrInvalidEmail }

// NotFoundError reports an unknown student id.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return "could not find student with id: " + e.ID.String()
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

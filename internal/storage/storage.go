// Package storage defines the Storage interface, a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// The service layer should not know or care which database it is talking
// to. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change the driver in the config file. Zero service changes.
//
//   - Writing tests = pass the in-memory store or a gomock mock.
//     No real database needed for unit tests.
//
// Every backend enforces email uniqueness ITSELF (unique index, SETNX, …).
// The service runs a friendly pre-check, but the store is the authority:
// two concurrent writers can both pass the pre-check, and only the store
// can tell which one lost.
package storage

//go:generate mockgen -source=storage.go -destination=mocks/mocks.go -package=mocks Storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no student matches the given id or email.
	ErrNotFound = errors.New("storage: student not found")

	// ErrDuplicateEmail is returned when a write would give two students
	// the same email.
	ErrDuplicateEmail = errors.New("storage: email already exists")
)

// Storage is the database contract.
type Storage interface {
	// Create inserts a brand-new student. The ID is supplied by the caller.
	// Returns ErrDuplicateEmail if the email is already taken.
	Create(ctx context.Context, student types.Student) error

	// Update overwrites name and email of an existing student.
	// Returns ErrNotFound if the id is unknown and ErrDuplicateEmail if the
	// new email belongs to someone else.
	Update(ctx context.Context, student types.Student) error

	// FindByID fetches a single student. Returns ErrNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (types.Student, error)

	// FindByEmail fetches the student with exactly this email (case-sensitive).
	// Returns ErrNotFound if absent.
	FindByEmail(ctx context.Context, email string) (types.Student, error)

	// FindAll returns every student. Returns an empty slice (not nil) if
	// there are none. Order is backend-defined.
	FindAll(ctx context.Context) ([]types.Student, error)

	// DeleteByID removes a student permanently. Returns ErrNotFound if absent.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

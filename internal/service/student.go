// Package service holds the student business rules: email validation,
// uniqueness, and the mapping of store outcomes to domain errors.
//
// The store is the authority on uniqueness. validateEmail is a pre-check
// that produces a friendly message; two concurrent writers can both pass
// it, in which case the store rejects the loser and Add/Update return
// ErrDuplicateEmail.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/aanand-mishra/student-records/internal/service")

// StudentService orchestrates validation and persistence.
type StudentService struct {
	store  storage.Storage
	logger *slog.Logger
}

// New creates a StudentService. A nil logger discards output.
func New(store storage.Storage, logger *slog.Logger) *StudentService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StudentService{store: store, logger: logger}
}

// Add validates the email and persists a new student. The caller assigns
// the id.
func (s *StudentService) Add(ctx context.Context, student types.Student) (err error) {
	ctx, span := tracer.Start(ctx, "StudentService.Add",
		trace.WithAttributes(attribute.String("student.id", student.ID.String())))
	defer func() { endSpan(span, err) }()

	if student.ID == uuid.Nil {
		return ErrMissingID
	}

	if err := s.validateEmail(ctx, student.Email, student.ID); err != nil {
		return err
	}

	if err := s.store.Create(ctx, student); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			s.logger.WarnContext(ctx, "email taken after pre-check",
				slog.String("id", student.ID.String()))
			return fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
		}
		return fmt.Errorf("add student: %w", err)
	}

	s.logger.DebugContext(ctx, "student added", slog.String("id", student.ID.String()))
	return nil
}

// Update applies patch to the student with id. Unset patch fields, and
// fields equal to the stored value, are left alone; a changed email is
// re-validated. The merged record is always written back.
func (s *StudentService) Update(ctx context.Context, id uuid.UUID, patch types.StudentPatch) (err error) {
	ctx, span := tracer.Start(ctx, "StudentService.Update",
		trace.WithAttributes(attribute.String("student.id", id.String())))
	defer func() { endSpan(span, err) }()

	student, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if name, ok := patch.Name.Get(); ok && name != student.Name {
		student.Name = name
	}

	if email, ok := patch.Email.Get(); ok && email != student.Email {
		if err := s.validateEmail(ctx, email, id); err != nil {
			return err
		}
		student.Email = email
	}

	if err := s.store.Update(ctx, student); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return &NotFoundError{ID: id}
		case errors.Is(err, storage.ErrDuplicateEmail):
			s.logger.WarnContext(ctx, "email taken after pre-check", slog.String("id", id.String()))
			return fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
		default:
			return fmt.Errorf("update student: %w", err)
		}
	}

	return nil
}

// Delete removes the student with id.
func (s *StudentService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := tracer.Start(ctx, "StudentService.Delete",
		trace.WithAttributes(attribute.String("student.id", id.String())))
	defer func() { endSpan(span, err) }()

	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// GetByID returns the student with id.
func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (_ types.Student, err error) {
	ctx, span := tracer.Start(ctx, "StudentService.GetByID",
		trace.WithAttributes(attribute.String("student.id", id.String())))
	defer func() { endSpan(span, err) }()

	return s.find(ctx, id)
}

// ListAll returns every student, in store order. Never nil.
func (s *StudentService) ListAll(ctx context.Context) (_ []types.Student, err error) {
	ctx, span := tracer.Start(ctx, "StudentService.ListAll")
	defer func() { endSpan(span, err) }()

	students, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

// Ping reports whether the store is reachable.
func (s *StudentService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *StudentService) find(ctx context.Context, id uuid.UUID) (types.Student, error) {
	student, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Student{}, &NotFoundError{ID: id}
		}
		return types.Student{}, fmt.Errorf("find student: %w", err)
	}
	return student, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

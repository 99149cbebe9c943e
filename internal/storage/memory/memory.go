// Package memory is an in-process storage.Storage backed by two maps.
// It enforces the same email uniqueness as the SQL backends and is used by
// unit tests and by the "memory" driver for throwaway runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
)

// Store keeps students by id plus an email → id index.
type Store struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]types.Student
	byEmail map[string]uuid.UUID
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[uuid.UUID]types.Student),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *Store) Create(_ context.Context, student types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[student.Email]; taken {
		return storage.ErrDuplicateEmail
	}
	if _, exists := s.byID[student.ID]; exists {
		return fmt.Errorf("memory: student %s already exists", student.ID)
	}
	s.byID[student.ID] = student
	s.byEmail[student.Email] = student.ID
	return nil
}

func (s *Store) Update(_ context.Context, student types.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[student.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if owner, taken := s.byEmail[student.Email]; taken && owner != student.ID {
		return storage.ErrDuplicateEmail
	}
	delete(s.byEmail, current.Email)
	s.byID[student.ID] = student
	s.byEmail[student.Email] = student.ID
	return nil
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if student, ok := s.byID[id]; ok {
		return student, nil
	}
	return types.Student{}, storage.ErrNotFound
}

func (s *Store) FindByEmail(_ context.Context, email string) (types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return s.byID[id], nil
}

// FindAll returns students in map iteration order, i.e. unordered.
func (s *Store) FindAll(_ context.Context) ([]types.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]types.Student, 0, len(s.byID))
	for _, student := range s.byID {
		students = append(students, student)
	}
	return students, nil
}

func (s *Store) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	student, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, student.Email)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ storage.Storage = (*Store)(nil)

// Package storagetest holds a testify suite every storage.Storage backend
// runs, so all drivers agree on not-found, uniqueness and listing semantics.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// Suite exercises a storage.Storage. NewStore must return an empty store;
// it is called before every test.
type Suite struct {
	suite.Suite
	NewStore func() storage.Storage

	ctx   context.Context
	store storage.Storage
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func newStudent(name, email string) types.Student {
	return types.Student{ID: uuid.New(), Name: name, Email: email}
}

// TestLookupBehavior tests retrieval by id and by email.
func (s *Suite) TestLookupBehavior() {
	student := newStudent("Jane Doe", "jane_doe@example.com")
	s.Require().NoError(s.store.Create(s.ctx, student))

	s.Run("returns student by ID when exists", func() {
		found, err := s.store.FindByID(s.ctx, student.ID)
		s.Require().NoError(err)
		s.Equal(student, found)
	})

	s.Run("returns student by email when exists", func() {
		found, err := s.store.FindByEmail(s.ctx, student.Email)
		s.Require().NoError(err)
		s.Equal(student, found)
	})

	s.Run("email lookup is case-sensitive", func() {
		_, err := s.store.FindByEmail(s.ctx, "JANE_DOE@example.com")
		s.Require().ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("returns ErrNotFound when ID does not exist", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("returns ErrNotFound when email does not exist", func() {
		_, err := s.store.FindByEmail(s.ctx, "missing@example.com")
		s.Require().ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("ping succeeds", func() {
		s.Require().NoError(s.store.Ping(s.ctx))
	})
}

// TestEmailUniqueness tests that the store itself rejects duplicate emails.
func (s *Suite) TestEmailUniqueness() {
	first := newStudent("First", "unique@example.com")
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("create with a taken email", func() {
		err := s.store.Create(s.ctx, newStudent("Second", "unique@example.com"))
		s.Require().ErrorIs(err, storage.ErrDuplicateEmail)

		all, err := s.store.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
	})

	s.Run("update to a taken email", func() {
		other := newStudent("Other", "other@example.com")
		s.Require().NoError(s.store.Create(s.ctx, other))

		other.Email = "unique@example.com"
		s.Require().ErrorIs(s.store.Update(s.ctx, other), storage.ErrDuplicateEmail)

		found, err := s.store.FindByID(s.ctx, other.ID)
		s.Require().NoError(err)
		s.Equal("other@example.com", found.Email)
	})

	s.Run("update keeping the own email", func() {
		first.Name = "First Renamed"
		s.Require().NoError(s.store.Update(s.ctx, first))

		found, err := s.store.FindByEmail(s.ctx, first.Email)
		s.Require().NoError(err)
		s.Equal(first, found)
	})

	s.Run("changing email frees the old one", func() {
		first.Email = "moved@example.com"
		s.Require().NoError(s.store.Update(s.ctx, first))

		_, err := s.store.FindByEmail(s.ctx, "unique@example.com")
		s.Require().ErrorIs(err, storage.ErrNotFound)
		s.Require().NoError(s.store.Create(s.ctx, newStudent("Reuse", "unique@example.com")))
	})
}

// TestConcurrentCreateSameEmail verifies that concurrent creates with one
// email result in exactly one success.
func (s *Suite) TestConcurrentCreateSameEmail() {
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.Create(s.ctx, newStudent(fmt.Sprintf("Racer %d", i), "race@example.com"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, storage.ErrDuplicateEmail):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflicts.Load(), "all others should get ErrDuplicateEmail")
}

// TestUpdateAndDelete tests mutations of unknown and known ids.
func (s *Suite) TestUpdateAndDelete() {
	s.Run("update unknown id", func() {
		err := s.store.Update(s.ctx, newStudent("Ghost", "ghost@example.com"))
		s.Require().ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("delete unknown id", func() {
		s.Require().ErrorIs(s.store.DeleteByID(s.ctx, uuid.New()), storage.ErrNotFound)
	})

	s.Run("deletes student and makes them unfindable", func() {
		student := newStudent("Delete Me", "delete_me@example.com")
		s.Require().NoError(s.store.Create(s.ctx, student))

		s.Require().NoError(s.store.DeleteByID(s.ctx, student.ID))

		_, err := s.store.FindByID(s.ctx, student.ID)
		s.Require().ErrorIs(err, storage.ErrNotFound)
		_, err = s.store.FindByEmail(s.ctx, student.Email)
		s.Require().ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("email of a deleted student can be reused", func() {
		student := newStudent("First Owner", "reused@example.com")
		s.Require().NoError(s.store.Create(s.ctx, student))
		s.Require().NoError(s.store.DeleteByID(s.ctx, student.ID))

		next := newStudent("Second Owner", "reused@example.com")
		s.Require().NoError(s.store.Create(s.ctx, next))

		found, err := s.store.FindByEmail(s.ctx, "reused@example.com")
		s.Require().NoError(err)
		s.Equal(next, found)
	})
}

// TestUpdateRacingDelete runs an update and a delete of the same student
// concurrently. The delete always wins in the end: no record may come back,
// and neither the old nor the new email may stay reserved.
func (s *Suite) TestUpdateRacingDelete() {
	const rounds = 25

	for i := 0; i < rounds; i++ {
		oldEmail := fmt.Sprintf("before_%d@example.com", i)
		newEmail := fmt.Sprintf("after_%d@example.com", i)
		student := newStudent("Racer", oldEmail)
		s.Require().NoError(s.store.Create(s.ctx, student))

		var (
			wg                   sync.WaitGroup
			updateErr, deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			updateErr = s.store.Update(s.ctx, types.Student{ID: student.ID, Name: "Renamed", Email: newEmail})
		}()
		go func() {
			defer wg.Done()
			deleteErr = s.store.DeleteByID(s.ctx, student.ID)
		}()
		wg.Wait()

		s.Require().NoError(deleteErr, "round %d", i)
		if updateErr != nil {
			s.Require().ErrorIs(updateErr, storage.ErrNotFound, "round %d", i)
		}

		_, err := s.store.FindByID(s.ctx, student.ID)
		s.Require().ErrorIs(err, storage.ErrNotFound, "round %d: deleted record came back", i)

		for _, email := range []string{oldEmail, newEmail} {
			_, err := s.store.FindByEmail(s.ctx, email)
			s.Require().ErrorIs(err, storage.ErrNotFound, "round %d: %s still indexed", i, email)
			s.Require().NoError(s.store.Create(s.ctx, newStudent("Reuser", email)), "round %d: %s still reserved", i, email)
		}
	}

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2*rounds)
	for _, student := range all {
		s.Equal("Reuser", student.Name)
	}
}

// TestFindAll tests listing.
func (s *Suite) TestFindAll() {
	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(all)
	s.Empty(all)

	a := newStudent("A", "a@example.com")
	b := newStudent("B", "b@example.com")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	all, err = s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]types.Student{a, b}, all)
}

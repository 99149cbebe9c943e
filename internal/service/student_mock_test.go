package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/mocks"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockService(t *testing.T) (*StudentService, *mocks.MockStorage) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStorage(ctrl)
	return New(store, nil), store
}

// The pre-check passes but the store's unique constraint fires: the
// check-then-act gap between two concurrent writers.
func TestAdd_StoreDuplicateAfterPreCheck(t *testing.T) {
	svc, store := newMockService(t)
	student := types.Student{ID: uuid.New(), Name: "Racer", Email: "race@example.com"}

	gomock.InOrder(
		store.EXPECT().FindByEmail(gomock.Any(), "race@example.com").Return(types.Student{}, storage.ErrNotFound),
		store.EXPECT().Create(gomock.Any(), student).Return(storage.ErrDuplicateEmail),
	)

	err := svc.Add(context.Background(), student)
	require.ErrorIs(t, err, ErrDuplicateEmail)
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
	assert.NotErrorIs(t, err, ErrInvalidEmail)
}

func TestAdd_ErrorPropagation(t *testing.T) {
	student := types.Student{ID: uuid.New(), Name: "X", Email: "x@example.com"}

	t.Run("email lookup fails", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByEmail(gomock.Any(), student.Email).Return(types.Student{}, errors.New("db down"))

		err := svc.Add(context.Background(), student)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidEmail)
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("create fails", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByEmail(gomock.Any(), student.Email).Return(types.Student{}, storage.ErrNotFound)
		store.EXPECT().Create(gomock.Any(), student).Return(errors.New("disk full"))

		err := svc.Add(context.Background(), student)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("malformed email never reaches the store", func(t *testing.T) {
		svc, _ := newMockService(t)

		err := svc.Add(context.Background(), types.Student{ID: uuid.New(), Email: "nope"})
		require.ErrorIs(t, err, ErrInvalidEmail)
	})
}

func TestUpdate_StoreOutcomes(t *testing.T) {
	id := uuid.New()
	current := types.Student{ID: id, Name: "Current", Email: "current@example.com"}

	t.Run("both fields unset still writes the unchanged record", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(current, nil)
		store.EXPECT().Update(gomock.Any(), current).Return(nil)

		require.NoError(t, svc.Update(context.Background(), id, types.StudentPatch{}))
	})

	t.Run("unchanged email skips validation", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(current, nil)
		store.EXPECT().Update(gomock.Any(), types.Student{ID: id, Name: "Renamed", Email: current.Email}).Return(nil)

		err := svc.Update(context.Background(), id, types.StudentPatch{
			Name:  types.Some("Renamed"),
			Email: types.Some(current.Email),
		})
		require.NoError(t, err)
	})

	t.Run("store duplicate after pre-check", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(current, nil)
		store.EXPECT().FindByEmail(gomock.Any(), "next@example.com").Return(types.Student{}, storage.ErrNotFound)
		store.EXPECT().Update(gomock.Any(), types.Student{ID: id, Name: "Current", Email: "next@example.com"}).
			Return(storage.ErrDuplicateEmail)

		err := svc.Update(context.Background(), id, types.StudentPatch{Email: types.Some("next@example.com")})
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("deleted between read and write", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(current, nil)
		store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(storage.ErrNotFound)

		err := svc.Update(context.Background(), id, types.StudentPatch{Name: types.Some("Late")})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lookup failure is not NotFound", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(types.Student{}, errors.New("timeout"))

		err := svc.Update(context.Background(), id, types.StudentPatch{Name: types.Some("X")})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestDelete_StoreOutcomes(t *testing.T) {
	id := uuid.New()

	t.Run("unknown id never deletes", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(types.Student{}, storage.ErrNotFound)

		require.ErrorIs(t, svc.Delete(context.Background(), id), ErrNotFound)
	})

	t.Run("delete fails", func(t *testing.T) {
		svc, store := newMockService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(types.Student{ID: id}, nil)
		store.EXPECT().DeleteByID(gomock.Any(), id).Return(errors.New("write fail"))

		err := svc.Delete(context.Background(), id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestListAll_NeverNil(t *testing.T) {
	svc, store := newMockService(t)
	store.EXPECT().FindAll(gomock.Any()).Return(nil, nil)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

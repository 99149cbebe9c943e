package memory

import (
	"context"
	"testing"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestStore(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func() storage.Storage { return New() },
	})
}

func TestCreate_ReusedIDKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	store := New()
	id := uuid.New()

	require.NoError(t, store.Create(ctx, types.Student{ID: id, Name: "One", Email: "one@example.com"}))

	err := store.Create(ctx, types.Student{ID: id, Name: "Two", Email: "two@example.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrDuplicateEmail)

	// the rejected email must not linger in the index
	_, err = store.FindByEmail(ctx, "two@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	found, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "One", found.Name)
}

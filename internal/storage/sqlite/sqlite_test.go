package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	return db
}

func TestSQLite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func() storage.Storage { return newTestDB(t) },
	})
}

func TestNew_ReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "students.db")

	db, err := New(path)
	require.NoError(t, err)
	student := types.Student{ID: uuid.New(), Name: "Persisted", Email: "persisted@example.com"}
	require.NoError(t, db.Create(ctx, student))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	found, err := db.FindByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student, found)
}

func TestNew_InMemory(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Ping(context.Background()))
}

func TestFindByID_CorruptID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	t.Cleanup(func() { _ = db.Close() })

	_, err := db.Db.ExecContext(ctx,
		"INSERT INTO students (id, name, email) VALUES (?, ?, ?)", "not-a-uuid", "Broken", "broken@example.com")
	require.NoError(t, err)

	_, err = db.FindByEmail(ctx, "broken@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

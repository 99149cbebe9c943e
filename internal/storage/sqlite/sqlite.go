// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend for local runs and tests.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql as
// a side effect. We also use its error types to recognise UNIQUE
// constraint violations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at path, creates the students table if it
// does not already exist, and returns a ready-to-use *SQLite.
//
// path may be ":memory:" for a throwaway database.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows a single writer at a time. One connection keeps writes
	// serialised (no "database is locked") and keeps ":memory:" databases
	// alive across calls.
	db.SetMaxOpenConns(1)

	// CREATE TABLE IF NOT EXISTS is idempotent, so it runs on every
	// startup.
	//
	// Schema:
	//   id    UUID in canonical text form, generated by the application
	//   name  student's display name
	//   email UNIQUE, the authoritative duplicate check
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Create inserts a new row into the students table.
//
// Prepared statements use placeholders (?). The driver sends the query and
// the values separately, so user input is never interpreted as SQL.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Create(ctx context.Context, student types.Student) error {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, name, email) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("Create: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, student.ID.String(), student.Name, student.Email)
	if err != nil {
		if isUniqueEmailViolation(err) {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("Create: exec: %w", err)
	}

	return nil
}

// Update replaces name and email of the row with the student's id.
func (s *SQLite) Update(ctx context.Context, student types.Student) error {
	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE students SET name = ?, email = ? WHERE id = ?",
	)
	if err != nil {
		return fmt.Errorf("Update: prepare: %w", err)
	}
	defer stmt.Close()

	// Note the argument order matches the ? order in the SQL:
	//   name, email, id
	result, err := stmt.ExecContext(ctx, student.Name, student.Email, student.ID.String())
	if err != nil {
		if isUniqueEmailViolation(err) {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("Update: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindByID fetches exactly one student row matched by primary key.
//
// QueryRow returns a *Row. If nothing matched, the error only surfaces when
// Scan is called, as sql.ErrNoRows.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) FindByID(ctx context.Context, id uuid.UUID) (types.Student, error) {
	return s.findOne(ctx, "FindByID",
		"SELECT id, name, email FROM students WHERE id = ? LIMIT 1", id.String())
}

// FindByEmail fetches the student owning the email. SQLite's default
// BINARY collation makes the comparison case-sensitive.
func (s *SQLite) FindByEmail(ctx context.Context, email string) (types.Student, error) {
	return s.findOne(ctx, "FindByEmail",
		"SELECT id, name, email FROM students WHERE email = ? LIMIT 1", email)
}

func (s *SQLite) findOne(ctx context.Context, op, query string, arg any) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return types.Student{}, fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("%s: scan: %w", op, err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindAll returns all student rows as a slice.
//
// Query returns *sql.Rows, a cursor over multiple rows. Always defer
// rows.Close() to release the connection, and check rows.Err() after the loop.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) FindAll(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, "SELECT id, name, email FROM students")
	if err != nil {
		return nil, fmt.Errorf("FindAll: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindAll: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("FindAll: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindAll: rows iteration: %w", err)
	}

	return students, nil
}

// DeleteByID removes a student row by primary key.
func (s *SQLite) DeleteByID(ctx context.Context, id uuid.UUID) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id.String())
	if err != nil {
		return fmt.Errorf("DeleteByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteByID: rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Ping verifies the database file is still usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		rawID   string
	)
	// The order of variables in Scan must match the order of columns in SELECT.
	if err := row.Scan(&rawID, &student.Name, &student.Email); err != nil {
		return types.Student{}, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return types.Student{}, fmt.Errorf("parse id %q: %w", rawID, err)
	}
	student.ID = id

	return student, nil
}

// isUniqueEmailViolation reports whether err is SQLite's
// "UNIQUE constraint failed: students.email".
func isUniqueEmailViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

var _ storage.Storage = (*SQLite)(nil)

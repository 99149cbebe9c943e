// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, service, storage, and utils can all import types without
// depending on each other.
package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Student represents a student record in our system.
//
// The ID is a random (v4) UUID generated by whoever creates the record,
// never by the database. It encodes to JSON as its canonical string form:
//
//	{ "id": "0b6c6f0e-...", "name": "John Doe", "email": "john_doe@example.com" }
type Student struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// AddStudentRequest is the body accepted by POST /add.
//
// Email carries no validator tags: every email, empty or overlong included,
// must reach the service so the client gets the same "Invalid email address"
// text as any other rejected address.
type AddStudentRequest struct {
	Name  string `json:"name"  validate:"max=255"`
	Email string `json:"email"`
}

// UpdateStudentRequest is the body accepted by PUT /update.
// Blank name or email means "leave unchanged". ID is parsed by the handler
// with uuid.Parse, which accepts either hex case.
type UpdateStudentRequest struct {
	ID    string   `json:"id"    validate:"required"`
	Name  Optional `json:"name"  validate:"-"`
	Email Optional `json:"email" validate:"-"`
}

// Patch converts the request into the service-level patch.
func (r UpdateStudentRequest) Patch() StudentPatch {
	return StudentPatch{Name: r.Name, Email: r.Email}
}

// StudentPatch carries the fields of an update. Each field is independently
// optional; an unset field keeps the stored value.
type StudentPatch struct {
	Name  Optional
	Email Optional
}

// Optional is a string that is either set to a value or unset.
//
// Blank strings (empty or whitespace only) are treated as unset, so there
// is no way to clear a field to "". A JSON null or a missing key is unset too.
type Optional struct {
	value string
	set   bool
}

// Some returns an Optional holding s, or an unset Optional if s is blank.
func Some(s string) Optional {
	if strings.TrimSpace(s) == "" {
		return Optional{}
	}
	return Optional{value: s, set: true}
}

// None returns an unset Optional.
func None() Optional { return Optional{} }

// Get returns the value and whether it is set.
func (o Optional) Get() (string, bool) { return o.value, o.set }

// IsSet reports whether the Optional holds a value.
func (o Optional) IsSet() bool { return o.set }

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Some(s)
	return nil
}

// MarshalJSON implements json.Marshaler. An unset Optional encodes as "".
func (o Optional) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.value)
}

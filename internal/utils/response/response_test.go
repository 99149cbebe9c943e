package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusOK, []string{}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestWriteText(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteText(rec, http.StatusConflict, "Email already exists"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestGeneralError(t *testing.T) {
	resp := GeneralError(errors.New("boom"))
	assert.Equal(t, Response{Status: StatusError, Error: "boom"}, resp)
}

func TestValidationError(t *testing.T) {
	type payload struct {
		ID   string `validate:"required,uuid"`
		Name string `validate:"max=3"`
	}

	err := validator.New().Struct(payload{ID: "", Name: "toolong"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	resp := ValidationError(verrs)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"status":"error","error":"field ID is required, field Name must be at most 3 characters"}`,
		string(raw))

	err = validator.New().Struct(payload{ID: "not-a-uuid"})
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "field ID must be a valid UUID", ValidationError(verrs).Error)
}

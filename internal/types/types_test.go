package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSet bool
		want    string
	}{
		{name: "value", body: `{"name":"Jane"}`, wantSet: true, want: "Jane"},
		{name: "value keeps inner spaces", body: `{"name":" Jane Doe "}`, wantSet: true, want: " Jane Doe "},
		{name: "empty string", body: `{"name":""}`},
		{name: "whitespace only", body: `{"name":"   "}`},
		{name: "null", body: `{"name":null}`},
		{name: "missing key", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Name Optional `json:"name"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &dst))

			got, ok := dst.Name.Get()
			assert.Equal(t, tt.wantSet, ok)
			assert.Equal(t, tt.wantSet, dst.Name.IsSet())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptional_UnmarshalJSON_RejectsNonString(t *testing.T) {
	var dst struct {
		Name Optional `json:"name"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"name":42}`), &dst))
}

func TestUpdateStudentRequest_Patch(t *testing.T) {
	var req UpdateStudentRequest
	body := `{"id":"0b6c6f0e-8f4e-4f5a-9d3c-2a1b0c9d8e7f","name":"","email":"jane_doe@example.com"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	patch := req.Patch()
	assert.False(t, patch.Name.IsSet())
	email, ok := patch.Email.Get()
	assert.True(t, ok)
	assert.Equal(t, "jane_doe@example.com", email)
}

func TestStudent_JSONShape(t *testing.T) {
	var s Student
	body := `{"id":"0b6c6f0e-8f4e-4f5a-9d3c-2a1b0c9d8e7f","name":"John Doe","email":"john_doe@example.com"}`
	require.NoError(t, json.Unmarshal([]byte(body), &s))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestNone(t *testing.T) {
	assert.False(t, None().IsSet())
	assert.Equal(t, None(), Some(""))
}

package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictUsesBadRequestStatus(t *testing.T) {
	err := Conflict("Product name already exists! Try a different name.")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeConflict, err.Code)
}

func TestUpstreamHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:5432: connection refused")
	err := Upstream("Failed to add product", cause)

	assert.ErrorIs(t, err, cause)

	var body map[string]any
	require.NoError(t, json.Unmarshal(err.ToJSON(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to add product", body["message"])
	assert.NotContains(t, string(err.ToJSON()), "connection refused")
}

func TestAsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("import row 3: %w", NotFound("Product not found"))

	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

func TestValidationDetailsSerialized(t *testing.T) {
	err := ValidationError("All fields are required!", FieldError{Field: "name", Message: "required"})

	var body struct {
		Error struct {
			Details []FieldError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(err.ToJSON(), &body))
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "name", body.Error.Details[0].Field)
}

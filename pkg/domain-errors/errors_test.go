package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeConflict, "duplicate relationship")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("create: %w", New(CodeNotFound, "party not found"))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load relationship")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load relationship: connection reset", err.Error())
}

func TestContextFields(t *testing.T) {
	err := New(CodeValidation, "ownership_percentage must be between 0 and 100").
		WithField("ownership_percentage").
		WithConstraint("range_0_100").
		WithResource("edge-1")

	de, ok := As(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, "ownership_percentage", de.Field)
	assert.Equal(t, "range_0_100", de.Constraint)
	assert.Equal(t, "edge-1", de.Resource)
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:   http.StatusNotFound,
		CodeConflict:   http.StatusConflict,
		CodeValidation: http.StatusUnprocessableEntity,
		CodeBadRequest: http.StatusBadRequest,
		CodeForbidden:  http.StatusForbidden,
		CodeInternal:   http.StatusInternalServerError,
		Code("other"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

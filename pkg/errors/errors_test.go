package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[*AppError]int{
		NotFound("appointment", nil):   http.StatusNotFound,
		Validation("bad time"):         http.StatusBadRequest,
		Conflict("slot taken", nil):    http.StatusConflict,
		Integrity("already paid", nil): http.StatusUnprocessableEntity,
		Transient(stderrors.New("x")):  http.StatusServiceUnavailable,
		Internal(nil):                  http.StatusInternalServerError,
		Forbidden("no"):                http.StatusForbidden,
		Unauthorized(nil):              http.StatusUnauthorized,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.HTTPStatus(), err.Message)
	}
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("create appointment: %w", Conflict("slot taken", nil))

	assert.Equal(t, ErrConflict, CodeOf(err))
	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Transient(stderrors.New("connection reset"))
	assert.Equal(t, "service temporarily unavailable, please retry: connection reset", err.Error())
	assert.ErrorContains(t, stderrors.Unwrap(err), "connection reset")
}

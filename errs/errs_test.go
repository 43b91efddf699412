package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeSuspended, http.StatusForbidden},
		{CodeForbiddenRole, http.StatusForbidden},
		{CodeConflict, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUpstream, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Conflict("you have already reviewed this book")
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("submit: %w", err)
	assert.ErrorIs(t, wrapped, ErrConflict)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Upstream(cause, "generation failed")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "generation failed: dial tcp: timeout", err.Error())
}

func TestFrom(t *testing.T) {
	assert.Equal(t, CodeNotFound, From(NotFound("book not found")).Code)

	e := From(errors.New("boom"))
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, "internal server error", e.Message)
}

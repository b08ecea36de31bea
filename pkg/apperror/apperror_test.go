package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFound("profile", "alice"), http.StatusNotFound},
		{"invalid input", NewInvalidInput("username is already taken", nil), http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("no session", nil), http.StatusUnauthorized},
		{"internal", NewInternal("boom", errors.New("db down")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("save profile failed: %w", NewInvalidInput("bad", nil)), http.StatusBadRequest},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestPartialFailure(t *testing.T) {
	err := NewPartialFailure("persist order", []string{"a", "b"}, []error{errors.New("x"), errors.New("y")})

	assert.ErrorIs(t, err, ErrPartialFailure)
	assert.Equal(t, []string{"a", "b"}, err.Failed)
	assert.Contains(t, err.Details, "2 item(s)")

	var pf *PartialFailure
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &pf))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "username is already taken", UserMessage(NewInvalidInput("username is already taken", nil)))
	assert.Equal(t, ErrInternal.Error(), UserMessage(errors.New("leaky driver detail")))
}

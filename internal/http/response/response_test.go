package response

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.ErrNotFound, http.StatusNotFound},
		{errors.ErrAlreadyExists, http.StatusConflict},
		{errors.ErrConflict, http.StatusConflict},
		{errors.ErrInvalidArgument, http.StatusBadRequest},
		{errors.ErrUnauthorized, http.StatusUnauthorized},
		{errors.ErrForbidden, http.StatusForbidden},
		{errors.ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusForError(tc.err); got != tc.want {
			t.Fatalf("StatusForError(%v): want=%d got=%d", tc.err, tc.want, got)
		}
	}
}

func TestStatusForErrorWrapped(t *testing.T) {
	err := fmt.Errorf("claim CLM-123 cannot move: %w", errors.ErrConflict)
	if got := StatusForError(err); got != http.StatusConflict {
		t.Fatalf("StatusForError(wrapped conflict): want=%d got=%d", http.StatusConflict, got)
	}
}

package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("coded errors report their code", func(t *testing.T) {
		assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "gone")))
	})

	t.Run("code survives wrapping", func(t *testing.T) {
		inner := New(CodeMaskLengthMismatch, "mask has 3 flags, schema has 5")
		outer := fmt.Errorf("handling request: %w", inner)
		assert.Equal(t, CodeMaskLengthMismatch, CodeOf(outer))
		assert.True(t, HasCode(outer, CodeMaskLengthMismatch))
	})

	t.Run("uncoded errors collapse to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("connection reset")))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(cause, CodeInternal, "could not store record")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "could not store record")
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeMaskLengthMismatch))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeUnknownField))
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusForbidden, ToHTTPStatus(CodeForbidden))
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("mystery")))
}

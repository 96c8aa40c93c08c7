package dErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodePersistence, "insert match")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodePersistence, CodeOf(err))
	assert.Contains(t, err.Error(), "insert match")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeDuplicateMatch, "pair exists"))
	assert.True(t, Is(err, CodeDuplicateMatch))
	assert.False(t, Is(err, CodeNotFound))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:      http.StatusBadRequest,
		CodeIllegalTransition: http.StatusConflict,
		CodeDuplicateMatch:    http.StatusConflict,
		CodeNotFound:          http.StatusNotFound,
		CodePersistence:       http.StatusServiceUnavailable,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeInternal:          http.StatusInternalServerError,
		Code("unknown"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

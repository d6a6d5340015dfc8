package exitprobe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name      string
		err       error
		runtime   bool
		failure   bool
		selection bool
		aborted   bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: base},
		{name: "runtime", err: NewRuntimeError(base), runtime: true},
		{name: "wrapped runtime", err: fmt.Errorf("failed to start: %w", NewRuntimeError(base)), runtime: true},
		{name: "failure", err: NewTestFailureError("2 failed"), failure: true},
		{name: "selection", err: NewSelectionError(base), selection: true},
		{name: "joined aborted", err: errors.Join(fmt.Errorf("failed to start: %w", &AbortedError{RunID: "r"}), errors.New("interrupted")), aborted: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.runtime, IsRuntimeError(tt.err))
			assert.Equal(t, tt.failure, IsTestFailureError(tt.err))
			assert.Equal(t, tt.selection, IsSelectionError(tt.err))
			assert.Equal(t, tt.aborted, IsAbortedError(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	base := errors.New("boom")
	assert.Equal(t, "runtime error: boom", NewRuntimeError(base).Error())
	assert.Equal(t, "test failure: 2 failed", NewTestFailureError("2 failed").Error())
	assert.Equal(t, "selection error: boom", NewSelectionError(base).Error())
	assert.Equal(t, "run r aborted", (&AbortedError{RunID: "r"}).Error())
	assert.ErrorIs(t, NewSelectionError(base), base)
	assert.ErrorIs(t, NewRuntimeError(base), base)
}

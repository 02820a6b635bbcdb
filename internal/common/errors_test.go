package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("admit: %w", NewValidationError(ReasonTooLarge, "60MB"))

	assert.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonTooLarge, ve.Reason)
	assert.Equal(t, "validation error: TooLarge: 60MB", ve.Error())
}

func TestTransportError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *TransportError
		want string
	}{
		{"status and message", &TransportError{Op: "put", Status: 500, Message: "boom"}, "put: remote returned 500: boom"},
		{"status only", &TransportError{Op: "get", Status: 502}, "get: remote returned 502"},
		{"network", &TransportError{Op: "get", Err: errors.New("dial tcp")}, "get: dial tcp"},
		{"bare", &TransportError{Op: "get"}, "get: transport error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
			assert.ErrorIs(t, tc.err, ErrTransport)
		})
	}
}

func TestPartialWriteError_KeepsCause(t *testing.T) {
	err := &PartialWriteError{BlobPath: "public/strips/a.png", Err: ErrVersionConflict}

	assert.ErrorIs(t, err, ErrPartialWrite)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Contains(t, err.Error(), "public/strips/a.png")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unsupported", NewValidationError(ReasonUnsupportedType, ""), "Only images"},
		{"too large", NewValidationError(ReasonTooLarge, ""), "50MB"},
		{"date", NewValidationError(ReasonInvalidDate, ""), "YYYY-MM-DD"},
		{"conflict", fmt.Errorf("commit: %w", ErrVersionConflict), "publish again"},
		{"partial conflict", &PartialWriteError{BlobPath: "x.png", Err: ErrVersionConflict}, "x.png was uploaded but not linked"},
		{"partial other", &PartialWriteError{BlobPath: "x.png", Err: errors.New("db down")}, "catalog was not updated"},
		{"locked", fmt.Errorf("%w: retry in 4m0s", ErrLocked), "Too many failed attempts"},
		{"auth", ErrUnauthorized, "Not authorized"},
		{"transport", &TransportError{Op: "get", Status: 503}, "Remote error"},
		{"not found", ErrNotFound, "Not found"},
		{"other", errors.New("boom"), "Error: boom"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Describe(tc.err)
			if tc.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tc.want)
		})
	}
}

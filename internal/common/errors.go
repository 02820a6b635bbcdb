// Package common defines the error taxonomy shared by the catalog, the
// persistence backends and the session gate. Callers match the sentinels with
// errors.Is and the structured errors with errors.As.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entry or remote document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a rejected upload or draft. The user corrects the
	// input and tries again.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized covers a missing or invalid credential and a failed
	// session or role check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrLocked is returned by the session gate while a lockout is active.
	ErrLocked = errors.New("too many failed attempts")

	// ErrVersionConflict means the remote document changed between read and
	// conditional write. The whole publish sequence has to be re-attempted.
	ErrVersionConflict = errors.New("version conflict")

	// ErrTransport covers network failures and unexpected remote responses.
	ErrTransport = errors.New("transport error")

	// ErrPartialWrite means the media blob was stored but the entry was not.
	ErrPartialWrite = errors.New("partial write")
)

// ValidationReason names the check a candidate upload failed.
type ValidationReason string

const (
	ReasonUnsupportedType ValidationReason = "UnsupportedType"
	ReasonTooLarge        ValidationReason = "TooLarge"
	ReasonInvalidDate     ValidationReason = "InvalidDate"
	ReasonInvalidEntry    ValidationReason = "InvalidEntry"
)

// ValidationError carries the rejection reason and an optional detail.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for reason.
func NewValidationError(reason ValidationReason, detail string) *ValidationError {
	return &ValidationError{Reason: reason, Detail: detail}
}

// TransportError describes a failed request to a remote store. Status is zero
// when no HTTP response was received.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: remote returned %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport error"
	}
}

// Is reports ErrTransport so callers can match the category.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// PartialWriteError is returned when the blob write succeeded and the entry
// write did not. The blob at BlobPath is left in place.
type PartialWriteError struct {
	BlobPath string
	Err      error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("media stored at %s but entry was not saved: %v", e.BlobPath, e.Err)
}

func (e *PartialWriteError) Is(target error) bool { return target == ErrPartialWrite }

func (e *PartialWriteError) Unwrap() error { return e.Err }

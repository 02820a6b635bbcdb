package common

import (
	"errors"
	"fmt"
)

// Describe turns err into the notification shown to the operator. Every
// category of the taxonomy gets its own wording so that no failure reads like
// a success.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		ve *ValidationError
		pw *PartialWriteError
		te *TransportError
	)

	switch {
	case errors.As(err, &ve):
		switch ve.Reason {
		case ReasonUnsupportedType:
			return "Only images (JPG, PNG, GIF, WebP) and videos (MP4, WebM, OGG) are allowed"
		case ReasonTooLarge:
			return "The file must not exceed 50MB"
		case ReasonInvalidDate:
			return "Invalid date format, expected YYYY-MM-DD"
		default:
			return "Invalid input: " + ve.Error()
		}
	case errors.As(err, &pw):
		if errors.Is(pw.Err, ErrVersionConflict) {
			return fmt.Sprintf("Someone else updated the catalog first. The media file %s was uploaded but not linked; publish again", pw.BlobPath)
		}
		return fmt.Sprintf("The media file %s was uploaded but the catalog was not updated: %v", pw.BlobPath, pw.Err)
	case errors.Is(err, ErrVersionConflict):
		return "Someone else updated the catalog first; publish again"
	case errors.Is(err, ErrLocked):
		return "Too many failed attempts: " + err.Error()
	case errors.Is(err, ErrUnauthorized):
		return "Not authorized: " + err.Error()
	case errors.As(err, &te):
		return "Remote error: " + te.Error()
	case errors.Is(err, ErrNotFound):
		return "Not found: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

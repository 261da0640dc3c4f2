package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrUpload        = errors.New("upload failed")
)

// Error is a classified failure returned by AssetService.
type Error struct {
	Kind    error
	Status  int
	Message string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Details)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Kind }

// StatusCode returns the HTTP status class carried by the error.
func (e *Error) StatusCode() int { return e.Status }

func validationError(status int, msg string, details ...string) *Error {
	return &Error{Kind: ErrValidation, Status: status, Message: msg, Details: details}
}

func notFoundError(msg string, details ...string) *Error {
	return &Error{Kind: ErrNotFound, Status: http.StatusNotFound, Message: msg, Details: details}
}

func quotaError(msg string) *Error {
	return &Error{Kind: ErrQuotaExceeded, Status: http.StatusBadRequest, Message: msg}
}

// UploadError reports an object store failure in the middle of an upload
// sequence. Uploaded holds the URLs stored before the failure (already
// appended to the owner's record when Persisted is true); Pending holds the
// original names of files that were not uploaded.
type UploadError struct {
	Err       error
	Uploaded  []string
	Pending   []string
	Persisted bool
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed after %d file(s), %d pending: %v", len(e.Uploaded), len(e.Pending), e.Err)
}

func (e *UploadError) Unwrap() []error { return []error{ErrUpload, e.Err} }

func (e *UploadError) StatusCode() int { return http.StatusBadGateway }

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Intake limits, checked before any network call.
	ErrImageTooLarge = errors.New("image exceeds maximum size")
	ErrTooManyImages = errors.New("too many images in submission")
)

// FieldError names a single violated input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated field of a submission, not just
// the first one found.
type ValidationError struct {
	Violations []FieldError
}

func (v *ValidationError) Add(field, message string) {
	v.Violations = append(v.Violations, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no violations were recorded, so callers can write
// `return v.OrNil()` without a typed-nil footgun.
func (v ValidationError) OrNil() error {
	if len(v.Violations) == 0 {
		return nil
	}
	return &v
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Violations))
	for _, f := range v.Violations {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// UploadError marks a failure of the asset-upload step. The pipeline never
// persists a record after one; limit violations unwrap to ErrImageTooLarge
// or ErrTooManyImages so the handler can answer 400 instead of 500.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrValidation          = errors.New("validation failed")
	ErrDonationUnavailable = errors.New("this donation is not available for requests")
	ErrDuplicateRequest    = errors.New("you have already requested this donation")
	ErrRequestLimitReached = errors.New("this donation is no longer accepting requests")
	ErrAlreadyProcessed    = errors.New("request is already processed")
	ErrNotApproved         = errors.New("request has not been approved")
	ErrQuantityExceeded    = errors.New("requested quantity exceeds available quantity")
)

// ValidationError collects per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add records a message for field, keeping the first one.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = map[string]string{}
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
}

// MaxLen records a message for field when value is longer than n characters.
func (v *ValidationError) MaxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", n))
	}
}

// OrNil returns nil when no field failed.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

// Conflict marks field errors caused by uniqueness constraints. The result
// matches both ErrConflict and ErrValidation.
func Conflict(verr *ValidationError) error {
	return fmt.Errorf("%w: %w", ErrConflict, verr)
}

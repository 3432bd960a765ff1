package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrDuplicate is returned when a uniqueness rule such as a repeated
	// document or email rejects a write.
	ErrDuplicate = errors.New("application: duplicate")
	// ErrDeleteNotAllowed is returned when deleting a booking that is
	// still scheduled for a future slot.
	ErrDeleteNotAllowed = errors.New("application: delete not allowed")
	// ErrResourceInUse is returned when deleting a patient or doctor that
	// still has bookings referencing them.
	ErrResourceInUse = errors.New("application: resource in use")
	// ErrStorage wraps unexpected persistence failures.
	ErrStorage = errors.New("application: storage failure")
)

// DuplicateError names the field whose uniqueness rule rejected a write.
// It unwraps to ErrDuplicate so errors.Is checks keep working.
type DuplicateError struct {
	Field string
}

// Error implements the error interface.
func (d *DuplicateError) Error() string {
	return fmt.Sprintf("application: duplicate %s", d.Field)
}

// Unwrap ties the typed error to the ErrDuplicate sentinel.
func (d *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// addIf records the error message under field when err is non-nil.
func (v *ValidationError) addIf(field string, err error) {
	if err != nil {
		v.add(field, err.Error())
	}
}

// ConflictError reports that a requested slot is already occupied.
type ConflictError struct {
	// Party is "doctor" or "patient", naming whose calendar is blocked.
	Party string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("scheduling conflict: %s already booked at the requested slot", c.Party)
}

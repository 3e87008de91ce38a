// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
//
// The taxonomy is intentionally small: every failure of a core operation maps to
// exactly one of these kinds, and the API layer translates the kind to a response.
var (
	// ErrNotFound covers both "entity missing" and "caller does not own it".
	// The two cases are indistinguishable to the caller.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is a uniqueness violation.
	ErrConflict = errors.New("entity already exists")

	// ErrForbidden is a role-gated action attempted by the wrong role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is a missing or malformed input.
	ErrValidation = errors.New("validation error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "lead", "placement", "progression"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validation builds a validation error for a missing or malformed field.
func Validation(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrValidation, message)
}

// Progression domain errors
var (
	ErrProgressionExists = NewDomainError("progression", "Create", ErrConflict, "progression already exists")
	ErrUnknownMilestone  = NewDomainError("progression", "SetMilestone", ErrValidation, "unknown milestone")
	ErrInvalidPhase      = NewDomainError("progression", "Validate", ErrValidation, "invalid phase")
	ErrPhaseRejected     = NewDomainError("progression", "AdvancePhase", ErrValidation, "phase transition rejected")
	ErrStaffOnly         = NewDomainError("progression", "AdvancePhase", ErrForbidden, "only staff may change a student's phase")
)

// Schedule domain errors
var (
	ErrScheduleNotFound = NewDomainError("schedule", "Find", ErrNotFound, "phase schedule not found")
	ErrScheduleExists   = NewDomainError("schedule", "Create", ErrConflict, "phase schedule already exists for group and phase")
	ErrInvalidWindow    = NewDomainError("schedule", "Validate", ErrValidation, "start date must not be after end date")
)

// Lead domain errors
var (
	ErrLeadNotFound      = NewDomainError("lead", "Find", ErrNotFound, "lead not found")
	ErrLeadExists        = NewDomainError("lead", "Create", ErrConflict, "lead already exists for this company")
	ErrLeadCompanyNeeded = NewDomainError("lead", "Create", ErrValidation, "companyId is required")
	ErrInvalidLeadStatus = NewDomainError("lead", "Update", ErrValidation, "invalid lead status")
)

// Placement domain errors
var (
	ErrPlacementNotFound      = NewDomainError("placement", "Find", ErrNotFound, "LIA placement not found")
	ErrPlacementExists        = NewDomainError("placement", "Create", ErrConflict, "LIA placement already exists")
	ErrPlacementFieldsNeeded  = NewDomainError("placement", "Create", ErrValidation, "companyId and supervisor are required")
	ErrInvalidPlacementStatus = NewDomainError("placement", "Update", ErrValidation, "invalid placement status")
	ErrPlacementStaffOnly     = NewDomainError("placement", "Update", ErrForbidden, "only admin or teacher may change placement status")
	ErrPlacementAdminOnly     = NewDomainError("placement", "Delete", ErrForbidden, "only admin may delete a placement")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden checks if the error is a role violation.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when creating a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUserNotFound is returned when the user an analysis was requested for does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrConsentRequired is returned when recommendations are requested for a user without consent
	ErrConsentRequired = errors.New("user has not granted consent")
	// ErrAnalyzerComputation is returned when a feature analyzer cannot produce a result
	ErrAnalyzerComputation = errors.New("analyzer computation failed")
	// ErrPersonaPredicate is returned when a persona predicate cannot be evaluated
	ErrPersonaPredicate = errors.New("persona predicate failed")
	// ErrOfferIneligible is returned when an offer fails one or more eligibility checks
	ErrOfferIneligible = errors.New("offer is not eligible for user")
	// ErrProhibitedProduct is returned when an offer matches the prohibited product list
	ErrProhibitedProduct = errors.New("offer is a prohibited product")
)

// AnalyzerError reports which analyzer family failed and why.
type AnalyzerError struct {
	Family string
	Err    error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("%s analyzer: %v", e.Family, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }

// Is reports ErrAnalyzerComputation for every AnalyzerError.
func (e *AnalyzerError) Is(target error) bool {
	return target == ErrAnalyzerComputation
}

// PredicateError reports a persona whose predicate could not be evaluated.
type PredicateError struct {
	PersonaID string
	Err       error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("persona %s: %v", e.PersonaID, e.Err)
}

func (e *PredicateError) Unwrap() error { return e.Err }

func (e *PredicateError) Is(target error) bool {
	return target == ErrPersonaPredicate
}

package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound     = errors.New("resource not found")
	ErrPlanNotFound = fmt.Errorf("%w: plan", ErrNotFound)

	// Parameter errors
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrDomain            = errors.New("domain error")

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrNotBinary        = errors.New("data is not binary")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInvalidParametersError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, reason)
}

func NewMissingParameterError(field string, calculator string) error {
	return fmt.Errorf("%w: %s is required by %s", ErrMissingParameter, field, calculator)
}

func NewDomainError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDomain, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidParameters(err error) bool {
	return errors.Is(err, ErrInvalidParameters)
}

func IsMissingParameter(err error) bool {
	return errors.Is(err, ErrMissingParameter)
}

func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

// IsUsageError reports whether err was caused by the caller's inputs rather than the system.
func IsUsageError(err error) bool {
	return IsInvalidParameters(err) ||
		IsMissingParameter(err) ||
		IsDomainError(err) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrNotBinary)
}

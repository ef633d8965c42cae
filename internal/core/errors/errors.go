// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Data source errors.
var (
	// ErrNoDataAvailable indicates that neither the primary store nor the bundled
	// fallback yielded any records.
	ErrNoDataAvailable = errors.New("no data available")

	// ErrMalformedRecord indicates a stored document lacks a required identity field.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDuplicateRecord indicates a record id appeared more than once in one load.
	ErrDuplicateRecord = errors.New("duplicate record id")

	// ErrSourceDisabled indicates a configured source is not available in this deployment.
	ErrSourceDisabled = errors.New("data source disabled")

	// ErrEmptySource indicates a source was read successfully but held no records.
	ErrEmptySource = errors.New("source returned no records")

	// ErrPrimaryUnavailable indicates the primary store could not be read, so
	// the current snapshot came from the fallback and cannot back a mutation.
	ErrPrimaryUnavailable = errors.New("primary source unavailable")
)

// Filter and aggregation errors. The engine never returns these; they tag diagnostics.
var (
	// ErrInvalidFilterCriterion marks an unknown key or an out-of-domain option value.
	ErrInvalidFilterCriterion = errors.New("invalid filter criterion")

	// ErrEmptyAggregationRange indicates no valid year was observed in the filtered set.
	ErrEmptyAggregationRange = errors.New("no year data in range")
)

// Entity errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidID indicates an invalid identifier.
	ErrInvalidID = errors.New("invalid id")
)

// Access errors.
var (
	// ErrUnauthenticated indicates the caller presented no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPermissionDenied indicates the caller's role lacks the required capability.
	ErrPermissionDenied = errors.New("permission denied")
)

// Backup errors.
var (
	// ErrBackupNotFound indicates the named backup does not exist.
	ErrBackupNotFound = errors.New("backup not found")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

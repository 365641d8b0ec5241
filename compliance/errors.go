/*
errors.go - Centralized error types for the compliance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API handlers, schedulers) branch on these with errors.Is.

ERROR CATEGORIES:
  1. Input errors    - bad dates, missing required employee fields
  2. Lookup errors   - unknown organization/employee
  3. Boundary errors - residency provider and persistence failures

RETRY SEMANTICS:
  Nothing inside the pure evaluation functions is recoverable by retry;
  they are deterministic. Only ErrPersistenceConflict retries, under the
  per-organization serialization point.

SEE ALSO:
  - engine.go: retry loop around snapshot appends
  - residency.go: provider failure propagation
*/
package compliance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed inputs: as-of dates before
	// the certification anchor, employees missing required fields.
	// Rejected synchronously, never partially applied.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOrganizationNotFound is returned for unknown organization ids.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrEmployeeNotFound is returned for unknown employee ids.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrProviderUnavailable is returned when the residency fact provider
	// fails. The engine never guesses a residency status; the failure is
	// surfaced and the fallback policy belongs to the caller.
	ErrProviderUnavailable = errors.New("residency provider unavailable")

	// ErrPersistenceConflict is returned when a snapshot append or grace
	// period upsert conflicts with a concurrent write. Recovered by
	// retrying under the per-organization lock.
	ErrPersistenceConflict = errors.New("persistence conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError carries the field and reason for an input rejection.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// ProviderError wraps a residency provider failure with the address that
// could not be resolved.
type ProviderError struct {
	Address string
	Cause   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("residency lookup failed for %q: %v", e.Address, e.Cause)
}

func (e *ProviderError) Unwrap() error { return ErrProviderUnavailable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistenceConflict)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

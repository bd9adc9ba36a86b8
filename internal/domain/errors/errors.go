// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows clients to handle specific cases.
//
// Pattern: Sentinel Errors + Closed Sum of Error Kinds
//
// The transfer engine never panics and never leaks storage error codes:
// every failure is one of the kinds below, and the HTTP adapter maps kinds
// to status codes.
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for domain validation
var (
	// Entity lookup errors
	ErrEntityNotFound = errors.New("entity not found")

	// User / asset errors
	ErrUserNotFound     = errors.New("user not found")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrTreasuryNotFound = errors.New("treasury user not found")

	// Transfer errors
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrSelfTransfer           = errors.New("cannot transfer to the same user")
	ErrDuplicateTransaction   = errors.New("duplicate transaction detected")
)

// DomainError wraps an error with a machine-readable code and a
// human-readable message. The code survives to the HTTP layer.
type DomainError struct {
	Code    string // e.g. "INSUFFICIENT_FUNDS"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// ValidationError represents a caller-supplied input that violates a contract.
// Terminal: the same request will never succeed, so the outcome is cacheable.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ContentionError is a transient storage-layer condition: deadlock detected
// or a lock acquisition timed out. The engine retries these with backoff;
// only after the retry budget is exhausted does the caller see one.
type ContentionError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ContentionError) Error() string {
	return fmt.Sprintf("storage contention after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap implements error unwrapping.
func (e *ContentionError) Unwrap() error {
	return e.Err
}

// NewContentionError creates a contention error after retry exhaustion.
func NewContentionError(attempts int, err error) *ContentionError {
	return &ContentionError{Attempts: attempts, Err: err}
}

// CorruptionError marks a broken invariant observed at runtime (e.g. a
// negative wallet balance). Fatal for the request; requires an operator.
type CorruptionError struct {
	Entity   string
	EntityID string
	Message  string
}

// Error implements the error interface.
func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corruption detected on %s [%s]: %s", e.Entity, e.EntityID, e.Message)
}

// NewCorruptionError creates a corruption error.
func NewCorruptionError(entity, entityID, message string) *CorruptionError {
	return &CorruptionError{Entity: entity, EntityID: entityID, Message: message}
}

// InFlightError signals that another request with the same idempotency key
// is currently being processed. Not terminal: the caller may retry shortly.
type InFlightError struct {
	IdempotencyKey string
}

// Error implements the error interface.
func (e *InFlightError) Error() string {
	return fmt.Sprintf("request with idempotency key %q is already in flight", e.IdempotencyKey)
}

// NewInFlightError creates an in-flight error.
func NewInFlightError(key string) *InFlightError {
	return &InFlightError{IdempotencyKey: key}
}

// Is re-exports errors.Is so callers of this package do not need to
// import both.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Helper predicates for common error checking

// IsNotFound checks if an error is any of the "not found" sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrWalletNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsInsufficientFunds checks for the business-level rejection.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsContention checks if an error is a (surfaced) contention error.
func IsContention(err error) bool {
	var ce *ContentionError
	return errors.As(err, &ce)
}

// IsCorruption checks if an error is a corruption error.
func IsCorruption(err error) bool {
	var ce *CorruptionError
	return errors.As(err, &ce)
}

// IsInFlight checks if an error is an in-flight duplicate.
func IsInFlight(err error) bool {
	var ie *InFlightError
	return errors.As(err, &ie)
}

// IsTerminal reports whether an error outcome may be cached in the
// idempotency store. In-flight and contention conditions are transient and
// must never be cached.
func IsTerminal(err error) bool {
	if err == nil {
		return true
	}
	return IsValidation(err) || IsNotFound(err) || IsInsufficientFunds(err) ||
		errors.Is(err, ErrSelfTransfer) || errors.Is(err, ErrInvalidTransactionType)
}

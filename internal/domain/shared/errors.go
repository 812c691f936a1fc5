package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Error codes used across the billing engine. Components construct errors with
// these codes and a context-rich message (rate name, date, scope) so that
// configuration gaps can be diagnosed from the error alone.
const (
	CodeRateNotFound           = "RATE_NOT_FOUND"
	CodeRateWindowOverlap      = "RATE_WINDOW_OVERLAP"
	CodeRateClosed             = "RATE_CLOSED"
	CodeTargetNotFound         = "TARGET_NOT_FOUND"
	CodeInvalidApplicationRule = "INVALID_APPLICATION_RULE"
	CodePriorStatementMissing  = "PRIOR_STATEMENT_MISSING"
	CodeStatementLocked        = "STATEMENT_LOCKED"
	CodePaymentNotCompleted    = "PAYMENT_NOT_COMPLETED"
	CodeDataInconsistency      = "DATA_INCONSISTENCY"
)

// IsDomainErrorCode reports whether err is, or wraps, a DomainError
// carrying the given code.
func IsDomainErrorCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

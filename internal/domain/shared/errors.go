package shared

import "errors"

// ErrorKind classifies a DomainError for propagation and presentation
type ErrorKind string

const (
	// KindValidation is a user-correctable error returned to the immediate caller
	KindValidation ErrorKind = "validation"
	// KindNotFound means the resource does not exist for the active tenant
	KindNotFound ErrorKind = "not_found"
	// KindConflict is a transient storage collision that may be retried
	KindConflict ErrorKind = "conflict"
	// KindFatalNumbering means a unique number could not be guaranteed after retries
	KindFatalNumbering ErrorKind = "fatal_numbering"
	// KindInvariant is a programming error: the operation is aborted and logged
	KindInvariant ErrorKind = "invariant"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so that sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of the error carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Kind: e.Kind, cause: cause}
}

// NewDomainError creates a new validation error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewDomainErrorOfKind creates a domain error of the given kind
func NewDomainErrorOfKind(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kind,
	}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainErrorOfKind(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrInvalidInput    = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState    = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNumberConflict  = NewDomainErrorOfKind(KindConflict, "NUMBER_CONFLICT", "Document number already taken")
	ErrNumberingFailed = NewDomainErrorOfKind(KindFatalNumbering, "NUMBERING_FAILED", "Could not complete operation, please retry")
	ErrTenantScope     = NewDomainErrorOfKind(KindInvariant, "TENANT_SCOPE_VIOLATION", "Tenant scope violation")
	ErrInvariant       = NewDomainErrorOfKind(KindInvariant, "INVARIANT_VIOLATION", "Internal error")
)

// AsDomainError returns the first DomainError in err's chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of the first DomainError in err's chain.
// Errors that are not domain errors are reported as invariant violations.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInvariant
}

// IsValidation reports whether err is a user-correctable domain error
func IsValidation(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == KindValidation
}

// IsConflict reports whether err is a retryable storage collision
func IsConflict(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == KindConflict
}

// IsInvariant reports whether err signals a programming error
func IsInvariant(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == KindInvariant
}

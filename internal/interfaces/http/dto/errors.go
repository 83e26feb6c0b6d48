package dto

import (
	"net/http"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used when an operation could not complete and may be retried
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeValidation is the code for request validation failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeForbidden      = "ERR_FORBIDDEN"
	ErrCodeTokenExpired   = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid   = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked   = "ERR_TOKEN_REVOKED"
	ErrCodeTenantRequired = "ERR_TENANT_REQUIRED"
	ErrCodeTenantUnknown  = "ERR_TENANT_UNKNOWN"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Generic messages for errors whose details stay in the logs
const (
	MessageUnavailable = "Could not complete operation, please retry"
	MessageInternal    = "An unexpected error occurred"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:     http.StatusUnprocessableEntity,
	shared.KindNotFound:       http.StatusNotFound,
	shared.KindConflict:       http.StatusConflict,
	shared.KindFatalNumbering: http.StatusServiceUnavailable,
	shared.KindInvariant:      http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status code for a domain error kind.
// Unknown kinds map to 500 Internal Server Error.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFor returns the status, code and message presented to a client for
// err. Fatal numbering and invariant errors never expose their details.
func ErrorFor(err error) (status int, code, message string) {
	kind := shared.KindOf(err)
	status = StatusForKind(kind)

	switch kind {
	case shared.KindFatalNumbering:
		return status, ErrCodeUnavailable, MessageUnavailable
	case shared.KindInvariant:
		return status, ErrCodeInternal, MessageInternal
	}

	de, ok := shared.AsDomainError(err)
	if !ok {
		return http.StatusInternalServerError, ErrCodeInternal, MessageInternal
	}
	return status, de.Code, de.Message
}

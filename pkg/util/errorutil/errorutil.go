package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind groups error codes into the categories callers branch on.
type ErrorKind string

const (
	KindAuth        ErrorKind = "AUTH"
	KindValidation  ErrorKind = "VALIDATION"
	KindNotFound    ErrorKind = "NOT_FOUND"
	KindState       ErrorKind = "STATE"
	KindOTP         ErrorKind = "OTP"
	KindConflict    ErrorKind = "CONFLICT"
	KindUnavailable ErrorKind = "UNAVAILABLE"
	KindInternal    ErrorKind = "INTERNAL"
)

// Machine-readable error codes.
const (
	CodeMissingCredential  = "MISSING_CREDENTIAL"
	CodeInvalidCredential  = "INVALID_CREDENTIAL"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserDeactivated    = "USER_DEACTIVATED"
	CodeRoleNotPermitted   = "ROLE_NOT_PERMITTED"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeOTPNotIssued       = "OTP_NOT_ISSUED"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeOTPMismatch        = "OTP_MISMATCH"
	CodeOTPTooManyAttempts = "OTP_TOO_MANY_ATTEMPTS"
	CodeConflict           = "CONFLICT"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Kind       ErrorKind
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// FieldError describes one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind ErrorKind, code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewFieldValidationError reports every failing field at once.
func NewFieldValidationError(fields []FieldError) error {
	return NewValidationError("validation failed", map[string]any{"fields": fields})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Kind:       KindNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthorized builds an AUTH error answered with 401.
func NewUnauthorized(code, message string) error {
	return NewDomainError(KindAuth, code, message, http.StatusUnauthorized, nil)
}

// NewForbidden builds an AUTH error answered with 403.
func NewForbidden(code, message string) error {
	return NewDomainError(KindAuth, code, message, http.StatusForbidden, nil)
}

func NewStateError(message string, details map[string]any) error {
	return NewDomainError(KindState, CodeInvalidState, message, http.StatusConflict, details)
}

func NewOTPError(code, message string) error {
	status := http.StatusBadRequest
	if code == CodeOTPTooManyAttempts {
		status = http.StatusTooManyRequests
	}
	return NewDomainError(KindOTP, code, message, status, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(KindConflict, CodeConflict, message, http.StatusConflict, details)
}

// NewUnavailable marks a transient store failure the caller may retry.
func NewUnavailable(err error) error {
	return &DomainError{
		Kind:       KindUnavailable,
		Code:       CodeStoreUnavailable,
		Message:    "storage temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:       KindInternal,
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Kind == kind
}

package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict  = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Pipeline error taxonomy. Certificate and migration failures are fatal to
	// the current operation; network exhaustion is retryable later; authority
	// rejections are terminal and require upstream correction.
	ErrMalformedCertificate = new(ErrCodeMalformedCertificate, "malformed certificate")
	ErrInvalidPassphrase    = new(ErrCodeInvalidPassphrase, "invalid private key passphrase")
	ErrKeyCertMismatch      = new(ErrCodeKeyCertMismatch, "private key does not match certificate")
	ErrCertificateExpired   = new(ErrCodeCertificateExpired, "certificate outside validity window")
	ErrDecryptionFailed     = new(ErrCodeDecryptionFailed, "private key decryption failed")
	ErrNotSignable          = new(ErrCodeNotSignable, "document is not signable")
	ErrUnsupportedMigration = new(ErrCodeUnsupportedMigration, "migration would lose data")
	ErrAuthorityRejected    = new(ErrCodeAuthorityRejected, "stamping authority rejected the document")
	ErrRetryExhausted       = new(ErrCodeRetryExhausted, "retry budget exhausted, try again later")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:           http.StatusInternalServerError,
		ErrDatabase:             http.StatusInternalServerError,
		ErrNotFound:             http.StatusNotFound,
		ErrAlreadyExists:        http.StatusConflict,
		ErrVersionConflict:      http.StatusConflict,
		ErrValidation:           http.StatusBadRequest,
		ErrInvalidOperation:     http.StatusBadRequest,
		ErrSystem:               http.StatusInternalServerError,
		ErrMalformedCertificate: http.StatusBadRequest,
		ErrInvalidPassphrase:    http.StatusBadRequest,
		ErrKeyCertMismatch:      http.StatusBadRequest,
		ErrCertificateExpired:   http.StatusUnprocessableEntity,
		ErrDecryptionFailed:     http.StatusBadRequest,
		ErrNotSignable:          http.StatusUnprocessableEntity,
		ErrUnsupportedMigration: http.StatusUnprocessableEntity,
		ErrAuthorityRejected:    http.StatusBadGateway,
		ErrRetryExhausted:       http.StatusServiceUnavailable,
	}
)

const (
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeDatabase         = "database_error"

	ErrCodeMalformedCertificate = "malformed_certificate"
	ErrCodeInvalidPassphrase    = "invalid_passphrase"
	ErrCodeKeyCertMismatch      = "key_cert_mismatch"
	ErrCodeCertificateExpired   = "certificate_expired"
	ErrCodeDecryptionFailed     = "decryption_failed"
	ErrCodeNotSignable          = "not_signable"
	ErrCodeUnsupportedMigration = "unsupported_migration"
	ErrCodeAuthorityRejected    = "authority_rejected"
	ErrCodeRetryExhausted       = "retry_exhausted"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// new creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

// IsAuthorityRejected checks if the stamping authority rejected the document.
// Rejections are terminal and must never be retried automatically.
func IsAuthorityRejected(err error) bool {
	return errors.Is(err, ErrAuthorityRejected)
}

// IsRetryExhausted checks if an operation ran out of retry budget. The caller
// may resubmit later; the document keeps its last good state.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}

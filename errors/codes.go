package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline errors
const (
	// ErrCodeCredentialMissing indicates no API credential is configured.
	// Recoverable by the user; the pipeline suspends instead of failing.
	ErrCodeCredentialMissing ErrorCode = "CREDENTIAL_MISSING"
	// ErrCodeSourceUnavailable indicates the input media cannot be read.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// ErrCodeChunkingFailed indicates the normalized media could not be split.
	ErrCodeChunkingFailed ErrorCode = "CHUNKING_FAILED"
	// ErrCodeUnsupportedMedia indicates the media format was rejected.
	ErrCodeUnsupportedMedia ErrorCode = "UNSUPPORTED_MEDIA"
	// ErrCodeServiceError indicates a transient remote failure (network, 5xx, timeout).
	ErrCodeServiceError ErrorCode = "SERVICE_ERROR"
	// ErrCodeDiarizationFailed indicates speaker labelling failed.
	ErrCodeDiarizationFailed ErrorCode = "DIARIZATION_FAILED"
	// ErrCodeCancelled indicates the caller abandoned the operation.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the credential was rejected.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates a conflict with the current state of the resource.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeRateLimited indicates the client exceeded the local request rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceError: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Only transient service failures qualify.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

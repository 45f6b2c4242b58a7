package errors

import "errors"

// Domain errors
var (
	// Scan errors
	ErrScanNotFound   = errors.New("scan not found")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrFetchFailed    = errors.New("fetch failed")
	ErrCaptureFailed  = errors.New("screenshot capture failed")
	ErrScanTimeout    = errors.New("scan deadline exceeded")
	ErrInvalidFinding = errors.New("invalid finding")

	// Model errors
	ErrModelUnavailable = errors.New("risk model unavailable")
	ErrInvalidModel     = errors.New("invalid risk model")

	// Repository errors
	ErrRepositoryOperation   = errors.New("repository operation failed")
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")

	// Validation errors
	ErrMissingRequired = errors.New("missing required field")
)

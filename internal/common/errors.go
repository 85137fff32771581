// Package common defines shared constants and sentinel errors used across
// the storage, service and HTTP layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// ErrNotFound is returned when the named document is absent from the store.
	ErrNotFound = errors.New("not found")

	// ErrUpstream wraps failures of the blob store or of signing.
	ErrUpstream = errors.New("upstream error")

	// ErrDownload is returned when fetching an edited document from the
	// editor-supplied URL fails or returns a non-2xx status.
	ErrDownload = errors.New("failed to download file")

	// ErrValidation marks a malformed request or callback body.
	ErrValidation = errors.New("validation error")

	// ErrInvalidToken marks a missing or malformed callback token.
	ErrInvalidToken = errors.New("invalid token")
)

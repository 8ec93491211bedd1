package issuance

import "errors"

var (
	// ErrInvalidInput indicates a request without participant or display name.
	ErrInvalidInput = errors.New("invalid issuance request")
	// ErrSessionNotFound is returned by resolvers when the platform knows no such participant.
	ErrSessionNotFound = errors.New("no matching participant on the platform")
	// ErrUpstreamUnavailable is returned by platform calls that failed, timed out or returned garbage.
	ErrUpstreamUnavailable = errors.New("platform unavailable")
	// ErrPersistence indicates the issued flag could not be stored.
	ErrPersistence = errors.New("flag could not be persisted")
	// ErrConfigurationMissing indicates the workflow lacks a challenge id.
	ErrConfigurationMissing = errors.New("issuance configuration missing")
)

package flag

import "errors"

var (
	// ErrRecordNotFound indicates no flag matches the lookup key.
	ErrRecordNotFound = errors.New("flag record not found")
	// ErrInvalidInput indicates a missing field on issuance.
	ErrInvalidInput = errors.New("invalid flag input")
)

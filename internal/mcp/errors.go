package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, flag.ErrRecordNotFound):
		return &APIError{Code: "FLAG_NOT_FOUND", Message: "no flag matches", RecoveryHint: "Check the key, or call list_flags"}
	case errors.Is(err, flag.ErrInvalidInput), errors.Is(err, activity.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", RecoveryHint: "Provide the required argument"}
	default:
		return nil
	}
}

// toolError converts a service error into the error returned from a tool handler.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

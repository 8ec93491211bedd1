package flag

import "strings"

// ValidatePut checks the fields required to issue a flag.
func ValidatePut(participantID, displayName, sessionID, flag string) error {
	if strings.TrimSpace(participantID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(displayName) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(flag) == "" {
		return ErrInvalidInput
	}
	return nil
}

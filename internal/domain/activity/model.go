package activity

import "time"

// ActivityType represents the terminal state of an issuance attempt
type ActivityType string

const (
	TypeRejected          ActivityType = "issuance_rejected"
	TypeCredited          ActivityType = "submission_credited"
	TypeAlreadySolved     ActivityType = "submission_already_solved"
	TypeNotValidated      ActivityType = "submission_not_validated"
	TypeUnreachable       ActivityType = "platform_unreachable"
	TypePersistenceFailed ActivityType = "persistence_failed"
)

// ActivityEntry represents an issuance attempt in the activity log
type ActivityEntry struct {
	ID            int64        `json:"id"`
	AttemptID     string       `json:"attempt_id"`
	ParticipantID string       `json:"participant_id"`
	DisplayName   string       `json:"pseudo"`
	SessionID     *string      `json:"session_id,omitempty"`
	Flag          *string      `json:"flag,omitempty"`
	ActivityType  ActivityType `json:"type"`
	Summary       string       `json:"summary"`
	Details       string       `json:"details,omitempty"` // JSON string
	CreatedAt     time.Time    `json:"created_at"`
}

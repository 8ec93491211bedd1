package issuance

// Status is the terminal state of an issuance attempt.
type Status string

const (
	// StatusRejected means no session resolved for the display name; nothing was stored.
	StatusRejected Status = "rejected"
	// StatusCredited means the platform accepted a first-time solve.
	StatusCredited Status = "credited"
	// StatusAlreadySolved means the platform had already credited this participant.
	StatusAlreadySolved Status = "already_solved"
	// StatusNotValidated means the platform answered but did not accept the flag.
	StatusNotValidated Status = "not_validated"
	// StatusUnreachable means the report call failed or timed out.
	StatusUnreachable Status = "unreachable"
)

// Request asks for a flag on behalf of a chat participant.
type Request struct {
	ParticipantID string
	DisplayName   string
}

// Submission is what gets reported to the scoring platform.
type Submission struct {
	ChallengeID string
	Flag        string
	SessionID   string
	DisplayName string
}

// SubmissionResult is the platform's verdict on a submission.
// Numeric fields are nil when the platform omitted them.
type SubmissionResult struct {
	Correct        bool
	AlreadyFound   bool
	Message        string
	Points         *int
	Score          *int
	TotalFlags     *int
	ChallengeTitle string
}

// Outcome describes how an attempt ended, for presentation to the participant.
type Outcome struct {
	AttemptID     string `json:"attempt_id"`
	Status        Status `json:"status"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"pseudo"`
	SessionID     string `json:"session_id,omitempty"`
	Flag          string `json:"flag,omitempty"`
	Points        *int   `json:"points,omitempty"`
	Score         *int   `json:"score,omitempty"`
	TotalFlags    *int   `json:"total_flags,omitempty"`
}

// Issued reports whether a flag was stored for this attempt.
func (o *Outcome) Issued() bool {
	return o.Status != StatusRejected
}

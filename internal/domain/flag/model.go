package flag

import "time"

// Record is the flag issued to one chat participant.
type Record struct {
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	SessionID     string    `json:"session_id"`
	Flag          string    `json:"flag"`
	IssuedAt      time.Time `json:"issued_at"`
}

// View is the wire projection of a record shared by the read API and MCP tools.
type View struct {
	ParticipantID string `json:"discord_user_id,omitempty"`
	DisplayName   string `json:"pseudo"`
	SessionID     string `json:"session_id"`
	Flag          string `json:"flag"`
	GeneratedAt   string `json:"generated_at"`
}

// View projects the record for external callers.
func (r Record) View() View {
	v := View{
		ParticipantID: r.ParticipantID,
		DisplayName:   r.DisplayName,
		SessionID:     r.SessionID,
		Flag:          r.Flag,
	}
	if !r.IssuedAt.IsZero() {
		v.GeneratedAt = r.IssuedAt.Format(time.RFC3339Nano)
	}
	return v
}

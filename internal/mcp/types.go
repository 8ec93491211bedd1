package mcp

import (
	"time"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
)

// ParticipantInput selects a flag by chat participant.
type ParticipantInput struct {
	ParticipantID string `json:"participant_id" jsonschema:"chat platform user id"`
}

// PseudoInput selects a flag by display name.
type PseudoInput struct {
	Pseudo string `json:"pseudo" jsonschema:"display name, matched case-insensitively"`
}

// SessionInput selects a flag by scoring platform session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"scoring platform session id"`
}

// TokenInput selects a flag by its token.
type TokenInput struct {
	Flag string `json:"flag" jsonschema:"issued flag token, for example ISEN{name_adjective}"`
}

// ListFlagsInput takes no arguments.
type ListFlagsInput struct{}

// ListFlagsResult lists every issued flag.
type ListFlagsResult struct {
	Count   int         `json:"count"`
	Players []flag.View `json:"players"`
}

// RecentActivityInput filters the activity log.
type RecentActivityInput struct {
	ParticipantID string `json:"participant_id,omitempty" jsonschema:"only attempts by this participant"`
	Type          string `json:"type,omitempty" jsonschema:"only this activity type, for example platform_unreachable"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
}

// ActivityView is an activity entry with a string timestamp.
type ActivityView struct {
	AttemptID     string `json:"attempt_id"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"pseudo"`
	SessionID     string `json:"session_id,omitempty"`
	Flag          string `json:"flag,omitempty"`
	Type          string `json:"type"`
	Summary       string `json:"summary"`
	Details       string `json:"details,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RecentActivityResult lists activity entries, newest first.
type RecentActivityResult struct {
	Count   int            `json:"count"`
	Entries []ActivityView `json:"entries"`
}

func toActivityView(entry activity.ActivityEntry) ActivityView {
	view := ActivityView{
		AttemptID:     entry.AttemptID,
		ParticipantID: entry.ParticipantID,
		DisplayName:   entry.DisplayName,
		Type:          string(entry.ActivityType),
		Summary:       entry.Summary,
		Details:       entry.Details,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.SessionID != nil {
		view.SessionID = *entry.SessionID
	}
	if entry.Flag != nil {
		view.Flag = *entry.Flag
	}
	return view
}

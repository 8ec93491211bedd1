package filestore

import (
	"time"

	"github.com/rpggio/flagbot/internal/domain/flag"
)

// legacyTimeLayout matches naive ISO timestamps written by earlier versions of the bot.
const legacyTimeLayout = "2006-01-02T15:04:05.999999"

// playerEntry is the persisted form of a record, keyed by participant id.
type playerEntry struct {
	Pseudo      string `json:"pseudo"`
	SessionID   string `json:"session_id"`
	Flag        string `json:"flag"`
	GeneratedAt string `json:"generated_at"`
}

// flagEntry is the persisted reverse index entry, keyed by flag token.
type flagEntry struct {
	ParticipantID string `json:"discord_user_id"`
	Pseudo        string `json:"pseudo"`
	SessionID     string `json:"session_id"`
}

// stateFile is the top-level persisted state.
type stateFile struct {
	Players map[string]playerEntry `json:"players"`
	Flags   map[string]flagEntry   `json:"flags"`
}

func toPlayerEntry(rec flag.Record) playerEntry {
	return playerEntry{
		Pseudo:      rec.DisplayName,
		SessionID:   rec.SessionID,
		Flag:        rec.Flag,
		GeneratedAt: rec.IssuedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toFlagEntry(rec flag.Record) flagEntry {
	return flagEntry{
		ParticipantID: rec.ParticipantID,
		Pseudo:        rec.DisplayName,
		SessionID:     rec.SessionID,
	}
}

func fromPlayerEntry(participantID string, p playerEntry) flag.Record {
	return flag.Record{
		ParticipantID: participantID,
		DisplayName:   p.Pseudo,
		SessionID:     p.SessionID,
		Flag:          p.Flag,
		IssuedAt:      parseGeneratedAt(p.GeneratedAt),
	}
}

func parseGeneratedAt(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC()
	}
	if t, err := time.ParseInLocation(legacyTimeLayout, value, time.Local); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

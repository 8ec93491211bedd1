package flag

import "context"

// Repository stores issued flags keyed by participant, with secondary
// lookups by display name, external session and flag token.
type Repository interface {
	Put(ctx context.Context, participantID, displayName, sessionID, flag string) (*Record, error)
	GetByParticipantID(ctx context.Context, participantID string) (*Record, error)
	GetByDisplayName(ctx context.Context, displayName string) (*Record, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Record, error)
	GetByFlag(ctx context.Context, flag string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
}

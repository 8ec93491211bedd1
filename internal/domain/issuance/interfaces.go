package issuance

import (
	"context"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
)

// SessionResolver finds the platform session for an exact display name.
type SessionResolver interface {
	ResolveSession(ctx context.Context, displayName string) (string, error)
}

// SubmissionReporter reports an issued flag to the platform.
type SubmissionReporter interface {
	Report(ctx context.Context, sub Submission) (*SubmissionResult, error)
}

// TokenGenerator produces flag tokens.
type TokenGenerator interface {
	Generate() string
}

// FlagWriter stores issued flags.
type FlagWriter interface {
	Put(ctx context.Context, participantID, displayName, sessionID, flag string) (*flag.Record, error)
}

// ActivityLogger records how each attempt ended.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}

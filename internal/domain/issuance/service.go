package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rpggio/flagbot/internal/domain/activity"
)

// Service runs issuance attempts: resolve the platform session, generate a
// flag, store it, then report it. Attempts are independent and may run
// concurrently; the flag store is the only shared state.
type Service struct {
	resolver   SessionResolver
	reporter   SubmissionReporter
	tokens     TokenGenerator
	flags      FlagWriter
	activities ActivityLogger
	opts       Options
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewService creates a new issuance service. activities may be nil.
func NewService(
	resolver SessionResolver,
	reporter SubmissionReporter,
	tokens TokenGenerator,
	flags FlagWriter,
	activities ActivityLogger,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Service{
		resolver:   resolver,
		reporter:   reporter,
		tokens:     tokens,
		flags:      flags,
		activities: activities,
		opts:       opts,
		logger:     logger,
		tracer:     otel.Tracer("github.com/rpggio/flagbot/issuance"),
	}
}

// Issue runs one attempt to completion. Platform failures end in an outcome,
// never an error; an error means the request was invalid, the workflow is
// misconfigured, or the flag could not be stored. A stored flag is kept even
// when reporting degrades.
func (s *Service) Issue(ctx context.Context, req Request) (out *Outcome, retErr error) {
	req.ParticipantID = strings.TrimSpace(req.ParticipantID)
	// The display name is matched against the platform exactly as typed.
	if req.ParticipantID == "" || strings.TrimSpace(req.DisplayName) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(s.opts.ChallengeID) == "" {
		return nil, ErrConfigurationMissing
	}

	attemptID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "issuance.issue",
		trace.WithAttributes(
			attribute.String("flagbot.attempt_id", attemptID),
			attribute.String("flagbot.participant_id", req.ParticipantID),
		),
	)
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
		} else if out != nil {
			span.SetAttributes(attribute.String("flagbot.status", string(out.Status)))
		}
		span.End()
	}()

	logger := s.logger.With("attempt_id", attemptID, "participant_id", req.ParticipantID, "pseudo", req.DisplayName)
	out = &Outcome{
		AttemptID:     attemptID,
		ParticipantID: req.ParticipantID,
		DisplayName:   req.DisplayName,
	}

	sessionID, err := s.resolveSession(ctx, req.DisplayName)
	if err != nil {
		out.Status = StatusRejected
		if errors.Is(err, ErrSessionNotFound) {
			logger.Info("no platform session for pseudo")
		} else {
			logger.Warn("session resolution failed", "error", err)
		}
		s.logActivity(ctx, out, activity.TypeRejected,
			fmt.Sprintf("no platform session for %q", req.DisplayName), err)
		return out, nil
	}
	out.SessionID = sessionID

	token := s.tokens.Generate()
	rec, err := s.flags.Put(ctx, req.ParticipantID, req.DisplayName, sessionID, token)
	if err != nil {
		logger.Error("persisting flag failed", "session_id", sessionID, "error", err)
		s.logActivity(ctx, out, activity.TypePersistenceFailed, "flag could not be stored", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	out.Flag = rec.Flag
	logger.Info("flag issued", "session_id", sessionID)

	result, err := s.report(ctx, Submission{
		ChallengeID: s.opts.ChallengeID,
		Flag:        rec.Flag,
		SessionID:   sessionID,
		DisplayName: req.DisplayName,
	})
	switch {
	case err != nil:
		out.Status = StatusUnreachable
		logger.Warn("reporting submission failed", "session_id", sessionID, "error", err)
		s.logActivity(ctx, out, activity.TypeUnreachable, "platform unreachable, points not credited", err)
	case result.Correct && result.AlreadyFound:
		out.Status = StatusAlreadySolved
		s.logActivity(ctx, out, activity.TypeAlreadySolved, "challenge already solved", nil)
	case result.Correct:
		out.Status = StatusCredited
		out.Points = result.Points
		out.Score = result.Score
		out.TotalFlags = result.TotalFlags
		s.logActivity(ctx, out, activity.TypeCredited, fmt.Sprintf("credited %s points", formatCount(result.Points)), nil)
	default:
		out.Status = StatusNotValidated
		s.logActivity(ctx, out, activity.TypeNotValidated, "flag not validated by platform", nil)
	}

	logger.Info("issuance finished", "status", out.Status)
	return out, nil
}

func (s *Service) resolveSession(ctx context.Context, displayName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	sessionID, err := s.resolver.ResolveSession(ctx, displayName)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionNotFound
	}
	return sessionID, nil
}

func (s *Service) report(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	result, err := s.reporter.Report(ctx, sub)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrUpstreamUnavailable
	}
	return result, nil
}

func (s *Service) logActivity(ctx context.Context, out *Outcome, typ activity.ActivityType, summary string, cause error) {
	if s.activities == nil {
		return
	}
	entry := &activity.ActivityEntry{
		AttemptID:     out.AttemptID,
		ParticipantID: out.ParticipantID,
		DisplayName:   out.DisplayName,
		ActivityType:  typ,
		Summary:       summary,
		CreatedAt:     time.Now().UTC(),
	}
	if out.SessionID != "" {
		entry.SessionID = &out.SessionID
	}
	if out.Flag != "" {
		entry.Flag = &out.Flag
	}
	if cause != nil {
		if details, err := json.Marshal(map[string]string{"error": cause.Error()}); err == nil {
			entry.Details = string(details)
		}
	}
	if err := s.activities.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("recording issuance activity failed",
			"attempt_id", out.AttemptID, "participant_id", out.ParticipantID, "type", typ, "error", err)
	}
}

func formatCount(n *int) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *n)
}

package flag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/flagbot/internal/repository"
)

// Service exposes read access to issued flags.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new flag lookup service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// GetByParticipant returns the flag issued to a chat participant.
func (s *Service) GetByParticipant(ctx context.Context, participantID string) (*Record, error) {
	rec, err := s.repo.GetByParticipantID(ctx, participantID)
	return s.mapLookup(rec, err, "participant")
}

// GetByDisplayName returns the first flag whose display name matches, ignoring case.
func (s *Service) GetByDisplayName(ctx context.Context, displayName string) (*Record, error) {
	rec, err := s.repo.GetByDisplayName(ctx, displayName)
	return s.mapLookup(rec, err, "display name")
}

// GetBySession returns the first flag issued for an external session.
func (s *Service) GetBySession(ctx context.Context, sessionID string) (*Record, error) {
	rec, err := s.repo.GetBySessionID(ctx, sessionID)
	return s.mapLookup(rec, err, "session")
}

// GetByFlag resolves a flag token back to its owner.
func (s *Service) GetByFlag(ctx context.Context, flag string) (*Record, error) {
	rec, err := s.repo.GetByFlag(ctx, flag)
	return s.mapLookup(rec, err, "flag")
}

// List returns every issued flag.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("listing flags failed", "error", err)
		return nil, fmt.Errorf("listing flags: %w", err)
	}
	return recs, nil
}

func (s *Service) mapLookup(rec *Record, err error, key string) (*Record, error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		s.logger.Error("flag lookup failed", "key", key, "error", err)
		return nil, fmt.Errorf("getting flag by %s: %w", key, err)
	}
	return rec, nil
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
	"github.com/rpggio/flagbot/internal/domain/issuance"
)

// FlagRepository is a mock for flag.Repository.
type FlagRepository struct {
	mock.Mock
}

func (m *FlagRepository) Put(ctx context.Context, participantID, displayName, sessionID, token string) (*flag.Record, error) {
	args := m.Called(ctx, participantID, displayName, sessionID, token)
	if rec, ok := args.Get(0).(*flag.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FlagRepository) GetByParticipantID(ctx context.Context, participantID string) (*flag.Record, error) {
	args := m.Called(ctx, participantID)
	if rec, ok := args.Get(0).(*flag.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FlagRepository) GetByDisplayName(ctx context.Context, displayName string) (*flag.Record, error) {
	args := m.Called(ctx, displayName)
	if rec, ok := args.Get(0).(*flag.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FlagRepository) GetBySessionID(ctx context.Context, sessionID string) (*flag.Record, error) {
	args := m.Called(ctx, sessionID)
	if rec, ok := args.Get(0).(*flag.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FlagRepository) GetByFlag(ctx context.Context, token string) (*flag.Record, error) {
	args := m.Called(ctx, token)
	if rec, ok := args.Get(0).(*flag.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FlagRepository) List(ctx context.Context) ([]flag.Record, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]flag.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SessionResolver is a mock for issuance.SessionResolver.
type SessionResolver struct {
	mock.Mock
}

func (m *SessionResolver) ResolveSession(ctx context.Context, displayName string) (string, error) {
	args := m.Called(ctx, displayName)
	return args.String(0), args.Error(1)
}

// SubmissionReporter is a mock for issuance.SubmissionReporter.
type SubmissionReporter struct {
	mock.Mock
}

func (m *SubmissionReporter) Report(ctx context.Context, sub issuance.Submission) (*issuance.SubmissionResult, error) {
	args := m.Called(ctx, sub)
	if res, ok := args.Get(0).(*issuance.SubmissionResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// TokenGenerator is a mock for issuance.TokenGenerator.
type TokenGenerator struct {
	mock.Mock
}

func (m *TokenGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// ActivityLogger is a mock for issuance.ActivityLogger.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

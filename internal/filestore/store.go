// Package filestore implements the flag repository on top of a single JSON
// state file. Every write rewrites the whole file, so it is meant for the
// volume of a chat community, not for bulk traffic.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/rpggio/flagbot/internal/domain/flag"
	"github.com/rpggio/flagbot/internal/repository"
)

var _ flag.Repository = (*FlagStore)(nil)

// FlagStore persists issued flags and serves lookups by participant, display
// name, external session and flag token. All operations share one mutex.
type FlagStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	now    func() time.Time
	folder cases.Caser

	records   map[string]flag.Record
	order     []string            // participant ids in issuance order
	byName    map[string][]string // folded display name -> participant ids
	bySession map[string][]string // session id -> participant ids
	byFlag    map[string]string   // flag token -> participant id
}

// Option configures a FlagStore.
type Option func(*FlagStore)

// WithClock overrides the clock used to stamp issuance times.
func WithClock(now func() time.Time) Option {
	return func(s *FlagStore) {
		s.now = now
	}
}

// Open loads the state file at path. A missing or unreadable file yields an
// empty store; the failure is logged rather than returned.
func Open(path string, logger *slog.Logger, opts ...Option) *FlagStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &FlagStore{
		path:      path,
		logger:    logger,
		now:       time.Now,
		folder:    cases.Fold(),
		records:   make(map[string]flag.Record),
		byName:    make(map[string][]string),
		bySession: make(map[string][]string),
		byFlag:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load()
	return s
}

// Path returns the location of the state file.
func (s *FlagStore) Path() string {
	return s.path
}

// Put issues flag to participantID, replacing any earlier record for that
// participant. The state file is written before Put returns; if the write
// fails the in-memory state is left untouched and an error wrapping
// repository.ErrPersistence is returned.
func (s *FlagStore) Put(ctx context.Context, participantID, displayName, sessionID, token string) (*flag.Record, error) {
	if err := flag.ValidatePut(participantID, displayName, sessionID, token); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidInput, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := flag.Record{
		ParticipantID: participantID,
		DisplayName:   displayName,
		SessionID:     sessionID,
		Flag:          token,
		IssuedAt:      s.now().UTC(),
	}

	if owner, ok := s.byFlag[token]; ok && owner != participantID {
		s.logger.Warn("flag token collision, reassigning reverse index",
			"flag", token, "previous_participant_id", owner, "participant_id", participantID)
	}

	if err := s.persist(s.encode(rec)); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrPersistence, err)
	}

	s.unindex(participantID)
	s.index(rec)

	out := rec
	return &out, nil
}

// GetByParticipantID returns the record issued to participantID.
func (s *FlagStore) GetByParticipantID(ctx context.Context, participantID string) (*flag.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[participantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

// GetByDisplayName returns the earliest issued record whose display name
// matches case-insensitively. Display names are not unique.
func (s *FlagStore) GetByDisplayName(ctx context.Context, displayName string) (*flag.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.first(s.byName[s.fold(displayName)])
}

// GetBySessionID returns the earliest issued record for sessionID.
func (s *FlagStore) GetBySessionID(ctx context.Context, sessionID string) (*flag.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.first(s.bySession[sessionID])
}

// GetByFlag resolves a flag token through the reverse index.
func (s *FlagStore) GetByFlag(ctx context.Context, token string) (*flag.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.byFlag[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec, ok := s.records[owner]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

// List returns a snapshot of every record in issuance order.
func (s *FlagStore) List(ctx context.Context) ([]flag.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]flag.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *FlagStore) first(ids []string) (*flag.Record, error) {
	if len(ids) == 0 {
		return nil, repository.ErrNotFound
	}
	rec := s.records[ids[0]]
	return &rec, nil
}

func (s *FlagStore) fold(name string) string {
	return s.folder.String(name)
}

func (s *FlagStore) index(rec flag.Record) {
	id := rec.ParticipantID
	s.records[id] = rec
	s.order = append(s.order, id)

	nameKey := s.fold(rec.DisplayName)
	s.byName[nameKey] = append(s.byName[nameKey], id)
	s.bySession[rec.SessionID] = append(s.bySession[rec.SessionID], id)
	s.byFlag[rec.Flag] = id
}

func (s *FlagStore) unindex(participantID string) {
	prev, ok := s.records[participantID]
	if !ok {
		return
	}
	delete(s.records, participantID)
	s.order = removeID(s.order, participantID)

	nameKey := s.fold(prev.DisplayName)
	if ids := removeID(s.byName[nameKey], participantID); len(ids) > 0 {
		s.byName[nameKey] = ids
	} else {
		delete(s.byName, nameKey)
	}
	if ids := removeID(s.bySession[prev.SessionID], participantID); len(ids) > 0 {
		s.bySession[prev.SessionID] = ids
	} else {
		delete(s.bySession, prev.SessionID)
	}
	if s.byFlag[prev.Flag] == participantID {
		delete(s.byFlag, prev.Flag)
		if holder, ok := s.holder(prev.Flag, participantID); ok {
			s.byFlag[prev.Flag] = holder
		}
	}
}

// holder returns the earliest participant other than except still holding token.
func (s *FlagStore) holder(token, except string) (string, bool) {
	for _, id := range s.order {
		if id != except && s.records[id].Flag == token {
			return id, true
		}
	}
	return "", false
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}

// encode builds the state that results from committing pending.
func (s *FlagStore) encode(pending flag.Record) stateFile {
	st := stateFile{
		Players: make(map[string]playerEntry, len(s.records)+1),
		Flags:   make(map[string]flagEntry, len(s.byFlag)+1),
	}
	for id, rec := range s.records {
		if id == pending.ParticipantID {
			continue
		}
		st.Players[id] = toPlayerEntry(rec)
	}
	st.Players[pending.ParticipantID] = toPlayerEntry(pending)

	for token, owner := range s.byFlag {
		if owner == pending.ParticipantID {
			if holder, ok := s.holder(token, owner); ok {
				st.Flags[token] = toFlagEntry(s.records[holder])
			}
			continue
		}
		st.Flags[token] = toFlagEntry(s.records[owner])
	}
	st.Flags[pending.Flag] = toFlagEntry(pending)
	return st
}

// persist writes state to disk using atomic write (temp file + rename).
func (s *FlagStore) persist(st stateFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := writeFileSync(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FlagStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no flag state file yet, starting empty", "path", s.path)
			return
		}
		s.logger.Warn("read flag state failed, starting empty", "path", s.path, "error", err)
		return
	}

	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("parse flag state failed, starting empty", "path", s.path, "error", err)
		return
	}

	recs := make([]flag.Record, 0, len(st.Players))
	for id, p := range st.Players {
		recs = append(recs, fromPlayerEntry(id, p))
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].IssuedAt.Equal(recs[j].IssuedAt) {
			return recs[i].IssuedAt.Before(recs[j].IssuedAt)
		}
		return recs[i].ParticipantID < recs[j].ParticipantID
	})
	for _, rec := range recs {
		s.index(rec)
	}

	// On token collisions the persisted reverse index names the owner.
	for token, entry := range st.Flags {
		if rec, ok := s.records[entry.ParticipantID]; ok && rec.Flag == token {
			s.byFlag[token] = entry.ParticipantID
		}
	}

	s.logger.Info("loaded flag state", "path", s.path, "records", len(s.records))
}

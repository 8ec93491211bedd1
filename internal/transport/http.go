package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
)

// FlagReader provides the flag lookups served over HTTP.
type FlagReader interface {
	GetByParticipant(ctx context.Context, participantID string) (*flag.Record, error)
	GetByDisplayName(ctx context.Context, displayName string) (*flag.Record, error)
	GetBySession(ctx context.Context, sessionID string) (*flag.Record, error)
	GetByFlag(ctx context.Context, token string) (*flag.Record, error)
	List(ctx context.Context) ([]flag.Record, error)
}

// ActivityReader lists recent issuance activity.
type ActivityReader interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Options configures the HTTP server.
type Options struct {
	// Auth guards every route except / and /health. Nil leaves them open.
	Auth func(http.Handler) http.Handler
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	flags      FlagReader
	activities ActivityReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(flags FlagReader, activities ActivityReader, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	srv := &Server{flags: flags, activities: activities, logger: logger}

	r.Get("/", srv.handleIndex)
	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Get("/flag/{participantID}", srv.handleByParticipant)
		r.Get("/flag/pseudo/{pseudo}", srv.handleByPseudo)
		r.Get("/flag/session/{sessionID}", srv.handleBySession)
		r.Get("/flag/token/{flag}", srv.handleByToken)
		r.Get("/flags", srv.handleList)
		if activities != nil {
			r.Get("/activity", srv.handleActivity)
		}
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}
	})

	return r
}

type indexResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Status:  "ok",
		Service: "CTF Discord Bot - Flag API",
		Endpoints: map[string]string{
			"/flag/<discord_user_id>":    "Récupérer le flag par Discord User ID",
			"/flag/pseudo/<pseudo>":      "Récupérer le flag par pseudo",
			"/flag/session/<session_id>": "Récupérer le flag par session ID",
			"/flag/token/<flag>":         "Retrouver le propriétaire d'un flag",
			"/flags":                     "Lister tous les flags générés",
			"/activity":                  "Historique des tentatives",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleByParticipant(w http.ResponseWriter, r *http.Request) {
	rec, err := s.flags.GetByParticipant(r.Context(), chi.URLParam(r, "participantID"))
	if err != nil {
		s.writeLookupError(w, err, "Aucun flag trouvé pour cet utilisateur Discord")
		return
	}
	view := rec.View()
	view.ParticipantID = ""
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleByPseudo(w http.ResponseWriter, r *http.Request) {
	pseudo := chi.URLParam(r, "pseudo")
	rec, err := s.flags.GetByDisplayName(r.Context(), pseudo)
	if err != nil {
		s.writeLookupError(w, err, fmt.Sprintf("Aucun flag trouvé pour le pseudo '%s'", pseudo))
		return
	}
	writeJSON(w, http.StatusOK, rec.View())
}

func (s *Server) handleBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	rec, err := s.flags.GetBySession(r.Context(), sessionID)
	if err != nil {
		s.writeLookupError(w, err, fmt.Sprintf("Aucun flag trouvé pour la session '%s'", sessionID))
		return
	}
	writeJSON(w, http.StatusOK, rec.View())
}

func (s *Server) handleByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "flag")
	rec, err := s.flags.GetByFlag(r.Context(), token)
	if err != nil {
		s.writeLookupError(w, err, fmt.Sprintf("Aucun joueur ne possède le flag '%s'", token))
		return
	}
	writeJSON(w, http.StatusOK, rec.View())
}

type listResponse struct {
	Count   int         `json:"count"`
	Players []flag.View `json:"players"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.flags.List(r.Context())
	if err != nil {
		s.logger.Error("listing flags failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	players := make([]flag.View, 0, len(recs))
	for _, rec := range recs {
		players = append(players, rec.View())
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(players), Players: players})
}

type activityResponse struct {
	Count   int                      `json:"count"`
	Entries []activity.ActivityEntry `json:"entries"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := activity.ListActivityOptions{ParticipantID: query.Get("participant_id")}
	if typ := query.Get("type"); typ != "" {
		activityType := activity.ActivityType(typ)
		opts.ActivityType = &activityType
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}

	entries, err := s.activities.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.logger.Error("listing activity failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []activity.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, activityResponse{Count: len(entries), Entries: entries})
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, flag.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("flag lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
	"github.com/rpggio/flagbot/internal/filestore"
)

type stubActivities struct {
	opts    activity.ListActivityOptions
	entries []activity.ActivityEntry
}

func (s *stubActivities) GetRecentActivity(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	s.opts = opts
	return s.entries, nil
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *stubActivities) {
	t.Helper()
	ctx := context.Background()

	store := filestore.Open(filepath.Join(t.TempDir(), "flags.json"), nil)
	_, err := store.Put(ctx, "42", "Neo", "sess-1", "ISEN{neo_fast}")
	require.NoError(t, err)
	_, err = store.Put(ctx, "43", "Trinity", "sess-2", "ISEN{trinity_agile}")
	require.NoError(t, err)

	activities := &stubActivities{entries: []activity.ActivityEntry{{
		ID:            1,
		AttemptID:     "a1",
		ParticipantID: "42",
		DisplayName:   "Neo",
		ActivityType:  activity.TypeCredited,
		Summary:       "credited 50 points",
	}}}

	server := httptest.NewServer(NewServer(flag.NewService(store, nil), activities, opts))
	t.Cleanup(server.Close)
	return server, activities
}

func getJSON(t *testing.T, rawURL string, out any) int {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHTTPServer_Health(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_Index(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	var body indexResponse
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/", &body))
	require.Equal(t, "ok", body.Status)
	require.Contains(t, body.Endpoints, "/flags")
}

func TestHTTPServer_FlagByParticipant(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/flag/42", &body))
	require.Equal(t, "Neo", body["pseudo"])
	require.Equal(t, "sess-1", body["session_id"])
	require.Equal(t, "ISEN{neo_fast}", body["flag"])
	require.NotEmpty(t, body["generated_at"])
	require.NotContains(t, body, "discord_user_id")

	var missing errorResponse
	require.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/flag/99", &missing))
	require.Equal(t, "Aucun flag trouvé pour cet utilisateur Discord", missing.Error)
}

func TestHTTPServer_FlagByPseudoIgnoresCase(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/flag/pseudo/NEO", &body))
	require.Equal(t, "42", body["discord_user_id"])

	var missing errorResponse
	require.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/flag/pseudo/Morpheus", &missing))
	require.Equal(t, "Aucun flag trouvé pour le pseudo 'Morpheus'", missing.Error)
}

func TestHTTPServer_FlagBySessionAndToken(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/flag/session/sess-2", &body))
	require.Equal(t, "43", body["discord_user_id"])

	body = nil
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/flag/token/"+url.PathEscape("ISEN{trinity_agile}"), &body))
	require.Equal(t, "Trinity", body["pseudo"])

	var missing errorResponse
	require.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/flag/session/nope", &missing))
	require.Equal(t, "Aucun flag trouvé pour la session 'nope'", missing.Error)
}

func TestHTTPServer_ListFlags(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	var body listResponse
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/flags", &body))
	require.Equal(t, 2, body.Count)
	require.Len(t, body.Players, 2)
	require.Equal(t, "42", body.Players[0].ParticipantID)
}

func TestHTTPServer_Activity(t *testing.T) {
	server, activities := newTestServer(t, Options{})

	var body activityResponse
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/activity?participant_id=42&type=submission_credited&limit=5", &body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "42", activities.opts.ParticipantID)
	require.Equal(t, activity.TypeCredited, *activities.opts.ActivityType)
	require.Equal(t, 5, activities.opts.Limit)

	var bad errorResponse
	require.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/activity?limit=abc", &bad))
}

func TestHTTPServer_AuthGuardsReadAPI(t *testing.T) {
	server, _ := newTestServer(t, Options{Auth: AuthMiddleware(StaticToken("secret"))})

	resp, err := http.Get(server.URL + "/flags")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/flags", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

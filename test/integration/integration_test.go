package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
	"github.com/rpggio/flagbot/internal/domain/issuance"
	"github.com/rpggio/flagbot/internal/filestore"
	"github.com/rpggio/flagbot/internal/testserver"
)

const token = "integration-token"

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestIntegration_CreditedThenReadBack(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)
	ts.Platform.AddPlayer("Neo", "sess-neo")

	out, err := ts.Issuer.Issue(ctx, issuance.Request{ParticipantID: "42", DisplayName: "Neo"})
	require.NoError(t, err)
	require.Equal(t, issuance.StatusCredited, out.Status)
	require.Equal(t, 50, *out.Points)

	subs := ts.Platform.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, testserver.ChallengeID, subs[0].ChallengeID)
	require.Equal(t, "sess-neo", subs[0].SessionID)
	require.Equal(t, out.Flag, subs[0].SubmittedFlag)

	resp := ts.Get(t, "/flag/42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[flag.View](t, resp)
	require.Equal(t, out.Flag, view.Flag)
	require.Equal(t, "Neo", view.DisplayName)
	require.Empty(t, view.ParticipantID)

	resp = ts.Get(t, "/flag/pseudo/nEo")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "42", decodeBody[flag.View](t, resp).ParticipantID)

	resp = ts.Get(t, "/flag/session/sess-neo")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.Get(t, "/activity?participant_id=42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	act := decodeBody[struct {
		Count   int                      `json:"count"`
		Entries []activity.ActivityEntry `json:"entries"`
	}](t, resp)
	require.Equal(t, 1, act.Count)
	require.Equal(t, activity.TypeCredited, act.Entries[0].ActivityType)
}

func TestIntegration_SecondAttemptAlreadySolved(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)
	ts.Platform.AddPlayer("Neo", "sess-neo")

	first, err := ts.Issuer.Issue(ctx, issuance.Request{ParticipantID: "42", DisplayName: "Neo"})
	require.NoError(t, err)
	second, err := ts.Issuer.Issue(ctx, issuance.Request{ParticipantID: "42", DisplayName: "Neo"})
	require.NoError(t, err)
	require.Equal(t, issuance.StatusAlreadySolved, second.Status)

	rec, err := ts.Store.GetByParticipantID(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, second.Flag, rec.Flag)

	if first.Flag != second.Flag {
		resp := ts.Get(t, "/flag/token/"+first.Flag)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
}

func TestIntegration_UnknownPseudoIsRejected(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)
	ts.Platform.AddPlayer("Neo", "sess-neo")

	out, err := ts.Issuer.Issue(ctx, issuance.Request{ParticipantID: "42", DisplayName: "neo"})
	require.NoError(t, err)
	require.Equal(t, issuance.StatusRejected, out.Status)
	require.Empty(t, ts.Platform.Submissions())

	resp := ts.Get(t, "/flag/42")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	require.NotEmpty(t, body["error"])
}

func TestIntegration_PlatformDownKeepsFlag(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)
	ts.Platform.AddPlayer("Trinity", "sess-trinity")
	ts.Platform.SetDown(true)

	out, err := ts.Issuer.Issue(ctx, issuance.Request{ParticipantID: "7", DisplayName: "Trinity"})
	require.NoError(t, err)
	require.Equal(t, issuance.StatusUnreachable, out.Status)
	require.NotEmpty(t, out.Flag)

	reopened := filestore.Open(ts.StorePath, nil)
	rec, err := reopened.GetByParticipantID(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, out.Flag, rec.Flag)
	require.Equal(t, "sess-trinity", rec.SessionID)
}

func TestIntegration_ConcurrentAttempts(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)

	const n = 20
	for i := 0; i < n; i++ {
		ts.Platform.AddPlayer(fmt.Sprintf("player%02d", i), fmt.Sprintf("sess-%02d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := ts.Issuer.Issue(ctx, issuance.Request{
				ParticipantID: fmt.Sprintf("u%02d", i),
				DisplayName:   fmt.Sprintf("player%02d", i),
			})
			if err == nil && out.Status != issuance.StatusCredited {
				err = fmt.Errorf("participant %d: status %s", i, out.Status)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	resp := ts.Get(t, "/flags")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[struct {
		Count   int         `json:"count"`
		Players []flag.View `json:"players"`
	}](t, resp)
	require.Equal(t, n, list.Count)

	reopened := filestore.Open(ts.StorePath, nil)
	recs, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, n)
}

func TestIntegration_RequiresToken(t *testing.T) {
	ts := testserver.New(t, token)

	resp, err := http.Get(ts.Server.URL + "/flags")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestIntegration_MCPOverHTTP(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, token)
	ts.Platform.AddPlayer("Morpheus", "sess-m")

	out, err := ts.Issuer.Issue(ctx, issuance.Request{ParticipantID: "9", DisplayName: "Morpheus"})
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "integration", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: ts.HTTPClient(),
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_flag_by_token",
		Arguments: map[string]any{"flag": out.Flag},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var view flag.View
	require.NoError(t, json.Unmarshal(data, &view))
	require.Equal(t, "9", view.ParticipantID)

	result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "recent_activity",
		Arguments: map[string]any{"participant_id": "9"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
}

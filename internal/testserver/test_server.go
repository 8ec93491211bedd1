package testserver

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
	"github.com/rpggio/flagbot/internal/domain/issuance"
	"github.com/rpggio/flagbot/internal/filestore"
	"github.com/rpggio/flagbot/internal/flaggen"
	"github.com/rpggio/flagbot/internal/mcp"
	"github.com/rpggio/flagbot/internal/platform"
	"github.com/rpggio/flagbot/internal/sqlite"
	"github.com/rpggio/flagbot/internal/transport"
)

// ChallengeID is the challenge every test attempt reports against.
const ChallengeID = "challenge-discord"

// TestServer runs the read API, the MCP endpoint and the issuance workflow
// against a fake scoring platform.
type TestServer struct {
	Server    *httptest.Server
	Platform  *FakePlatform
	Store     *filestore.FlagStore
	StorePath string
	DB        *sqlite.DB
	Issuer    *issuance.Service
	Token     string
}

// New starts a server that requires token on protected routes.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	storePath := filepath.Join(t.TempDir(), "flags_db.json")
	store := filestore.Open(storePath, nil)
	activityRepo := sqlite.NewActivityRepository(db)

	flagSvc := flag.NewService(store, nil)
	activitySvc := activity.NewService(activityRepo, nil)

	fake := NewFakePlatform(t)
	client := platform.NewClient(fake.URL(), "test-key", nil)
	issuer := issuance.NewService(client, client, flaggen.New(flaggen.DefaultPrefix, nil, nil), store, activitySvc, issuance.Options{
		ChallengeID: ChallengeID,
		CallTimeout: 2 * time.Second,
	}, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{Flags: flagSvc, Activity: activitySvc},
	})

	router := transport.NewServer(flagSvc, activitySvc, transport.Options{
		Auth: transport.AuthMiddleware(transport.StaticToken(token)),
		MCP:  mcp.NewHTTPHandler(mcpServer),
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:    server,
		Platform:  fake,
		Store:     store,
		StorePath: storePath,
		DB:        db,
		Issuer:    issuer,
		Token:     token,
	}
}

// Get performs an authorized GET against the read API.
func (ts *TestServer) Get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// HTTPClient returns a client that sends the bearer token on every request.
func (ts *TestServer) HTTPClient() *http.Client {
	return &http.Client{Transport: bearerTransport{token: ts.Token, next: http.DefaultTransport}}
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}

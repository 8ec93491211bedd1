// Package platform talks to the CTF scoring platform: it resolves player
// sessions by pseudo and records flag submissions.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rpggio/flagbot/internal/domain/issuance"
)

const (
	playersPath    = "/rest/v1/players"
	submissionPath = "/functions/v1/record-external-submission"

	// maxErrorBody caps how much of an unexpected response is kept for logs.
	maxErrorBody = 512
)

var (
	_ issuance.SessionResolver    = (*Client)(nil)
	_ issuance.SubmissionReporter = (*Client)(nil)
)

// Client calls the platform's REST and function endpoints.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tracer  trace.Tracer
}

// NewClient creates a platform client. A nil httpClient uses http.DefaultClient;
// callers bound each call through the context.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
		tracer:  otel.Tracer("github.com/rpggio/flagbot/platform"),
	}
}

type sessionRow struct {
	SessionID string `json:"session_id"`
}

// ResolveSession returns the session of the player whose pseudo equals
// displayName exactly. It returns issuance.ErrSessionNotFound when there is
// no such player and issuance.ErrUpstreamUnavailable on any call failure.
func (c *Client) ResolveSession(ctx context.Context, displayName string) (sessionID string, retErr error) {
	ctx, span := c.tracer.Start(ctx, "platform.resolve_session")
	defer func() { endSpan(span, retErr) }()

	query := url.Values{}
	query.Set("select", "session_id")
	query.Set("pseudo", "eq."+displayName)
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+playersPath+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: session request: %w", issuance.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: session lookup returned %s: %s", issuance.ErrUpstreamUnavailable, resp.Status, readSnippet(resp.Body))
	}

	var rows []sessionRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return "", fmt.Errorf("%w: decode session response: %w", issuance.ErrUpstreamUnavailable, err)
	}
	for _, row := range rows {
		if row.SessionID != "" {
			return row.SessionID, nil
		}
	}
	return "", issuance.ErrSessionNotFound
}

type submissionRequest struct {
	ChallengeID   string `json:"challengeId"`
	SubmittedFlag string `json:"submittedFlag"`
	SessionID     string `json:"sessionId"`
	Pseudo        string `json:"pseudo"`
}

type submissionResponse struct {
	Success        bool   `json:"success"`
	Correct        bool   `json:"correct"`
	AlreadyFound   bool   `json:"alreadyFound"`
	Message        string `json:"message"`
	Error          string `json:"error"`
	Points         *int   `json:"points"`
	Score          *int   `json:"score"`
	TotalFlags     *int   `json:"totalFlags"`
	ChallengeTitle string `json:"challengeTitle"`
}

// Report records a submission. Client errors that come back with a JSON
// verdict are returned as a result with Correct unset; server errors,
// transport failures and undecodable bodies return issuance.ErrUpstreamUnavailable.
func (c *Client) Report(ctx context.Context, sub issuance.Submission) (result *issuance.SubmissionResult, retErr error) {
	ctx, span := c.tracer.Start(ctx, "platform.report_submission",
		trace.WithAttributes(attribute.String("flagbot.challenge_id", sub.ChallengeID)),
	)
	defer func() { endSpan(span, retErr) }()

	body, err := json.Marshal(submissionRequest{
		ChallengeID:   sub.ChallengeID,
		SubmittedFlag: sub.Flag,
		SessionID:     sub.SessionID,
		Pseudo:        sub.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submissionPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submission request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: submission request: %w", issuance.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: submission returned %s: %s", issuance.ErrUpstreamUnavailable, resp.Status, readSnippet(resp.Body))
	}

	var payload submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode submission response: %w", issuance.ErrUpstreamUnavailable, err)
	}

	message := payload.Message
	if message == "" {
		message = payload.Error
	}
	return &issuance.SubmissionResult{
		Correct:        payload.Success && payload.Correct,
		AlreadyFound:   payload.AlreadyFound,
		Message:        message,
		Points:         payload.Points,
		Score:          payload.Score,
		TotalFlags:     payload.TotalFlags,
		ChallengeTitle: payload.ChallengeTitle,
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

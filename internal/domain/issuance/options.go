package issuance

import "time"

const defaultCallTimeout = 10 * time.Second

// Options configures the issuance workflow.
type Options struct {
	// ChallengeID identifies the challenge on the platform. Required.
	ChallengeID string
	// CallTimeout bounds each platform call. Zero selects a default.
	CallTimeout time.Duration
}

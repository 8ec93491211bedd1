package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `flagbot issues one CTF flag per chat participant and reports it to the scoring platform.

Read-only tools:
- get_flag_by_participant / get_flag_by_pseudo / get_flag_by_session / get_flag_by_token: look up one issued flag.
- list_flags: every issued flag, oldest first.
- recent_activity: how recent issuance attempts ended (credited, already solved, not validated, unreachable, rejected).

Pseudo lookups ignore case. Several participants may share a pseudo or a session; lookups return the earliest issued.`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "flagbot://docs/outcomes",
		Name:        "docs_outcomes",
		Title:       "Issuance outcomes",
		Description: "What each issuance outcome and activity type means.",
		Content: `# Issuance outcomes

An attempt resolves the participant's platform session from their pseudo, generates a flag,
stores it, then reports it to the platform.

| Activity type | Meaning | Flag stored |
|---|---|---|
| issuance_rejected | no platform player has this exact pseudo, or the lookup failed | no |
| persistence_failed | the flag could not be written to disk | no |
| submission_credited | first solve, points credited | yes |
| submission_already_solved | the participant had already solved the challenge | yes |
| submission_not_validated | the platform answered but did not accept the flag | yes |
| platform_unreachable | the report failed or timed out; points not credited | yes |

A stored flag is never removed. Asking again replaces the participant's flag with a new one.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

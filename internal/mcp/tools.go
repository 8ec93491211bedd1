package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/flagbot/internal/domain/activity"
	"github.com/rpggio/flagbot/internal/domain/flag"
)

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_flag_by_participant",
		Description: "Get the flag issued to a chat participant",
	}, lookupHandler(func(ctx context.Context, in ParticipantInput) (*flag.Record, error) {
		return svc.Flags.GetByParticipant(ctx, in.ParticipantID)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_flag_by_pseudo",
		Description: "Get the earliest flag issued under a display name (case-insensitive)",
	}, lookupHandler(func(ctx context.Context, in PseudoInput) (*flag.Record, error) {
		return svc.Flags.GetByDisplayName(ctx, in.Pseudo)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_flag_by_session",
		Description: "Get the earliest flag issued for a scoring platform session",
	}, lookupHandler(func(ctx context.Context, in SessionInput) (*flag.Record, error) {
		return svc.Flags.GetBySession(ctx, in.SessionID)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_flag_by_token",
		Description: "Find which participant owns a flag token",
	}, lookupHandler(func(ctx context.Context, in TokenInput) (*flag.Record, error) {
		return svc.Flags.GetByFlag(ctx, in.Flag)
	}))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_flags",
		Description: "List every issued flag in issuance order",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListFlagsInput) (*sdkmcp.CallToolResult, ListFlagsResult, error) {
		recs, err := svc.Flags.List(ctx)
		if err != nil {
			return nil, ListFlagsResult{}, toolError(err)
		}
		players := make([]flag.View, 0, len(recs))
		for _, rec := range recs {
			players = append(players, rec.View())
		}
		return nil, ListFlagsResult{Count: len(players), Players: players}, nil
	})

	if svc.Activity == nil {
		return
	}
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List recent issuance attempts and how they ended, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityInput) (*sdkmcp.CallToolResult, RecentActivityResult, error) {
		opts := activity.ListActivityOptions{
			ParticipantID: strings.TrimSpace(in.ParticipantID),
			Limit:         in.Limit,
		}
		if typ := strings.TrimSpace(in.Type); typ != "" {
			activityType := activity.ActivityType(typ)
			opts.ActivityType = &activityType
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, RecentActivityResult{}, toolError(err)
		}
		views := make([]ActivityView, 0, len(entries))
		for _, entry := range entries {
			views = append(views, toActivityView(entry))
		}
		return nil, RecentActivityResult{Count: len(views), Entries: views}, nil
	})
}

// lookupHandler adapts a single-record lookup to a tool handler.
func lookupHandler[In any](lookup func(context.Context, In) (*flag.Record, error)) sdkmcp.ToolHandlerFor[In, flag.View] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, flag.View, error) {
		rec, err := lookup(ctx, in)
		if err != nil {
			return nil, flag.View{}, toolError(err)
		}
		return nil, rec.View(), nil
	}
}

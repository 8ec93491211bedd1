package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/flagbot/internal/domain/activity"
)

var _ activity.Repository = (*ActivityRepository)(nil)

const activityColumns = `id, attempt_id, participant_id, display_name, session_id, flag,
	activity_type, summary, details, created_at`

// ActivityRepository stores issuance attempts in the activity_log table.
// created_at is kept as Unix nanoseconds so ordering never depends on the
// driver's time formatting.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends entry and fills in its ID.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (attempt_id, participant_id, display_name, session_id, flag,
			activity_type, summary, details, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.AttemptID, entry.ParticipantID, entry.DisplayName,
		nullable(entry.SessionID), nullable(entry.Flag),
		string(entry.ActivityType), entry.Summary, entry.Details,
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", entry.AttemptID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List returns entries matching opts, newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query, args := listActivityQuery(opts)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return entries, nil
}

func listActivityQuery(opts activity.ListActivityOptions) (string, []any) {
	var b strings.Builder
	var where []string
	var args []any

	b.WriteString("SELECT " + activityColumns + " FROM activity_log")
	if opts.ParticipantID != "" {
		where = append(where, "participant_id = ?")
		args = append(args, opts.ParticipantID)
	}
	if opts.ActivityType != nil {
		where = append(where, "activity_type = ?")
		args = append(args, string(*opts.ActivityType))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, max(opts.Offset, 0))
	}
	return b.String(), args
}

func scanActivity(rows *sql.Rows) (activity.ActivityEntry, error) {
	var (
		entry     activity.ActivityEntry
		typ       string
		sessionID sql.NullString
		flag      sql.NullString
		details   sql.NullString
		createdAt int64
	)
	if err := rows.Scan(&entry.ID, &entry.AttemptID, &entry.ParticipantID, &entry.DisplayName,
		&sessionID, &flag, &typ, &entry.Summary, &details, &createdAt); err != nil {
		return entry, fmt.Errorf("scan activity: %w", err)
	}
	entry.ActivityType = activity.ActivityType(typ)
	if sessionID.Valid {
		entry.SessionID = &sessionID.String
	}
	if flag.Valid {
		entry.Flag = &flag.String
	}
	entry.Details = details.String
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	return entry, nil
}

func nullable(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

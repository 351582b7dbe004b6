package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strefethen/music-agent-go/internal/db"
)

// maxResultBytes caps the stored JSON of a tool result.
const maxResultBytes = 16 << 10

const selectColumns = `event_id, timestamp, tool, source, level, request_id, routine, message, args, result, error, duration_ms, client`

// Repository handles database operations for audit events.
// Uses separate reader/writer connections for optimal SQLite concurrency.
type Repository struct {
	reader *sql.DB // For SELECT queries
	writer *sql.DB // For INSERT/UPDATE/DELETE
	now    func() time.Time
}

// NewRepository creates a new audit Repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer(), now: time.Now}
}

// InsertEvent writes a new audit event and returns it as stored.
// Level defaults to INFO.
func (r *Repository) InsertEvent(ctx context.Context, input WriteEventInput) (*AuditEvent, error) {
	eventID := "evt_" + uuid.NewString()

	level := EventLevelInfo
	if input.Level != nil {
		level = *input.Level
	}

	args := input.Args
	if args == nil {
		args = map[string]any{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}

	resultJSON, err := encodeResult(input.Result)
	if err != nil {
		return nil, err
	}

	_, err = r.writer.ExecContext(ctx, `
		INSERT INTO audit_events (event_id, timestamp, tool, source, level, request_id, routine, message, args, result, error, duration_ms, client)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventID, db.FormatTime(r.now()), input.Tool, input.Source, string(level), input.RequestID, input.Routine,
		input.Message, string(argsJSON), resultJSON, input.Error, input.Duration.Milliseconds(), input.Client)
	if err != nil {
		return nil, err
	}

	event, err := r.getEvent(ctx, r.writer, eventID)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// encodeResult marshals a tool result, replacing oversized payloads with a
// marker so stored rows stay valid JSON.
func encodeResult(result any) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, err
	}
	if len(data) > maxResultBytes {
		data, _ = json.Marshal(map[string]any{"truncated": true, "bytes": len(data)})
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// GetEvent retrieves a single event by ID.
// Returns nil, nil if not found.
func (r *Repository) GetEvent(ctx context.Context, eventID string) (*AuditEvent, error) {
	return r.getEvent(ctx, r.reader, eventID)
}

func (r *Repository) getEvent(ctx context.Context, conn *sql.DB, eventID string) (*AuditEvent, error) {
	row := conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM audit_events WHERE event_id = ?`, eventID)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return event, err
}

// QueryEvents retrieves events matching filters, newest first.
// Returns the page and the total count across all pages.
func (r *Repository) QueryEvents(ctx context.Context, filters EventQueryFilters) ([]AuditEvent, int, error) {
	whereClause, args := buildWhereClause(filters)

	var total int
	if err := r.reader.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_events "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := `SELECT ` + selectColumns + ` FROM audit_events ` + whereClause + `
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ? OFFSET ?`
	rows, err := r.reader.QueryContext(ctx, query, append(args, limit, filters.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// PruneOldEvents deletes events older than retentionDays and returns the
// number of rows deleted.
func (r *Repository) PruneOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := db.FormatTime(r.now().AddDate(0, 0, -retentionDays))

	result, err := r.writer.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func buildWhereClause(filters EventQueryFilters) (string, []any) {
	conditions := []string{}
	args := []any{}

	if filters.Tool != nil {
		conditions = append(conditions, "tool = ?")
		args = append(args, *filters.Tool)
	}
	if filters.Level != nil {
		conditions = append(conditions, "level = ?")
		args = append(args, string(*filters.Level))
	}
	if filters.Source != nil {
		conditions = append(conditions, "source = ?")
		args = append(args, *filters.Source)
	}
	if filters.Client != nil {
		conditions = append(conditions, "client = ?")
		args = append(args, *filters.Client)
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, db.FormatTime(*filters.StartDate))
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, db.FormatTime(*filters.EndDate))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*AuditEvent, error) {
	var (
		event      = AuditEvent{Object: "audit_event"}
		timestamp  string
		level      string
		requestID  sql.NullString
		routine    sql.NullString
		argsJSON   string
		resultJSON sql.NullString
		errText    sql.NullString
		client     sql.NullString
	)

	err := row.Scan(
		&event.EventID,
		&timestamp,
		&event.Tool,
		&event.Source,
		&level,
		&requestID,
		&routine,
		&event.Message,
		&argsJSON,
		&resultJSON,
		&errText,
		&event.DurationMs,
		&client,
	)
	if err != nil {
		return nil, err
	}

	event.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, err
	}
	event.Level = EventLevel(level)
	if requestID.Valid {
		event.RequestID = &requestID.String
	}
	if routine.Valid {
		event.Routine = &routine.String
	}
	if client.Valid {
		event.Client = &client.String
	}
	if errText.Valid {
		event.Error = &errText.String
	}
	if resultJSON.Valid {
		event.Result = json.RawMessage(resultJSON.String)
	}
	if err := json.Unmarshal([]byte(argsJSON), &event.Args); err != nil {
		return nil, err
	}

	return &event, nil
}

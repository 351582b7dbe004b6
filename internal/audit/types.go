package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventLevel represents the severity level of an audit event.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "INFO"
	EventLevelWarn  EventLevel = "WARN"
	EventLevelError EventLevel = "ERROR"
)

// RoutineSourcePrefix marks invocations made by a scheduled or manual routine.
const RoutineSourcePrefix = "routine:"

// AuditEvent is one recorded tool invocation.
type AuditEvent struct {
	Object     string          `json:"object"`
	EventID    string          `json:"event_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Tool       string          `json:"tool"`
	Source     string          `json:"source,omitempty"`
	Client     *string         `json:"client,omitempty"`
	Level      EventLevel      `json:"level"`
	RequestID  *string         `json:"request_id,omitempty"`
	Routine    *string         `json:"routine,omitempty"`
	Message    string          `json:"message"`
	Args       map[string]any  `json:"args"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      *string         `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}

// WriteEventInput contains the fields for creating a new audit event.
type WriteEventInput struct {
	Tool      string
	Source    string
	Client    *string
	Level     *EventLevel
	RequestID *string
	Routine   *string
	Message   string
	Args      map[string]any
	Result    any
	Error     *string
	Duration  time.Duration
}

// EventQueryFilters contains optional filters for querying events.
// StartDate and EndDate are inclusive bounds.
type EventQueryFilters struct {
	Tool      *string
	Level     *EventLevel
	Source    *string
	Client    *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}

// EventNotFoundError is returned when an audit event is not found.
type EventNotFoundError struct {
	EventID string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("audit event not found: %s", e.EventID)
}

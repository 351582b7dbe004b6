package db

const schemaSQL = `
-- ===========================================================================
-- AUDIT (tool invocations from the gateway, MCP and routines)
-- ===========================================================================

CREATE TABLE IF NOT EXISTS audit_events (
  event_id TEXT PRIMARY KEY,
  timestamp TEXT NOT NULL,
  tool TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT '',
  level TEXT NOT NULL DEFAULT 'INFO',
  request_id TEXT,
  routine TEXT,
  message TEXT NOT NULL,
  args TEXT NOT NULL DEFAULT '{}',
  result TEXT,
  error TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_events_tool ON audit_events(tool, timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_events_level ON audit_events(level, timestamp);

-- ===========================================================================
-- ROUTINE RUNS (one row per scheduled or manual routine execution)
-- ===========================================================================

CREATE TABLE IF NOT EXISTS routine_runs (
  run_id TEXT PRIMARY KEY,
  routine TEXT NOT NULL,
  triggered_by TEXT NOT NULL,
  status TEXT NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT,
  failed_step INTEGER,
  error TEXT
);

CREATE INDEX IF NOT EXISTS idx_routine_runs_routine ON routine_runs(routine, started_at);
`

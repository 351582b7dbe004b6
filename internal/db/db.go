// Package db opens the gateway's SQLite database.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TimestampLayout is the fixed-width UTC layout used for every stored
// timestamp so that string comparison orders rows chronologically.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in TimestampLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// DBPair holds a single-connection writer and a small read-only pool over the
// same WAL-mode file.
type DBPair struct {
	reader *sql.DB
	writer *sql.DB
}

func (p *DBPair) Reader() *sql.DB { return p.reader }

func (p *DBPair) Writer() *sql.DB { return p.writer }

// Close closes both pools.
func (p *DBPair) Close() error {
	return errors.Join(
		wrapClose("reader", p.reader.Close()),
		wrapClose("writer", p.writer.Close()),
	)
}

func wrapClose(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("close %s: %w", name, err)
}

type poolOptions struct {
	mode    string
	maxOpen int
	maxIdle int
}

var (
	writerPool = poolOptions{mode: "rwc", maxOpen: 1, maxIdle: 1}
	readerPool = poolOptions{mode: "ro", maxOpen: 4, maxIdle: 2}
)

// open connects with WAL journaling and a 5s busy timeout.
func open(dbPath string, opts poolOptions) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000&cache=shared&mode=%s", dbPath, opts.mode)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", opts.mode, err)
	}
	conn.SetMaxOpenConns(opts.maxOpen)
	conn.SetMaxIdleConns(opts.maxIdle)
	conn.SetConnMaxLifetime(time.Hour)
	return conn, nil
}

// Init opens the database at dbPath, creating its directory, and brings the
// schema up to date.
func Init(dbPath string) (*DBPair, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	writer, err := open(dbPath, writerPool)
	if err != nil {
		return nil, err
	}
	if err := prepare(writer); err != nil {
		_ = writer.Close()
		return nil, err
	}

	reader, err := open(dbPath, readerPool)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}
	return &DBPair{reader: reader, writer: writer}, nil
}

func prepare(writer *sql.DB) error {
	if _, err := writer.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL: %w", err)
	}
	if _, err := writer.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return migrate(writer)
}

// columnMigration adds a column that older databases lack.
type columnMigration struct {
	table  string
	column string
	ddl    string
}

var columnMigrations = []columnMigration{
	{"audit_events", "duration_ms", "INTEGER NOT NULL DEFAULT 0"},
	{"audit_events", "client", "TEXT"},
}

func migrate(conn *sql.DB) error {
	known := make(map[string]map[string]bool)
	for _, m := range columnMigrations {
		columns, ok := known[m.table]
		if !ok {
			var err error
			if columns, err = tableColumns(conn, m.table); err != nil {
				return fmt.Errorf("inspect %s: %w", m.table, err)
			}
			known[m.table] = columns
		}
		if columns[m.column] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.ddl)
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("add %s.%s: %w", m.table, m.column, err)
		}
		columns[m.column] = true
	}
	return nil
}

func tableColumns(conn *sql.DB, table string) (map[string]bool, error) {
	rows, err := conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			defaultVal       sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/trupyai/trupy/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteArchive implements Archive using SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed archive.
func NewSQLite(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	a := &SQLiteArchive{db: db}
	if err := a.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return a, nil
}

func (a *SQLiteArchive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		user_data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// SaveRecord appends a record for an ended session.
func (a *SQLiteArchive) SaveRecord(ctx context.Context, record *domain.Record) error {
	userData, err := json.Marshal(record.UserData)
	if err != nil {
		return fmt.Errorf("marshal user data: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO sessions (session_id, user_data, created_at, ended_at)
		VALUES (?, ?, ?, ?)`

	res, err := a.db.ExecContext(ctx, query,
		record.SessionID, string(userData), createdAt.Unix(), record.EndedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert session record: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	record.CreatedAt = createdAt
	return nil
}

// ListRecords returns archived records, newest first.
func (a *SQLiteArchive) ListRecords(ctx context.Context, offset, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, session_id, user_data, created_at, ended_at
		FROM sessions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	rows, err := a.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query session records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.Record
	for rows.Next() {
		var record domain.Record
		var userData string
		var createdAt, endedAt int64

		if err := rows.Scan(&record.ID, &record.SessionID, &userData, &createdAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan session record: %w", err)
		}
		if err := json.Unmarshal([]byte(userData), &record.UserData); err != nil {
			return nil, fmt.Errorf("unmarshal user data: %w", err)
		}
		record.CreatedAt = time.Unix(createdAt, 0)
		record.EndedAt = time.Unix(endedAt, 0)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session records: %w", err)
	}

	return records, nil
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

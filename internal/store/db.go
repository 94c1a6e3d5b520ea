package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Migrate creates the users and attendance collections. The unique index
// on (student_id, day) backs the one-record-per-student-per-day rule.
// Statements run one at a time; pgx's extended protocol rejects
// multi-command executes.
func (d *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			student_roll  TEXT,
			avatar_path   TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_student_roll_key
			ON users (student_roll) WHERE role = 'student'`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id         TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			roll       TEXT NOT NULL,
			name       TEXT NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL,
			day        DATE NOT NULL,
			status     TEXT NOT NULL DEFAULT 'Present'
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attendance_student_day_key
			ON attendance_records (student_id, day)`,
		`CREATE INDEX IF NOT EXISTS attendance_roll_idx ON attendance_records (roll)`,
		`CREATE INDEX IF NOT EXISTS attendance_time_idx ON attendance_records (timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

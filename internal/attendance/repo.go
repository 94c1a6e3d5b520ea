package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGStore persists attendance records in Postgres. The attendance_records
// table carries a day column (UTC calendar day of the timestamp) with a
// unique index on (student_id, day), so two concurrent marks for the
// same student can never both land.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a store over an open connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (r *PGStore) FindInWindow(ctx context.Context, studentID string, from, to time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, roll, name, timestamp, status
		FROM attendance_records
		WHERE student_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp DESC
		LIMIT 1
	`, studentID, from, to)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.StudentID, &rec.Roll, &rec.Name, &rec.Timestamp, &rec.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PGStore) Insert(ctx context.Context, rec Record) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, student_id, roll, name, timestamp, day, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, day) DO NOTHING
	`, rec.ID, rec.StudentID, rec.Roll, rec.Name, rec.Timestamp, DayOf(rec.Timestamp), rec.Status)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyMarked
	}
	return nil
}

func (r *PGStore) Query(ctx context.Context, f Filter, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = MaxQueryResults
	}
	query := `SELECT id, student_id, roll, name, timestamp, status FROM attendance_records`
	args := []any{}
	clauses := []string{}
	if f.Roll != "" {
		args = append(args, f.Roll)
		clauses = append(clauses, fmt.Sprintf("roll = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		clauses = append(clauses, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		clauses = append(clauses, fmt.Sprintf("timestamp < $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Roll, &rec.Name, &rec.Timestamp, &rec.Status); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"smartattend/internal/roster"
)

// StatusPresent is the status written by the marking flow.
const StatusPresent = "Present"

// MaxQueryResults caps attendance queries; rows beyond it are dropped.
const MaxQueryResults = 1000

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrAlreadyMarked   = errors.New("already marked for this day")
	ErrBadDate         = errors.New("invalid date format")
)

// Record is one presence event. Roll and name are snapshots taken at
// marking time, not joined from the user at read time.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	Roll      string    `json:"roll"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Filter narrows a query. From is inclusive, To exclusive; zero values
// mean unbounded. Roll matches exactly when non-empty.
type Filter struct {
	Roll string
	From time.Time
	To   time.Time
}

// Store is the persistence surface the ledger needs. Insert must reject
// a second record for the same student and UTC day with ErrAlreadyMarked
// even under concurrent writers.
type Store interface {
	FindInWindow(ctx context.Context, studentID string, from, to time.Time) (*Record, error)
	Insert(ctx context.Context, rec Record) error
	Query(ctx context.Context, f Filter, limit int) ([]Record, error)
}

// RollResolver resolves a student roll to its identity record.
type RollResolver interface {
	FindByRoll(ctx context.Context, roll string) (*roster.User, error)
}

// MarkResult reports whether Mark created a record or found today's.
type MarkResult struct {
	Created bool
	Record  Record
}

// Service records and queries attendance events.
type Service struct {
	store    Store
	resolver RollResolver
	now      func() time.Time
}

// NewService creates a ledger over a store and a roll resolver.
func NewService(store Store, resolver RollResolver) *Service {
	return &Service{store: store, resolver: resolver, now: time.Now}
}

// NewServiceAt is like NewService with an injectable clock for tests.
func NewServiceAt(store Store, resolver RollResolver, now func() time.Time) *Service {
	return &Service{store: store, resolver: resolver, now: now}
}

// Mark records presence for the student owning roll, at most once per
// UTC calendar day. Re-marking the same day returns the existing record
// with Created=false rather than an error.
func (s *Service) Mark(ctx context.Context, roll, name string) (MarkResult, error) {
	student, err := s.resolver.FindByRoll(ctx, roll)
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			return MarkResult{}, ErrStudentNotFound
		}
		return MarkResult{}, err
	}

	now := s.now().UTC()
	start, end := dayWindow(now)

	existing, err := s.store.FindInWindow(ctx, student.ID, start, end)
	if err != nil {
		return MarkResult{}, err
	}
	if existing != nil {
		return MarkResult{Created: false, Record: *existing}, nil
	}

	rec := Record{
		ID:        uuid.NewString(),
		StudentID: student.ID,
		Roll:      roll,
		Name:      name,
		Timestamp: now,
		Status:    StatusPresent,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyMarked) {
			// Lost a same-day race; the winner's record stands.
			winner, ferr := s.store.FindInWindow(ctx, student.ID, start, end)
			if ferr != nil {
				return MarkResult{}, ferr
			}
			if winner != nil {
				return MarkResult{Created: false, Record: *winner}, nil
			}
		}
		return MarkResult{}, err
	}
	return MarkResult{Created: true, Record: rec}, nil
}

// Query returns records matching the optional roll and date filters,
// newest first, capped at MaxQueryResults. Dates accept ISO-8601
// calendar dates or date-times; anything else fails with ErrBadDate.
func (s *Service) Query(ctx context.Context, fromDate, toDate, roll string) ([]Record, error) {
	var f Filter
	f.Roll = roll

	var err error
	if fromDate != "" {
		if f.From, err = parseISO(fromDate); err != nil {
			return nil, ErrBadDate
		}
	}
	if toDate != "" {
		if f.To, err = parseISO(toDate); err != nil {
			return nil, ErrBadDate
		}
	}
	return s.store.Query(ctx, f, MaxQueryResults)
}

// dayWindow returns the [start, end) bounds of t's UTC calendar day.
func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// DayOf returns the UTC calendar day bucket a timestamp falls in.
func DayOf(t time.Time) time.Time {
	start, _ := dayWindow(t.UTC())
	return start
}

func parseISO(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrBadDate
}

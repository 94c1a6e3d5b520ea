package roster

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"smartattend/internal/password"
)

// User roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// MaxStudents caps the students listing.
const MaxStudents = 100

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateRoll      = errors.New("student roll already registered")
	ErrRollRequired       = errors.New("student roll required for student role")
	ErrInvalidRole        = errors.New("role must be student or teacher")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("student not found")
)

// User is an identity record. PasswordHash never leaves the backend.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	StudentRoll  *string   `json:"studentRoll,omitempty"`
	AvatarPath   *string   `json:"avatarPath,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store is the persistence surface the directory needs.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByRoll(ctx context.Context, roll string) (*User, error)
	ListStudents(ctx context.Context, limit int) ([]User, error)
}

// Service manages user records for students and teachers.
type Service struct {
	store Store

	// dummyHash keeps Authenticate on a single code path: a bcrypt
	// compare runs whether or not the email exists.
	dummyHash string
}

// NewService creates a directory backed by a store.
func NewService(store Store) *Service {
	dummy, err := password.Hash("smartattend-no-such-user")
	if err != nil {
		dummy = ""
	}
	return &Service{store: store, dummyHash: dummy}
}

// Register creates a user. Students must carry a roll; email and roll
// are unique.
func (s *Service) Register(ctx context.Context, name, email, rawPassword, role string, studentRoll *string) (*User, error) {
	if role != RoleStudent && role != RoleTeacher {
		return nil, ErrInvalidRole
	}
	if role == RoleStudent && (studentRoll == nil || *studentRoll == "") {
		return nil, ErrRollRequired
	}
	if role != RoleStudent {
		studentRoll = nil
	}

	hash, err := password.Hash(rawPassword)
	if err != nil {
		return nil, err
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		StudentRoll:  studentRoll,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate resolves email+password to a user. Unknown email and
// wrong password are indistinguishable: both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*User, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash := s.dummyHash
	if u != nil {
		hash = u.PasswordHash
	}
	if !password.Verify(rawPassword, hash) || u == nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ListStudents returns registered students, capped at MaxStudents.
// Ordering is not guaranteed.
func (s *Service) ListStudents(ctx context.Context) ([]User, error) {
	return s.store.ListStudents(ctx, MaxStudents)
}

// FindByRoll resolves a student roll to its owning user.
func (s *Service) FindByRoll(ctx context.Context, roll string) (*User, error) {
	return s.store.FindByRoll(ctx, roll)
}

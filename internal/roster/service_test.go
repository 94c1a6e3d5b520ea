package roster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"smartattend/internal/password"
)

// memStore is an in-memory Store for tests, enforcing the same
// uniqueness rules as the Postgres schema.
type memStore struct {
	mu    sync.Mutex
	users []User
}

func (m *memStore) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
		if u.StudentRoll != nil && existing.StudentRoll != nil &&
			existing.Role == RoleStudent && *existing.StudentRoll == *u.StudentRoll {
			return ErrDuplicateRoll
		}
	}
	m.users = append(m.users, u)
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindByRoll(_ context.Context, roll string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Role == RoleStudent && m.users[i].StudentRoll != nil && *m.users[i].StudentRoll == roll {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListStudents(_ context.Context, limit int) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if u.Role != RoleStudent {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func strptr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	u, err := svc.Register(ctx, "Vishal Maurya", "vishal@gmail.com", "123456", RoleStudent, strptr("A1"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" {
		t.Fatal("id not assigned")
	}
	if u.StudentRoll == nil || *u.StudentRoll != "A1" {
		t.Fatalf("roll not kept: %+v", u)
	}
	if u.PasswordHash == "123456" || u.PasswordHash == "" {
		t.Fatal("raw password must not be stored")
	}
	if !password.Verify("123456", u.PasswordHash) {
		t.Fatal("stored hash does not verify")
	}

	// Teachers carry no roll, even when one is supplied.
	teacher, err := svc.Register(ctx, "Teacher Admin", "teacher@school.com", "teacher123", RoleTeacher, strptr("ignored"))
	if err != nil {
		t.Fatalf("register teacher: %v", err)
	}
	if teacher.StudentRoll != nil {
		t.Fatal("teacher should not carry a student roll")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "S", "s@x.y", "pw", RoleStudent, nil); !errors.Is(err, ErrRollRequired) {
		t.Fatalf("student without roll: got %v", err)
	}
	if _, err := svc.Register(ctx, "S", "s@x.y", "pw", RoleStudent, strptr("")); !errors.Is(err, ErrRollRequired) {
		t.Fatalf("student with empty roll: got %v", err)
	}
	if _, err := svc.Register(ctx, "S", "s@x.y", "pw", "admin", nil); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("bad role: got %v", err)
	}
}

func TestRegisterUniqueness(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "A", "a@x.y", "pw", RoleStudent, strptr("R1")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "B", "a@x.y", "pw", RoleStudent, strptr("R2")); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate email: got %v", err)
	}
	if _, err := svc.Register(ctx, "C", "c@x.y", "pw", RoleStudent, strptr("R1")); !errors.Is(err, ErrDuplicateRoll) {
		t.Fatalf("duplicate roll: got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "A", "a@x.y", "right-password", RoleTeacher, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Authenticate(ctx, "a@x.y", "right-password")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Email != "a@x.y" {
		t.Fatalf("wrong user: %+v", u)
	}

	// Unknown email and wrong password must be indistinguishable.
	_, errNoUser := svc.Authenticate(ctx, "nobody@x.y", "whatever")
	_, errBadPass := svc.Authenticate(ctx, "a@x.y", "wrong-password")
	if !errors.Is(errNoUser, ErrInvalidCredentials) || !errors.Is(errBadPass, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v / %v", errNoUser, errBadPass)
	}
	if errNoUser.Error() != errBadPass.Error() {
		t.Fatalf("failure causes distinguishable: %q vs %q", errNoUser, errBadPass)
	}
}

func TestListStudentsCap(t *testing.T) {
	mem := &memStore{}
	// Seed past the cap directly; Register's bcrypt cost makes 100+
	// registrations needlessly slow here.
	for i := 0; i < MaxStudents+3; i++ {
		mem.users = append(mem.users, User{
			ID:          fmt.Sprintf("u-%d", i),
			Email:       fmt.Sprintf("s%d@x.y", i),
			Role:        RoleStudent,
			StudentRoll: strptr(fmt.Sprintf("R%d", i)),
		})
	}
	mem.users = append(mem.users, User{ID: "t-1", Email: "t@x.y", Role: RoleTeacher})

	svc := NewService(mem)
	students, err := svc.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(students) != MaxStudents {
		t.Fatalf("expected cap of %d, got %d", MaxStudents, len(students))
	}
	for _, s := range students {
		if s.Role != RoleStudent {
			t.Fatalf("non-student in listing: %+v", s)
		}
	}
}

func TestFindByRoll(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	want, err := svc.Register(ctx, "A", "a@x.y", "pw", RoleStudent, strptr("R1"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.FindByRoll(ctx, "R1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("wrong user: %+v", got)
	}
	if _, err := svc.FindByRoll(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing roll: got %v", err)
	}
}

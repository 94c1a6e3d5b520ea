package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("test-signing-key")
	token, err := iss.Issue("u-1", "vishal@gmail.com", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "vishal@gmail.com" || claims.Role != "student" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: now}
	iss := NewIssuerAt("test-signing-key", clock.Now)

	token, err := iss.Issue("u-1", "a@b.c", "teacher")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Still valid just before the TTL elapses.
	clock.t = now.Add(TTL - time.Second)
	if _, err := iss.Parse(token); err != nil {
		t.Fatalf("token should be valid before TTL: %v", err)
	}

	// Invalid at and after the expiry instant.
	clock.t = now.Add(TTL)
	if _, err := iss.Parse(token); err == nil {
		t.Fatal("token should be rejected at expiry")
	}
	clock.t = now.Add(TTL + time.Hour)
	if _, err := iss.Parse(token); err == nil {
		t.Fatal("token should be rejected after expiry")
	}
}

func TestParseTampered(t *testing.T) {
	iss := NewIssuer("test-signing-key")
	token, err := iss.Issue("u-1", "a@b.c", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Flipping any single character must break verification. The last
	// character of a base64 segment is skipped: its low bits are padding
	// that decodes to the same bytes.
	for i := 0; i < len(token); i++ {
		if token[i] == '.' || i == len(token)-1 || token[i+1] == '.' {
			continue
		}
		altered := []byte(token)
		if altered[i] == 'A' {
			altered[i] = 'B'
		} else {
			altered[i] = 'A'
		}
		if string(altered) == token {
			continue
		}
		if _, err := iss.Parse(string(altered)); err == nil {
			t.Fatalf("tampered token accepted (pos %d)", i)
		}
	}
}

func TestParseWrongKeyAndGarbage(t *testing.T) {
	iss := NewIssuer("key-one")
	token, err := iss.Issue("u-1", "a@b.c", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewIssuer("key-two")
	if _, err := other.Parse(token); err == nil {
		t.Fatal("token signed with another key accepted")
	}
	for _, bad := range []string{"", "garbage", "a.b.c", "e30.e30."} {
		if _, err := iss.Parse(bad); err == nil {
			t.Fatalf("malformed token %q accepted", bad)
		}
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

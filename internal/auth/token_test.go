package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue(7, 3)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ac, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ac.UserID != 7 || ac.CoupleID != 3 {
		t.Errorf("context = %+v, want user 7 couple 3", ac)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue(1, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)
	token, err := m.Issue(1, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token, err := m.Issue(1, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = "eyJzdWIiOiI5OTkifQ"
	if _, err := m.Verify(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected verification failure for tampered payload")
	}
}

func TestUnpairedUserToken(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue(5, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ac, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ac.CoupleID != 0 {
		t.Errorf("couple id = %d, want 0 for unpaired user", ac.CoupleID)
	}
}

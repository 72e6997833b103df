package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stayvista/stayvista-api/internal/platform/auth"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc, err := auth.NewTokenService("test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	for _, subject := range []string{"u1", "5f9d88f9a1b2c3d4e5f6a7b8", "owner-with-dashes"} {
		token, err := svc.Issue(subject)
		if err != nil {
			t.Fatalf("Issue(%q): %v", subject, err)
		}

		got, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("Verify(%q): %v", subject, err)
		}
		if got != subject {
			t.Errorf("Verify returned %q, want %q", got, subject)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc, err := auth.NewTokenService("test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := svc.Issue("u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = svc.Verify(token)
	if !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("Verify error = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, _ := auth.NewTokenService("secret-a", time.Hour)
	verifier, _ := auth.NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Errorf("Verify error = %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	svc, _ := auth.NewTokenService("test-secret", time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Verify(raw)
		if !errors.Is(err, auth.ErrTokenMalformed) {
			t.Errorf("Verify(%q) error = %v, want ErrTokenMalformed", raw, err)
		}
	}
}

func TestMissingSecretRejectedAtConstruction(t *testing.T) {
	if _, err := auth.NewTokenService("", time.Hour); err == nil {
		t.Error("expected error for empty signing secret")
	}
}

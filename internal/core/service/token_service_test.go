package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/identware/identity-api/internal/core/domain"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Issue("alice", "svc-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Username != "alice" || claims.Service != "svc-a" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt.Before(time.Now().Add(59 * time.Minute)) {
		t.Fatalf("expiry too soon: %v", claims.ExpiresAt)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService("secret", 0)

	token, err := svc.Issue("alice", "svc-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	want := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt.Before(want.Add(-time.Minute)) || claims.ExpiresAt.After(want.Add(time.Minute)) {
		t.Fatalf("expected ~24h expiry, got %v", claims.ExpiresAt)
	}
}

func TestTokenService_ExpiredWithinLeeway(t *testing.T) {
	// Expired 29s ago: inside the 30s clock-skew leeway, still accepted.
	svc := NewTokenService("secret", -29*time.Second)

	token, err := svc.Issue("alice", "svc-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token within leeway to verify, got %v", err)
	}
}

func TestTokenService_ExpiredBeyondLeeway(t *testing.T) {
	svc := NewTokenService("secret", -31*time.Second)

	token, err := svc.Issue("alice", "svc-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	token, err := NewTokenService("other-secret", time.Hour).Issue("alice", "svc-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenService_Garbage(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify("not-a-token"); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenService_WrongAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"username": "alice",
		"service":  "svc-a",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}

func TestTokenService_MissingClaims(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	for name, claims := range map[string]jwt.MapClaims{
		"no username": {"service": "svc-a", "exp": time.Now().Add(time.Hour).Unix()},
		"no service":  {"username": "alice", "exp": time.Now().Add(time.Hour).Unix()},
	} {
		signed := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		token, err := signed.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrTokenMissingClaims) {
			t.Fatalf("%s: expected ErrTokenMissingClaims, got %v", name, err)
		}
	}
}

func TestTokenService_MissingSecret(t *testing.T) {
	svc := NewTokenService("", time.Hour)

	if _, err := svc.Issue("alice", "svc-a"); !errors.Is(err, domain.ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing on issue, got %v", err)
	}

	good, err := NewTokenService("secret", time.Hour).Issue("alice", "svc-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(good); !errors.Is(err, domain.ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing on verify, got %v", err)
	}
}

package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "google:1", Name: "Анна"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "google:1" || claims.Name != "Анна" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Exp-claims.Iat != int64(DefaultTTL/time.Second) {
		t.Fatalf("unexpected ttl: %d", claims.Exp-claims.Iat)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "google:1"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	parts := strings.Split(token, ".")
	parts[2] = "AAAA" + parts[2][4:]
	if _, err := VerifyJWT(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	past := time.Now().Add(-time.Hour).Unix()
	token, err := SignJWT(Claims{Sub: "google:1", Iat: past - 10, Exp: past})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	_, err = VerifyJWT(token)
	if !errors.Is(err, ErrTokenExpired) || !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSignRejectsGuestSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := SignJWT(Claims{Sub: GuestPrefix + "g-1"}); err == nil {
		t.Fatal("expected guest subject to be rejected")
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		header string
		claims string
	}{
		{"other issuer", `{"alg":"HS256","typ":"JWT"}`, `{"sub":"google:1","iss":"resume-api","exp":%d}`},
		{"no issuer", `{"alg":"HS256","typ":"JWT"}`, `{"sub":"google:1","exp":%d}`},
		{"guest subject", `{"alg":"HS256","typ":"JWT"}`, `{"sub":"guest:g-1","iss":"docassist-web","exp":%d}`},
		{"unsigned alg", `{"alg":"none","typ":"JWT"}`, `{"sub":"google:1","iss":"docassist-web","exp":%d}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base64.RawURLEncoding.EncodeToString([]byte(tc.header)) + "." +
				base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(tc.claims, exp)))
			token := input + "." + sign(input, []byte("test-secret"))
			if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSignStampsIssuer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "google:1", Iss: "someone-else"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Iss != Issuer {
		t.Fatalf("expected issuer %q, got %q", Issuer, claims.Iss)
	}
}

func TestSignRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := SignJWT(Claims{Sub: "google:1"}); err == nil {
		t.Fatal("expected missing secret error")
	}
}

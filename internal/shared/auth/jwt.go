package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Issuer is stamped into every session token and required on verification.
const Issuer = "docassist-web"

// GuestPrefix marks user IDs that come from the guest cookie. Such identities
// are never carried in a signed token.
const GuestPrefix = "guest:"

// DefaultTTL is the lifetime of session tokens signed without an explicit expiry.
const DefaultTTL = 7 * 24 * time.Hour

// Claims is the signed-in user carried by the session cookie or bearer token.
type Claims struct {
	Sub     string `json:"sub"`
	Iss     string `json:"iss"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Exp     int64  `json:"exp,omitempty"`
	Iat     int64  `json:"iat,omitempty"`
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
	// ErrTokenExpired matches ErrInvalidToken too.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// hs256Header is the only header accepted by VerifyJWT.
var hs256Header = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

// SignJWT signs a session token for a signed-in user with DefaultTTL.
func SignJWT(claims Claims) (string, error) {
	return SignJWTWithTTL(claims, DefaultTTL)
}

// SignJWTWithTTL signs claims, defaulting Exp to now+ttl. Guest subjects are
// rejected.
func SignJWTWithTTL(claims Claims, ttl time.Duration) (string, error) {
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	switch {
	case strings.TrimSpace(claims.Sub) == "":
		return "", errors.New("sub is required")
	case strings.HasPrefix(claims.Sub, GuestPrefix):
		return "", fmt.Errorf("cannot sign guest subject %q", claims.Sub)
	}

	now := time.Now().UTC().Unix()
	if claims.Iat == 0 {
		claims.Iat = now
	}
	if claims.Exp == 0 {
		claims.Exp = now + int64(ttl/time.Second)
	}
	claims.Iss = Issuer

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	signingInput := hs256Header + "." + base64.RawURLEncoding.EncodeToString(payload)
	return signingInput + "." + sign(signingInput, secret), nil
}

// VerifyJWT checks the signature, issuer and expiry of a session token.
// Expired tokens return ErrTokenExpired.
func VerifyJWT(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != hs256Header {
		return Claims{}, ErrInvalidToken
	}
	signingInput := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(signingInput, secret))) {
		return Claims{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if claims.Sub == "" || strings.HasPrefix(claims.Sub, GuestPrefix) || claims.Iss != Issuer {
		return Claims{}, ErrInvalidToken
	}
	if claims.Exp > 0 && time.Now().UTC().Unix() > claims.Exp {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}

func sign(input string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	env := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env == "production" || env == "prod" {
		if secret == "" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
	}
	if secret == "" {
		secret = "dev-secret"
	}
	return []byte(secret), nil
}

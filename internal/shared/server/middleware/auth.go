package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docassist-web/internal/shared/auth"
	"docassist-web/internal/shared/server/respond"
	"docassist-web/internal/shared/telemetry"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"

	// SessionCookie carries the JWT issued after Google login.
	SessionCookie = "docassist_session"
	// GuestCookie carries the generated guest identifier for browser sessions.
	GuestCookie = "docassist_guest"

	guestCookieMaxAge = 30 * 24 * 3600
)

// Auth resolves identity from a bearer JWT, the session cookie, the X-Guest-Id
// header or the guest cookie. Browsers without any identity get a fresh guest cookie.
func Auth(env string) gin.HandlerFunc {
	secure := env == "production"
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/v1/auth/google/") || path == "/api/v1/health" || path == "/metrics" {
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			claims, err := auth.VerifyJWT(token)
			if errors.Is(err, auth.ErrTokenExpired) {
				respond.Error(c, http.StatusUnauthorized, "token_expired", "session expired, sign in again", nil)
				return
			}
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			setClaims(c, claims)
			c.Next()
			return
		}

		if token, err := c.Cookie(SessionCookie); err == nil && strings.TrimSpace(token) != "" {
			claims, err := auth.VerifyJWT(token)
			if err == nil {
				setClaims(c, claims)
				c.Next()
				return
			}
			// Expired or tampered sessions fall through to guest identity.
			event := "auth.session_invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				event = "auth.session_expired"
			}
			telemetry.Info(event, map[string]any{"request_id": RequestIDFromContext(c)})
			c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			if cookie, err := c.Cookie(GuestCookie); err == nil {
				guestID = strings.TrimSpace(cookie)
			}
		}
		if guestID == "" {
			guestID = uuid.NewString()
			c.SetCookie(GuestCookie, guestID, guestCookieMaxAge, "/", "", secure, true)
		}

		c.Set(userIDKey, auth.GuestPrefix+guestID)
		c.Set("isGuest", true)
		c.Next()
	}
}

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(userIDKey, claims.Sub)
	if claims.Email != "" {
		c.Set(userEmailKey, claims.Email)
	}
	if claims.Name != "" {
		c.Set(userNameKey, claims.Name)
	}
	if claims.Picture != "" {
		c.Set(userPictureKey, claims.Picture)
	}
	c.Set("isGuest", false)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// UserPictureFromContext fetches the user picture set by the auth middleware.
func UserPictureFromContext(c *gin.Context) string {
	return stringFromContext(c, userPictureKey)
}

// IsGuest reports whether the request carries a guest identity.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return true
	}
	val, ok := c.Get("isGuest")
	if !ok {
		return true
	}
	guest, ok := val.(bool)
	return !ok || guest
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

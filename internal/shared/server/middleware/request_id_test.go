package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDPropagatesToRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())

	var fromCtx, detached string
	router.GET("/x", func(c *gin.Context) {
		fromCtx = RequestIDFrom(c.Request.Context())
		detached = RequestIDFrom(Detach(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if fromCtx != "abc" || detached != "abc" {
		t.Fatalf("expected request id abc, got ctx=%q detached=%q", fromCtx, detached)
	}
	if got := resp.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("expected response header abc, got %q", got)
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := resp.Header().Get("X-Request-Id"); len(got) != 32 {
		t.Fatalf("expected 32 hex chars, got %q", got)
	}
}

package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Env:             "dev",
		BackendOrigin:   "http://127.0.0.1:1",
		BackendAPIBase:  "http://127.0.0.1:1/api",
		BackendTimeout:  time.Second,
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		CacheTTL:        time.Second,
		ViewIdleTimeout: time.Minute,
		ProgressTick:    30 * time.Millisecond,
		UIRedirectURL:   "/",
	}
}

func TestBuildDevFallsBackToMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Build(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Redis != nil {
		t.Fatal("expected in-memory dependencies in dev without urls")
	}
	if app.Router == nil || app.DetailHandler == nil || app.Views == nil || app.Hub == nil {
		t.Fatal("expected router and handlers to be wired")
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"

	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}
}

func TestBuildRejectsIncompleteObjectStore(t *testing.T) {
	tests := []struct {
		name      string
		storeType string
	}{
		{name: "s3 without bucket", storeType: "s3"},
		{name: "minio without endpoint", storeType: "minio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.ObjectStoreType = tt.storeType
			if _, err := Build(context.Background(), cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173/"})
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{name: "no origin", want: true},
		{name: "configured", origin: "http://localhost:5173", host: "api:8080", want: true},
		{name: "same host", origin: "https://docs.example.com", host: "docs.example.com", want: true},
		{name: "foreign", origin: "https://evil.example.com", host: "docs.example.com", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/documents/d1/progress/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := check(r); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

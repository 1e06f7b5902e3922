package generated

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docassist-web/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	router := gin.New()
	router.Use(middleware.Auth("dev"))
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc
}

func TestHandlerListsOwnDocuments(t *testing.T) {
	router, svc := newTestRouter(t)
	if _, err := svc.Save(context.Background(), SaveInput{UserID: "guest:g1", DocumentID: "d1", FileName: "a.txt", Data: []byte("x")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := svc.Save(context.Background(), SaveInput{UserID: "guest:g2", DocumentID: "d1", FileName: "b.txt", Data: []byte("y")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/generated?documentId=d1", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Items []Document `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].FileName != "a.txt" {
		t.Fatalf("unexpected items %+v", payload.Items)
	}
}

func TestHandlerDownloadConvertsToDOCX(t *testing.T) {
	router, svc := newTestRouter(t)
	doc, err := svc.Save(context.Background(), SaveInput{UserID: "guest:g1", DocumentID: "d1", Title: "Жалоба", FileName: "complaint.txt", ContentType: "text/plain", Data: []byte("текст")})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/generated/"+doc.ID+"/download?format=docx", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != DOCXContentType {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "complaint.docx") {
		t.Fatalf("unexpected disposition %q", got)
	}
	body := resp.Body.Bytes()
	if _, err := zip.NewReader(bytes.NewReader(body), int64(len(body))); err != nil {
		t.Fatalf("expected docx archive: %v", err)
	}
}

func TestHandlerDownloadRejectsOtherUser(t *testing.T) {
	router, svc := newTestRouter(t)
	doc, err := svc.Save(context.Background(), SaveInput{UserID: "guest:g1", DocumentID: "d1", FileName: "a.txt", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/generated/"+doc.ID+"/download", nil)
	req.Header.Set("X-Guest-Id", "intruder")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

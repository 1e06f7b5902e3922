package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/storage/cache"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.URL+"/api", 5*time.Second)
}

func TestGetDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/documents/doc-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Request-Id"); got != "req-1" {
			t.Errorf("expected request id header, got %q", got)
		}
		w.Write([]byte(`{"success": true, "data": {"_id": "doc-1", "originalName": "Договор.pdf", "extractedText": "текст", "analysis": {"risks": ["a"]}}}`))
	})

	ctx := middleware.WithRequestID(context.Background(), "req-1")
	doc, err := c.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.ID != "doc-1" || doc.Name != "Договор.pdf" || doc.Text != "текст" || !doc.HasAnalysis() {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"missing"}`, http.StatusNotFound)
	})
	_, err := c.GetDocument(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func TestGetDocumentWithoutAnalysis(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"name": "a.txt", "analysis": null}}`))
	})
	doc, err := c.GetDocument(context.Background(), "d")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.HasAnalysis() || doc.ID != "d" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestAdvancedAnalysis(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/advanced-analysis" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var in AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		if in.DocumentText != "текст" || in.UserID != "u1" || in.FileName != "a.pdf" {
			t.Errorf("unexpected body %+v", in)
		}
		w.Write([]byte(`{"success": true, "data": {"analysis": {"expertOpinion": "ok"}}}`))
	})

	raw, err := c.AdvancedAnalysis(context.Background(), AnalysisRequest{DocumentText: "текст", FileName: "a.pdf", UserID: "u1"})
	if err != nil {
		t.Fatalf("AdvancedAnalysis: %v", err)
	}
	if string(raw) != `{"expertOpinion": "ok"}` {
		t.Fatalf("unexpected analysis %s", raw)
	}
}

func TestAdvancedAnalysisFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "success false", status: http.StatusOK, body: `{"success": false, "message": "quota"}`, wantErr: ErrUnsuccessful},
		{name: "missing analysis", status: http.StatusOK, body: `{"success": true, "data": {}}`, wantErr: ErrUnsuccessful},
		{name: "bad json", status: http.StatusOK, body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.AdvancedAnalysis(context.Background(), AnalysisRequest{DocumentText: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Message != "Вопрос" || in.DocID != "d1" || len(in.History) != 1 {
			t.Errorf("unexpected body %+v", in)
		}
		w.Write([]byte(`{"response": "Ответ"}`))
	})
	reply, err := c.Chat(context.Background(), ChatRequest{
		Message: "Вопрос",
		History: []ChatTurn{{Role: "user", Content: "привет"}},
		UserID:  "u",
		DocID:   "d1",
	})
	if err != nil || reply != "Ответ" {
		t.Fatalf("Chat = %q, %v", reply, err)
	}
}

func TestChatEmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "  "}`))
	})
	if _, err := c.Chat(context.Background(), ChatRequest{Message: "x"}); !errors.Is(err, ErrUnsuccessful) {
		t.Fatalf("expected ErrUnsuccessful, got %v", err)
	}
}

func TestGenerateLegalDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/generate-legal-document" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		for _, key := range []string{"recommendation", "originalDocumentText", "analysis", "userInfo"} {
			if _, ok := in[key]; !ok {
				t.Errorf("missing %s in body", key)
			}
		}
		w.Write([]byte(`{"success": true, "data": {"generatedDocument": "ПРЕТЕНЗИЯ", "fileName": "pretenziya.txt", "documentType": "claim"}}`))
	})
	doc, err := c.GenerateLegalDocument(context.Background(), GenerateRequest{
		Recommendation: map[string]string{"title": "Направить претензию"},
		Analysis:       json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("GenerateLegalDocument: %v", err)
	}
	if doc.Text != "ПРЕТЕНЗИЯ" || doc.FileName != "pretenziya.txt" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestCachedDocumentsServesFromCache(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"success": true, "data": {"name": "a.txt", "analysis": {"risks": ["x"]}}}`))
	})
	store := cache.NewTyped[Document](cache.NewMemory(time.Minute, time.Minute), time.Minute)
	docs := NewCachedDocuments(c, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc, err := docs.GetDocument(ctx, "d1")
		if err != nil || !doc.HasAnalysis() {
			t.Fatalf("GetDocument = %+v, %v", doc, err)
		}
	}
	if hits != 1 {
		t.Fatalf("expected one backend call, got %d", hits)
	}

	_ = docs.Invalidate(ctx, "d1")
	_, _ = docs.GetDocument(ctx, "d1")
	if hits != 2 {
		t.Fatalf("expected refetch after invalidate, got %d", hits)
	}
}

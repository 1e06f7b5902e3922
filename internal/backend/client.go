// Package backend is the HTTP client of the document-analysis API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docassist-web/internal/shared/server/middleware"
)

const serviceName = "analysis-api"

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 2048

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("backend: not found")
	// ErrUnsuccessful is returned when the backend answers 2xx with success=false.
	ErrUnsuccessful = errors.New("backend: request unsuccessful")
)

// StatusError is a non-2xx answer.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", serviceName, e.Path, e.Status, e.Body)
}

// Is lets callers match a 404 with errors.Is(err, ErrNotFound).
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client calls the analysis API. Documents are read from {origin}/api and
// everything else is posted under base.
type Client struct {
	origin     string
	base       string
	httpClient *http.Client
}

// New creates a Client. timeout bounds every request.
func New(origin, base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		origin:     strings.TrimRight(origin, "/"),
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// envelope is the common {success, data} wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) check(path string) error {
	if e.Success != nil && !*e.Success {
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		return fmt.Errorf("%s %s: %w: %s", serviceName, path, ErrUnsuccessful, msg)
	}
	return nil
}

// GetDocument calls GET {origin}/api/documents/{id}.
func (c *Client) GetDocument(ctx context.Context, id string) (Document, error) {
	path := "/api/documents/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
	if err != nil {
		return Document{}, err
	}
	var env envelope
	if err := c.do(req, path, &env); err != nil {
		return Document{}, err
	}
	if err := env.check(path); err != nil {
		return Document{}, err
	}
	var data documentData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return Document{}, fmt.Errorf("%s %s: decode: %w", serviceName, path, err)
		}
	}
	doc := data.document()
	if doc.ID == "" {
		doc.ID = id
	}
	return doc, nil
}

// AdvancedAnalysis calls POST {base}/documents/advanced-analysis and returns
// the raw analysis object.
func (c *Client) AdvancedAnalysis(ctx context.Context, in AnalysisRequest) (json.RawMessage, error) {
	const path = "/documents/advanced-analysis"
	var env envelope
	if err := c.post(ctx, path, in, &env); err != nil {
		return nil, err
	}
	if err := env.check(path); err != nil {
		return nil, err
	}
	var data struct {
		Analysis json.RawMessage `json:"analysis"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s %s: decode: %w", serviceName, path, err)
		}
	}
	if isNull(data.Analysis) {
		return nil, fmt.Errorf("%s %s: %w: empty analysis", serviceName, path, ErrUnsuccessful)
	}
	return data.Analysis, nil
}

// Chat calls POST {base}/chat and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, in ChatRequest) (string, error) {
	const path = "/chat"
	var out struct {
		envelope
		Response string `json:"response"`
	}
	if err := c.post(ctx, path, in, &out); err != nil {
		return "", err
	}
	if err := out.check(path); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("%s %s: %w: empty response", serviceName, path, ErrUnsuccessful)
	}
	return out.Response, nil
}

// GenerateLegalDocument calls POST {base}/documents/generate-legal-document.
func (c *Client) GenerateLegalDocument(ctx context.Context, in GenerateRequest) (GeneratedDocument, error) {
	const path = "/documents/generate-legal-document"
	var env envelope
	if err := c.post(ctx, path, in, &env); err != nil {
		return GeneratedDocument{}, err
	}
	if err := env.check(path); err != nil {
		return GeneratedDocument{}, err
	}
	var out GeneratedDocument
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return GeneratedDocument{}, fmt.Errorf("%s %s: decode: %w", serviceName, path, err)
		}
	}
	if out.Text == "" {
		return GeneratedDocument{}, fmt.Errorf("%s %s: %w: empty document", serviceName, path, ErrUnsuccessful)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s %s: encode: %w", serviceName, path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("Accept", "application/json")
	if id := middleware.RequestIDFrom(req.Context()); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", serviceName, path, err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, path); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", serviceName, path, err)
	}
	return nil
}

// checkResp returns a *StatusError carrying the upstream body for non-2xx.
func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

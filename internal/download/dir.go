package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Dir saves files into a local directory. Used by the terminal client.
type Dir struct {
	Path   string
	Client *http.Client
	// Saved records the absolute path of every written file, newest last.
	Saved []string
	// MaxBytes caps URL downloads; zero means DefaultMaxURLBytes.
	MaxBytes int64
}

// DefaultMaxURLBytes caps files fetched by Dir.URL.
const DefaultMaxURLBytes = 20 << 20

// ErrTooLarge is returned when a fetched file exceeds the cap.
var ErrTooLarge = errors.New("download too large")

// NewDir returns a Dir rooted at path with a bounded HTTP client for URL downloads.
func NewDir(path string) *Dir {
	return &Dir{Path: path, Client: &http.Client{Timeout: 60 * time.Second}}
}

func (d *Dir) Available() bool {
	if d == nil || d.Path == "" {
		return false
	}
	info, err := os.Stat(d.Path)
	return err == nil && info.IsDir()
}

func (d *Dir) Blob(name string, data []byte, _ string) bool {
	if !d.Available() {
		unavailable(name)
		return false
	}
	target := filepath.Join(d.Path, cleanName(name))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		warn("download.write_failed", name, err)
		return false
	}
	d.Saved = append(d.Saved, target)
	return true
}

// URL fetches rawURL and stores the body under name.
func (d *Dir) URL(name, rawURL string) bool {
	if !d.Available() {
		unavailable(name)
		return false
	}
	if !validURL(rawURL) {
		warn("download.invalid_url", name, fmt.Errorf("invalid url %q", rawURL))
		return false
	}
	body, err := d.fetch(rawURL)
	if err != nil {
		warn("download.fetch_failed", name, err)
		return false
	}
	return d.Blob(name, body, "")
}

func (d *Dir) fetch(rawURL string) ([]byte, error) {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	limit := d.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxURLBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return body, nil
}

package telemetry

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read output: %v", err)
	}
	return buf.String()
}

func TestWarnWritesReservedKeysLast(t *testing.T) {
	out := captureStdout(t, func() {
		Warn("download.unavailable", map[string]any{"file_name": "a.txt", "level": "spoofed"})
	})

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected level warn, got %v", payload["level"])
	}
	if payload["msg"] != "download.unavailable" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["file_name"] != "a.txt" {
		t.Fatalf("unexpected file_name: %v", payload["file_name"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}

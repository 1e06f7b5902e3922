package download

import (
	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/telemetry"
)

// Nop is used when no client is attached. Every delivery is a soft failure.
type Nop struct{}

func (Nop) Available() bool { return false }

func (Nop) Blob(name string, _ []byte, _ string) bool {
	unavailable(name)
	return false
}

func (Nop) URL(name, _ string) bool {
	unavailable(name)
	return false
}

func unavailable(name string) {
	metrics.IncDownloadUnavailable()
	telemetry.Warn("download.unavailable", map[string]any{"file_name": name})
}

func warn(msg, name string, err error) {
	telemetry.Warn(msg, map[string]any{"file_name": name, "error": err.Error()})
}

package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	analysisRunsStarted   atomic.Uint64
	analysisRunsCompleted atomic.Uint64
	analysisRunsFailed    atomic.Uint64
	chatMessagesSent      atomic.Uint64
	chatMessagesFailed    atomic.Uint64
	documentsGenerated    atomic.Uint64
	documentsFailed       atomic.Uint64
	archiveFailures       atomic.Uint64
	rateLimited           atomic.Uint64
	downloadsUnavailable  atomic.Uint64
	staleResponses        atomic.Uint64
	cacheHits             atomic.Uint64
	cacheMisses           atomic.Uint64

	analysisDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncAnalysisStarted increments the analysis runs started counter.
func IncAnalysisStarted() { analysisRunsStarted.Add(1) }

// IncAnalysisCompleted increments the analysis runs completed counter.
func IncAnalysisCompleted() { analysisRunsCompleted.Add(1) }

// IncAnalysisFailed increments the analysis runs failed counter.
func IncAnalysisFailed() { analysisRunsFailed.Add(1) }

func IncChatSent()             { chatMessagesSent.Add(1) }
func IncChatFailed()           { chatMessagesFailed.Add(1) }
func IncDocumentGenerated()    { documentsGenerated.Add(1) }
func IncDocumentFailed()       { documentsFailed.Add(1) }
func IncArchiveFailed()        { archiveFailures.Add(1) }
func IncRateLimited()          { rateLimited.Add(1) }
func IncDownloadUnavailable()  { downloadsUnavailable.Add(1) }
func IncStaleResponse()        { staleResponses.Add(1) }
func IncCacheHit()             { cacheHits.Add(1) }
func IncCacheMiss()            { cacheMisses.Add(1) }
func StaleResponses() uint64   { return staleResponses.Load() }
func AnalysisFailures() uint64 { return analysisRunsFailed.Load() }
func DocumentFailures() uint64 { return documentsFailed.Load() }
func ArchiveFailures() uint64  { return archiveFailures.Load() }

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "analysis_runs_started_total", "Total analysis runs started", analysisRunsStarted.Load())
	writeCounter(&buf, "analysis_runs_completed_total", "Total analysis runs completed", analysisRunsCompleted.Load())
	writeCounter(&buf, "analysis_runs_failed_total", "Total analysis runs failed", analysisRunsFailed.Load())
	writeCounter(&buf, "chat_messages_sent_total", "Total chat messages sent to the backend", chatMessagesSent.Load())
	writeCounter(&buf, "chat_messages_failed_total", "Total chat messages answered with the failure reply", chatMessagesFailed.Load())
	writeCounter(&buf, "documents_generated_total", "Total legal documents generated", documentsGenerated.Load())
	writeCounter(&buf, "documents_generation_failed_total", "Total legal document generation failures", documentsFailed.Load())
	writeCounter(&buf, "generated_archive_failed_total", "Total generated document archive failures", archiveFailures.Load())
	writeCounter(&buf, "http_rate_limited_total", "Total requests rejected by the rate limiter", rateLimited.Load())
	writeCounter(&buf, "downloads_unavailable_total", "Downloads requested without a client context", downloadsUnavailable.Load())
	writeCounter(&buf, "stale_responses_discarded_total", "Backend responses discarded as stale", staleResponses.Load())
	writeCounter(&buf, "document_cache_hits_total", "Document cache hits", cacheHits.Load())
	writeCounter(&buf, "document_cache_misses_total", "Document cache misses", cacheMisses.Load())
	writeHistogram(&buf, "analysis_duration_ms", "Analysis request duration in milliseconds", analysisDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose bound it fits.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMs returns the elapsed milliseconds since start.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

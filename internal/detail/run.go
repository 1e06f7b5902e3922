package detail

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"docassist-web/internal/analysis"
	"docassist-web/internal/backend"
	"docassist-web/internal/progress"
	"docassist-web/internal/shared/generation"
	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/telemetry"
)

// Mount loads the document and its persisted analysis, and restores the chat
// transcript. Document metadata is always applied; the analysis only when no
// run was started in the meantime. Mount is skipped while a run is active.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.running {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	token := v.analysisGen.Next()
	doc, err := v.deps.Documents.GetDocument(ctx, v.documentID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return err
		}
		telemetry.Error("detail.mount_failed", map[string]any{
			"request_id":  middleware.RequestIDFrom(ctx),
			"document_id": v.documentID,
			"error":       err.Error(),
		})
		v.notify(NoticeError, MsgLoadFailed)
		return err
	}

	v.mu.Lock()
	text := v.doc.Text
	v.doc = doc
	if doc.Text == "" {
		v.doc.Text = text
	}
	v.mounted = true
	applied := false
	if doc.HasAnalysis() && v.analysisGen.Current(token) {
		v.setAnalysisLocked(doc.Analysis)
		applied = true
	}
	v.mu.Unlock()

	if doc.HasAnalysis() && !applied {
		metrics.IncStaleResponse()
	}
	if err := v.chat.Restore(ctx); err != nil {
		telemetry.Warn("detail.chat_restore_failed", map[string]any{
			"document_id": v.documentID,
			"error":       err.Error(),
		})
	}
	v.changed()
	return nil
}

// Mounted reports whether the document metadata has been loaded.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// RunAnalysis runs the advanced analysis and blocks until the response is
// applied. Progress moves 10% preprocessing, 50% analyzing while the request
// is out, 80% generating_report once it returns, then 100% complete. The
// completion callback of the tracker hides the indicator.
func (v *View) RunAnalysis(ctx context.Context) error {
	req, token, err := v.beginRun()
	if err != nil {
		return err
	}
	return v.finishRun(ctx, req, token)
}

// StartAnalysis validates like RunAnalysis and then runs it in the
// background, bound to the lifetime of the view and tagged with the request
// ID of ctx.
func (v *View) StartAnalysis(ctx context.Context) error {
	req, token, err := v.beginRun()
	if err != nil {
		return err
	}
	runCtx := middleware.WithRequestID(v.ctx, middleware.RequestIDFrom(ctx))
	go func() {
		_ = v.finishRun(runCtx, req, token)
	}()
	return nil
}

func (v *View) beginRun() (backend.AnalysisRequest, generation.Token, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return backend.AnalysisRequest{}, 0, ErrClosed
	}
	if v.running {
		v.mu.Unlock()
		return backend.AnalysisRequest{}, 0, ErrAnalysisRunning
	}
	if strings.TrimSpace(v.doc.Text) == "" {
		v.mu.Unlock()
		v.notify(NoticeAlert, MsgEmptyText)
		return backend.AnalysisRequest{}, 0, ErrEmptyText
	}
	req := backend.AnalysisRequest{
		DocumentText: v.doc.Text,
		DocumentType: v.doc.DocumentType,
		FileName:     v.doc.Name,
		UserID:       v.userID,
	}
	v.running = true
	token := v.analysisGen.Next()
	v.mu.Unlock()

	metrics.IncAnalysisStarted()
	v.tracker.Update(progress.Props{Visible: true, Target: 10, Stage: progress.StagePreprocessing})
	v.changed()
	return req, token, nil
}

func (v *View) finishRun(ctx context.Context, req backend.AnalysisRequest, token generation.Token) error {
	start := time.Now()
	fields := map[string]any{
		"request_id":  middleware.RequestIDFrom(ctx),
		"user_id":     v.userID,
		"document_id": v.documentID,
	}
	telemetry.Info("analysis.started", fields)

	v.tracker.Update(progress.Props{Visible: true, Target: 50, Stage: progress.StageAnalyzing})
	raw, err := v.deps.Analyzer.AdvancedAnalysis(ctx, req)

	if !v.analysisGen.Current(token) {
		v.mu.Lock()
		v.running = false
		v.mu.Unlock()
		metrics.IncStaleResponse()
		telemetry.Warn("analysis.stale_response", fields)
		return ErrStaleResponse
	}

	if err != nil {
		v.mu.Lock()
		v.running = false
		v.mu.Unlock()
		metrics.IncAnalysisFailed()
		fields["error"] = err.Error()
		fields["duration_ms"] = metrics.SinceMs(start)
		telemetry.Error("analysis.failed", fields)
		v.tracker.Update(progress.Props{Visible: false, Target: 0})
		v.notify(NoticeAlert, MsgAnalysisFailed)
		return err
	}

	v.tracker.Update(progress.Props{Visible: true, Target: 80, Stage: progress.StageGeneratingReport})

	v.mu.Lock()
	v.setAnalysisLocked(raw)
	v.mu.Unlock()
	v.changed()

	if v.stageDelay > 0 {
		if err := v.sleep(ctx, v.stageDelay); err != nil {
			v.mu.Lock()
			v.running = false
			v.mu.Unlock()
			return err
		}
	}

	v.mu.Lock()
	v.running = false
	v.mu.Unlock()
	if !v.analysisGen.Current(token) {
		return ErrStaleResponse
	}
	v.tracker.Update(progress.Props{Visible: true, Target: 100, Stage: progress.StageComplete})

	if v.deps.Cache != nil {
		if err := v.deps.Cache.Invalidate(ctx, v.documentID); err != nil {
			telemetry.Warn("analysis.cache_invalidate_failed", map[string]any{"document_id": v.documentID, "error": err.Error()})
		}
	}
	duration := metrics.SinceMs(start)
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(duration)
	fields["duration_ms"] = duration
	telemetry.Info("analysis.completed", fields)
	return nil
}

// completeRun is the tracker completion callback.
func (v *View) completeRun() {
	v.tracker.Update(progress.Props{Visible: false, Target: 100, Stage: progress.StageComplete})
	v.changed()
}

// setAnalysisLocked stores raw and its rendering. A payload that is not a
// JSON object renders as an empty analysis.
func (v *View) setAnalysisLocked(raw json.RawMessage) {
	v.raw = raw
	payload, err := analysis.Decode(raw)
	if err != nil {
		telemetry.Warn("analysis.decode_failed", map[string]any{"document_id": v.documentID, "error": err.Error()})
	}
	rendered := analysis.Normalize(payload)
	v.rendered = &rendered
}

func (v *View) sleep(ctx context.Context, d time.Duration) error {
	done := make(chan struct{})
	timer := v.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}

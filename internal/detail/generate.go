package detail

import (
	"context"
	"fmt"
	"path"
	"strings"

	"docassist-web/internal/analysis"
	"docassist-web/internal/backend"
	"docassist-web/internal/download"
	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/server/middleware"
	"docassist-web/internal/shared/telemetry"
)

// GuestUserInfo is sent for users without a profile.
var GuestUserInfo = backend.UserInfo{
	Name:    "Пользователь",
	Email:   "user@example.com",
	Phone:   "+7 (000) 000-00-00",
	Address: "Адрес не указан",
}

// Generating returns the ID of the recommendation being drafted, if any.
func (v *View) Generating() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generating
}

// GenerateLabel is the caption of the generate control for recID.
func (v *View) GenerateLabel(recID string) string {
	if v.Generating() == recID {
		return LabelGenerating
	}
	return LabelGenerate
}

// GenerateDocument drafts a legal document for the recommendation recID and
// hands the text to d. Only one generation runs at a time.
func (v *View) GenerateDocument(ctx context.Context, recID string, user backend.UserInfo, d download.Downloader) (backend.GeneratedDocument, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return backend.GeneratedDocument{}, ErrClosed
	}
	if v.rendered == nil {
		v.mu.Unlock()
		return backend.GeneratedDocument{}, ErrNoAnalysis
	}
	rec, ok := v.rendered.Recommendation(recID)
	if !ok {
		v.mu.Unlock()
		return backend.GeneratedDocument{}, ErrUnknownRecommendation
	}
	if v.generating != "" {
		v.mu.Unlock()
		return backend.GeneratedDocument{}, ErrGenerating
	}
	v.generating = recID
	req := backend.GenerateRequest{
		Recommendation:       rec,
		OriginalDocumentText: v.doc.Text,
		Analysis:             v.raw,
		UserInfo:             user,
	}
	v.mu.Unlock()
	v.changed()

	defer func() {
		v.mu.Lock()
		v.generating = ""
		v.mu.Unlock()
		v.changed()
	}()

	fields := map[string]any{
		"request_id":        middleware.RequestIDFrom(ctx),
		"document_id":       v.documentID,
		"recommendation_id": recID,
	}
	out, err := v.deps.Generator.GenerateLegalDocument(ctx, req)
	if err != nil {
		metrics.IncDocumentFailed()
		fields["error"] = err.Error()
		telemetry.Error("generate.failed", fields)
		v.notify(NoticeError, MsgGenerateFailed)
		return backend.GeneratedDocument{}, err
	}

	out.FileName = GeneratedFileName(out.FileName)
	if !download.Text(d, out.FileName, out.Text) {
		v.notify(NoticeError, MsgDownloadFailed)
		return out, fmt.Errorf("deliver %s: %w", out.FileName, download.ErrUnavailable)
	}
	metrics.IncDocumentGenerated()
	fields["file_name"] = out.FileName
	telemetry.Info("generate.completed", fields)
	v.notify(NoticeSuccess, MsgGenerated)
	return out, nil
}

// GeneratedFileName returns name, or DefaultGeneratedName when it is empty,
// with a .txt extension added when none is present.
func GeneratedFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultGeneratedName
	}
	if path.Ext(name) == "" {
		name += ".txt"
	}
	return name
}

// Export formats.
const (
	FormatJSON = "json"
	FormatText = "txt"
)

// ExportAnalysis hands the current analysis to d, either as the original JSON
// payload or as a plain text report.
func (v *View) ExportAnalysis(format string, d download.Downloader) error {
	v.mu.Lock()
	if v.rendered == nil {
		v.mu.Unlock()
		return ErrNoAnalysis
	}
	raw := v.raw
	rendered := *v.rendered
	title := v.doc.Name
	v.mu.Unlock()

	base := exportBase(title, v.documentID)
	var ok bool
	switch format {
	case FormatText:
		ok = download.Text(d, base+".txt", analysis.Report(title, rendered))
	default:
		payload, err := analysis.Decode(raw)
		if err != nil || payload == nil {
			ok = download.JSON(d, base+".json", rendered)
		} else {
			ok = download.JSON(d, base+".json", payload)
		}
	}
	if !ok {
		return download.ErrUnavailable
	}
	return nil
}

func exportBase(name, id string) string {
	base := strings.TrimSuffix(strings.TrimSpace(name), path.Ext(name))
	if base == "" {
		base = id
	}
	return "analysis-" + base
}

package detail

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"docassist-web/internal/backend"
	"docassist-web/internal/progress"
)

type fakeDocs struct {
	mu    sync.Mutex
	doc   backend.Document
	err   error
	calls int
	// gate, when set, blocks GetDocument until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeDocs) GetDocument(ctx context.Context, id string) (backend.Document, error) {
	f.mu.Lock()
	f.calls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return backend.Document{}, f.err
	}
	doc := f.doc
	doc.ID = id
	return doc, nil
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	raw     string
	err     error
	reqs    []backend.AnalysisRequest
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAnalyzer) AdvancedAnalysis(ctx context.Context, in backend.AnalysisRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, in)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

func (f *fakeAnalyzer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeGenerator struct {
	mu      sync.Mutex
	out     backend.GeneratedDocument
	err     error
	reqs    []backend.GenerateRequest
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeGenerator) GenerateLegalDocument(ctx context.Context, in backend.GenerateRequest) (backend.GeneratedDocument, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, in)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return f.out, f.err
}

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Chat(ctx context.Context, in backend.ChatRequest) (string, error) {
	return f.reply, f.err
}

type recordingDownloader struct {
	unavailable bool
	names       []string
	bodies      [][]byte
	types       []string
}

func (d *recordingDownloader) Available() bool { return !d.unavailable }

func (d *recordingDownloader) Blob(name string, data []byte, contentType string) bool {
	if d.unavailable {
		return false
	}
	d.names = append(d.names, name)
	d.bodies = append(d.bodies, data)
	d.types = append(d.types, contentType)
	return true
}

func (d *recordingDownloader) URL(name, rawURL string) bool { return false }

var errBackend = errors.New("backend down")

const samplePayload = `{
  "expertOpinion": {"overallAssessment": "Договор содержит существенные недостатки", "criticalPoints": ["Нет подписи"]},
  "legalErrors": ["Missing signature", {"error": "X", "severity": "high"}],
  "risks": [{"risk": "Late filing", "probability": "high"}, ""],
  "recommendations": [
    {"title": "Подготовить жалобу в суд", "priority": "high"},
    {"title": "Проверить реквизиты", "priority": "low"},
    {"title": "Сведения", "category": "информирование"}
  ]
}`

type testEnv struct {
	docs  *fakeDocs
	an    *fakeAnalyzer
	gen   *fakeGenerator
	chat  *fakeChat
	clock *progress.ManualClock
}

func newTestEnv() *testEnv {
	return &testEnv{
		docs:  &fakeDocs{doc: backend.Document{Name: "contract.pdf", Text: "Текст договора", DocumentType: "contract"}},
		an:    &fakeAnalyzer{raw: samplePayload},
		gen:   &fakeGenerator{out: backend.GeneratedDocument{Text: "Жалоба", FileName: "complaint.txt"}},
		chat:  &fakeChat{reply: "ответ"},
		clock: progress.NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func (e *testEnv) deps() Deps {
	return Deps{Documents: e.docs, Analyzer: e.an, Generator: e.gen, Chat: e.chat}
}

func (e *testEnv) newView(t *testing.T, opts ...Option) *View {
	t.Helper()
	opts = append([]Option{WithClock(e.clock), WithStageDelay(0)}, opts...)
	v := New("u1", "d1", e.deps(), opts...)
	t.Cleanup(v.Close)
	return v
}

func hasNotice(notices []Notice, level NoticeLevel, text string) bool {
	for _, n := range notices {
		if n.Level == level && n.Text == text {
			return true
		}
	}
	return false
}

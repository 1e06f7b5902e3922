// Package detail orchestrates the document detail page: loading and running
// the analysis, the chat panel and legal document generation.
package detail

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"docassist-web/internal/analysis"
	"docassist-web/internal/backend"
	"docassist-web/internal/chat"
	"docassist-web/internal/progress"
	"docassist-web/internal/shared/generation"
)

var (
	ErrEmptyText             = errors.New("document has no text to analyze")
	ErrAnalysisRunning       = errors.New("analysis already running")
	ErrNoAnalysis            = errors.New("no analysis available")
	ErrUnknownRecommendation = errors.New("unknown recommendation")
	ErrGenerating            = errors.New("document generation in progress")
	ErrClosed                = errors.New("view closed")
	ErrStaleResponse         = errors.New("response superseded")
)

// DefaultStageDelay is how long the generating_report stage stays on screen
// before the run reports completion.
const DefaultStageDelay = 400 * time.Millisecond

// Phase is the derived state of the analysis section.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
)

// Analyzer runs the advanced analysis of a document text.
type Analyzer interface {
	AdvancedAnalysis(ctx context.Context, in backend.AnalysisRequest) (json.RawMessage, error)
}

// Generator drafts legal documents for a recommendation.
type Generator interface {
	GenerateLegalDocument(ctx context.Context, in backend.GenerateRequest) (backend.GeneratedDocument, error)
}

// Invalidator drops cached copies of a document.
type Invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// Deps are the collaborators of a View.
type Deps struct {
	Documents backend.Documents
	Analyzer  Analyzer
	Generator Generator
	Chat      chat.Sender
	ChatRepo  chat.Repo
	// Cache is optional; it is invalidated after a fresh analysis.
	Cache Invalidator
}

// Event names passed to change listeners.
const (
	EventState    = "state"
	EventProgress = "progress"
)

// View is the state of one user's detail page for one document. All methods
// are safe for concurrent use; network calls run without holding the lock.
type View struct {
	userID     string
	documentID string
	deps       Deps

	clock      progress.Clock
	stageDelay time.Duration
	tick       time.Duration
	onChange   func(event string, data any)

	tracker *progress.Tracker
	chat    *chat.Session
	notices noticeBoard

	// analysisGen is shared by Mount and RunAnalysis; a response is applied
	// only while its token is current.
	analysisGen generation.Counter

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	doc        backend.Document
	mounted    bool
	raw        json.RawMessage
	rendered   *analysis.View
	running    bool
	generating string
	closed     bool
}

// Option configures a View.
type Option func(*View)

// WithClock replaces the wall clock for progress timers and stage delays.
func WithClock(c progress.Clock) Option {
	return func(v *View) { v.clock = c }
}

// WithStageDelay overrides DefaultStageDelay. Zero disables the pause.
func WithStageDelay(d time.Duration) Option {
	return func(v *View) { v.stageDelay = d }
}

// WithAnimation animates the progress bar every interval. Without it the
// displayed percentage only moves through explicit ticks.
func WithAnimation(interval time.Duration) Option {
	return func(v *View) { v.tick = interval }
}

// WithOnChange registers a listener for state and progress changes.
func WithOnChange(fn func(event string, data any)) Option {
	return func(v *View) { v.onChange = fn }
}

// New creates an idle view. Call Mount to load the persisted analysis.
func New(userID, documentID string, deps Deps, opts ...Option) *View {
	v := &View{
		userID:     userID,
		documentID: documentID,
		deps:       deps,
		clock:      progress.RealClock(),
		stageDelay: DefaultStageDelay,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.ctx, v.cancel = context.WithCancel(context.Background())

	v.tracker = progress.NewTracker(
		progress.WithClock(v.clock),
		progress.WithOnComplete(v.completeRun),
	)
	v.tracker.Subscribe(func(s progress.Snapshot) { v.emit(EventProgress, s) })

	chatOpts := []chat.Option{chat.WithOnChange(func() { v.changed() })}
	if deps.ChatRepo != nil {
		chatOpts = append(chatOpts, chat.WithRepo(deps.ChatRepo))
	}
	v.chat = chat.NewSession(userID, documentID, deps.Chat, chatOpts...)

	if v.tick > 0 {
		go v.tracker.Animate(v.ctx, v.tick)
	}
	return v
}

// UserID returns the owner of the view.
func (v *View) UserID() string { return v.userID }

// DocumentID returns the document shown by the view.
func (v *View) DocumentID() string { return v.documentID }

// Tracker exposes the progress indicator.
func (v *View) Tracker() *progress.Tracker { return v.tracker }

// Chat exposes the chat session.
func (v *View) Chat() *chat.Session { return v.chat }

// Phase derives the analysis phase: a visible progress indicator means a run
// is in progress, a stored analysis means complete.
func (v *View) Phase() Phase {
	if v.tracker.Snapshot().Visible {
		return PhaseRunning
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rendered != nil {
		return PhaseComplete
	}
	return PhaseIdle
}

// Analysis returns the rendered analysis, if any.
func (v *View) Analysis() (analysis.View, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rendered == nil {
		return analysis.View{}, false
	}
	return *v.rendered, true
}

// RawAnalysis returns the analysis payload as received.
func (v *View) RawAnalysis() json.RawMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.raw
}

// Document returns the loaded document metadata.
func (v *View) Document() backend.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc
}

// SetSourceText replaces the text used for analysis, e.g. after an upload.
func (v *View) SetSourceText(name, text string) {
	v.mu.Lock()
	v.doc.Text = text
	if v.doc.Name == "" {
		v.doc.Name = name
	}
	v.mu.Unlock()
	v.changed()
}

// Notices returns the notices newer than afterID.
func (v *View) Notices(afterID int64) []Notice {
	return v.notices.since(afterID)
}

// Close stops timers, cancels background work and discards late responses.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.analysisGen.Invalidate()
	v.cancel()
	v.tracker.Close()
}

func (v *View) notify(level NoticeLevel, text string) {
	v.notices.add(level, text, v.clock.Now().UTC())
	v.changed()
}

func (v *View) changed() {
	if v.onChange == nil {
		return
	}
	v.onChange(EventState, nil)
}

func (v *View) emit(event string, data any) {
	if v.onChange != nil {
		v.onChange(event, data)
	}
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

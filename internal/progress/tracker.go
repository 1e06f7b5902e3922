package progress

import (
	"context"
	"sync"
	"time"
)

// DefaultCompleteDelay is the pause between the target reaching 100 and the
// completion callback.
const DefaultCompleteDelay = 500 * time.Millisecond

// Props are the externally supplied inputs of a Tracker.
type Props struct {
	Visible bool
	Target  int
	Stage   Stage
}

// LogEntry records one stage change.
type LogEntry struct {
	Stage Stage  `json:"stage"`
	Icon  string `json:"icon"`
	Name  string `json:"name"`
	Time  string `json:"time"`
}

// Snapshot is a copy of the tracker state, safe to hand to other goroutines.
type Snapshot struct {
	Visible bool       `json:"visible"`
	Percent int        `json:"percent"`
	Target  int        `json:"target"`
	Stage   StageInfo  `json:"stage"`
	Log     []LogEntry `json:"log"`
	Steps   []Step     `json:"steps"`
}

// Tracker animates a displayed percentage toward a target and keeps a log of
// stage changes. All methods are safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	clock         Clock
	completeDelay time.Duration
	onComplete    func()

	props     Props
	displayed int
	lastStage Stage
	log       []LogEntry

	// completion is the pending callback timer; armed is true while the
	// current target of 100 has already scheduled (or fired) it.
	completion Timer
	armed      bool
	timerSeq   uint64

	listeners map[int]func(Snapshot)
	nextID    int
	closed    bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithCompleteDelay overrides DefaultCompleteDelay.
func WithCompleteDelay(d time.Duration) Option {
	return func(t *Tracker) { t.completeDelay = d }
}

// WithOnComplete sets the completion callback.
func WithOnComplete(fn func()) Option {
	return func(t *Tracker) { t.onComplete = fn }
}

// NewTracker returns a hidden tracker at 0%.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		clock:         RealClock(),
		completeDelay: DefaultCompleteDelay,
		listeners:     map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetOnComplete replaces the completion callback.
func (t *Tracker) SetOnComplete(fn func()) {
	t.mu.Lock()
	t.onComplete = fn
	t.mu.Unlock()
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// Update applies new props. Hiding resets the displayed percentage and the
// log. A stage different from the last one seen appends a log entry. A target
// transition to 100 schedules the completion callback once.
func (t *Tracker) Update(p Props) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	p.Target = clamp(p.Target)
	t.props = p

	if !p.Visible {
		t.displayed = 0
		t.log = nil
		t.lastStage = ""
		t.cancelCompletionLocked()
		t.armed = false
		t.publishLocked()
		return
	}

	if p.Stage != t.lastStage {
		info := Lookup(p.Stage)
		t.log = append(t.log, LogEntry{
			Stage: p.Stage,
			Icon:  info.Icon,
			Name:  info.Name,
			Time:  t.clock.Now().Format("15:04:05"),
		})
		t.lastStage = p.Stage
	}
	if t.displayed > p.Target {
		t.displayed = p.Target
	}

	switch {
	case p.Target == 100 && !t.armed:
		t.armed = true
		t.scheduleCompletionLocked()
	case p.Target != 100:
		t.cancelCompletionLocked()
		t.armed = false
	}
	t.publishLocked()
}

// Tick advances the displayed percentage by one step toward the target and
// reports whether it moved.
func (t *Tracker) Tick() bool {
	t.mu.Lock()
	if t.closed || !t.props.Visible || t.displayed == t.props.Target {
		t.mu.Unlock()
		return false
	}
	if t.displayed < t.props.Target {
		t.displayed++
	} else {
		t.displayed = t.props.Target
	}
	t.publishLocked()
	return true
}

// Animate calls Tick every interval until ctx is done or the tracker closes.
func (t *Tracker) Animate(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.isClosed() {
				return
			}
			t.Tick()
		}
	}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Steps returns the step tracker for the current stage.
func (t *Tracker) Steps() []Step {
	t.mu.Lock()
	stage := t.props.Stage
	t.mu.Unlock()
	return StepsFor(stage)
}

// Close stops pending timers and drops listeners.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.cancelCompletionLocked()
	t.listeners = map[int]func(Snapshot){}
}

func (t *Tracker) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tracker) scheduleCompletionLocked() {
	t.timerSeq++
	seq := t.timerSeq
	t.completion = t.clock.AfterFunc(t.completeDelay, func() {
		t.mu.Lock()
		if t.closed || seq != t.timerSeq || t.completion == nil {
			t.mu.Unlock()
			return
		}
		t.completion = nil
		fn := t.onComplete
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

func (t *Tracker) cancelCompletionLocked() {
	if t.completion != nil {
		t.completion.Stop()
		t.completion = nil
	}
	t.timerSeq++
}

// publishLocked snapshots under the lock, then releases it before calling
// listeners so they may call back into the tracker.
func (t *Tracker) publishLocked() {
	if len(t.listeners) == 0 {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	log := make([]LogEntry, len(t.log))
	copy(log, t.log)
	return Snapshot{
		Visible: t.props.Visible,
		Percent: t.displayed,
		Target:  t.props.Target,
		Stage:   Lookup(t.props.Stage),
		Log:     log,
		Steps:   StepsFor(t.props.Stage),
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

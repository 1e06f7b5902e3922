package progress

import (
	"context"
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 9, 15, 30, 0, time.UTC)

func newTestTracker(t *testing.T) (*Tracker, *ManualClock, *int) {
	t.Helper()
	clock := NewManualClock(epoch)
	calls := 0
	tr := NewTracker(WithClock(clock), WithOnComplete(func() { calls++ }))
	return tr, clock, &calls
}

func TestStepsForMarksByOrdinal(t *testing.T) {
	for _, current := range Stages() {
		steps := StepsFor(current.Stage)
		if len(steps) != 5 {
			t.Fatalf("expected 5 steps, got %d", len(steps))
		}
		for _, step := range steps {
			var want StepStatus
			switch {
			case step.Ordinal < current.Ordinal:
				want = StepCompleted
			case step.Ordinal == current.Ordinal:
				want = StepActive
			default:
				want = StepPending
			}
			if step.Status != want {
				t.Fatalf("current=%s step=%s: expected %s, got %s", current.Stage, step.Stage, want, step.Status)
			}
		}
	}
}

func TestLookupUnknownStage(t *testing.T) {
	info := Lookup("uploading")
	if info.Stage != StageProcessing || info.Ordinal != 0 || info.Name != "Обработка" {
		t.Fatalf("unexpected fallback %+v", info)
	}
	for _, step := range StepsFor("uploading") {
		if step.Status != StepPending {
			t.Fatalf("expected every step pending for unknown stage, got %+v", step)
		}
	}
}

func TestTickReachesHundredInExactlyHundredSteps(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 100, Stage: StageAnalyzing})

	ticks := 0
	for tr.Tick() {
		ticks++
		if p := tr.Snapshot().Percent; p > 100 {
			t.Fatalf("percent exceeded target: %d", p)
		}
	}
	if ticks != 100 {
		t.Fatalf("expected 100 ticks, got %d", ticks)
	}
	if tr.Snapshot().Percent != 100 {
		t.Fatalf("expected 100, got %d", tr.Snapshot().Percent)
	}
}

func TestTickNeverExceedsTarget(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 10, Stage: StagePreprocessing})
	for i := 0; i < 50; i++ {
		tr.Tick()
	}
	if got := tr.Snapshot().Percent; got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}

	tr.Update(Props{Visible: true, Target: 5, Stage: StagePreprocessing})
	if got := tr.Snapshot().Percent; got != 5 {
		t.Fatalf("expected lowered target to clamp display to 5, got %d", got)
	}
}

func TestTargetIsClamped(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 250, Stage: StageAnalyzing})
	if got := tr.Snapshot().Target; got != 100 {
		t.Fatalf("expected target clamped to 100, got %d", got)
	}
	tr.Update(Props{Visible: true, Target: -3, Stage: StageAnalyzing})
	if got := tr.Snapshot().Target; got != 0 {
		t.Fatalf("expected target clamped to 0, got %d", got)
	}
}

func TestCompletionFiresOnceForScriptedSequence(t *testing.T) {
	tr, clock, calls := newTestTracker(t)

	seq := []Props{
		{Visible: true, Target: 10, Stage: StagePreprocessing},
		{Visible: true, Target: 50, Stage: StageAnalyzing},
		{Visible: true, Target: 80, Stage: StageGeneratingReport},
	}
	for _, p := range seq {
		tr.Update(p)
		clock.Advance(time.Second)
		if *calls != 0 {
			t.Fatalf("completion fired early at target %d", p.Target)
		}
	}

	tr.Update(Props{Visible: true, Target: 100, Stage: StageComplete})
	tr.Update(Props{Visible: true, Target: 100, Stage: StageComplete})
	clock.Advance(DefaultCompleteDelay - time.Millisecond)
	if *calls != 0 {
		t.Fatal("completion fired before delay")
	}
	clock.Advance(time.Millisecond)
	if *calls != 1 {
		t.Fatalf("expected one completion, got %d", *calls)
	}
	clock.Advance(time.Minute)
	if *calls != 1 {
		t.Fatalf("expected completion to stay at one, got %d", *calls)
	}
}

func TestCompletionFiresAgainOnNewTransition(t *testing.T) {
	tr, clock, calls := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 100, Stage: StageComplete})
	clock.Advance(time.Second)
	tr.Update(Props{Visible: false})
	tr.Update(Props{Visible: true, Target: 10, Stage: StagePreprocessing})
	tr.Update(Props{Visible: true, Target: 100, Stage: StageComplete})
	clock.Advance(time.Second)
	if *calls != 2 {
		t.Fatalf("expected two completions, got %d", *calls)
	}
}

func TestLeavingHundredCancelsCompletion(t *testing.T) {
	tr, clock, calls := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 100, Stage: StageComplete})
	tr.Update(Props{Visible: true, Target: 0, Stage: StageStarting})
	clock.Advance(time.Second)
	if *calls != 0 {
		t.Fatalf("expected cancelled completion, got %d calls", *calls)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
}

func TestHidingResetsPercentAndLog(t *testing.T) {
	tr, clock, calls := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 50, Stage: StageAnalyzing})
	for i := 0; i < 50; i++ {
		tr.Tick()
	}
	if snap := tr.Snapshot(); snap.Percent != 50 || len(snap.Log) != 1 {
		t.Fatalf("unexpected state before hide: %+v", snap)
	}

	tr.Update(Props{Visible: false, Target: 50, Stage: StageAnalyzing})
	tr.Update(Props{Visible: true, Target: 50, Stage: StageAnalyzing})

	snap := tr.Snapshot()
	if snap.Percent != 0 {
		t.Fatalf("expected percent reset to 0, got %d", snap.Percent)
	}
	if len(snap.Log) != 1 {
		t.Fatalf("expected log restarted with one entry, got %d", len(snap.Log))
	}

	tr.Update(Props{Visible: false})
	if snap := tr.Snapshot(); snap.Percent != 0 || len(snap.Log) != 0 {
		t.Fatalf("expected empty state when hidden, got %+v", snap)
	}
	clock.Advance(time.Minute)
	if *calls != 0 {
		t.Fatalf("unexpected completion calls %d", *calls)
	}
}

func TestTickDoesNothingWhileHidden(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	tr.Update(Props{Visible: false, Target: 100})
	if tr.Tick() {
		t.Fatal("expected hidden tracker not to tick")
	}
}

func TestLogAppendsOnStageChange(t *testing.T) {
	tr, clock, _ := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 10, Stage: StagePreprocessing})
	tr.Update(Props{Visible: true, Target: 20, Stage: StagePreprocessing})
	clock.Advance(2 * time.Second)
	tr.Update(Props{Visible: true, Target: 50, Stage: StageAnalyzing})

	log := tr.Snapshot().Log
	if len(log) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(log))
	}
	if log[0].Stage != StagePreprocessing || log[0].Icon != "📄" || log[0].Time != "09:15:30" {
		t.Fatalf("unexpected first entry %+v", log[0])
	}
	if log[1].Name != "Анализ документа" || log[1].Time != "09:15:32" {
		t.Fatalf("unexpected second entry %+v", log[1])
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	var got []int
	cancel := tr.Subscribe(func(s Snapshot) { got = append(got, s.Percent) })

	tr.Update(Props{Visible: true, Target: 2, Stage: StageStarting})
	tr.Tick()
	tr.Tick()
	cancel()
	tr.Tick()

	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCloseStopsCompletion(t *testing.T) {
	tr, clock, calls := newTestTracker(t)
	tr.Update(Props{Visible: true, Target: 100, Stage: StageComplete})
	tr.Close()
	clock.Advance(time.Minute)
	if *calls != 0 {
		t.Fatalf("expected no completion after close, got %d", *calls)
	}
}

func TestAnimateAdvancesToTarget(t *testing.T) {
	tr := NewTracker()
	tr.Update(Props{Visible: true, Target: 5, Stage: StageAnalyzing})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go tr.Animate(ctx, time.Millisecond)

	for tr.Snapshot().Percent < 5 {
		select {
		case <-ctx.Done():
			t.Fatalf("animation did not reach target, percent=%d", tr.Snapshot().Percent)
		case <-time.After(time.Millisecond):
		}
	}
	tr.Close()
}

package chat

import "testing"

func TestComposerEnterSubmitsOnceAndClears(t *testing.T) {
	var sent []string
	c := NewComposer(func(text string) { sent = append(sent, text) }, nil)
	c.SetInput("Какие риски?")

	if !c.KeyDown(KeyEnter, false) {
		t.Fatal("expected Enter to submit")
	}
	if len(sent) != 1 || sent[0] != "Какие риски?" {
		t.Fatalf("expected exactly one send, got %v", sent)
	}
	if c.Input() != "" {
		t.Fatalf("expected input cleared, got %q", c.Input())
	}
	if c.KeyDown(KeyEnter, false) {
		t.Fatal("expected empty input not to submit")
	}
	if len(sent) != 1 {
		t.Fatalf("expected still one send, got %v", sent)
	}
}

func TestComposerShiftEnterDoesNotSend(t *testing.T) {
	var sent []string
	c := NewComposer(func(text string) { sent = append(sent, text) }, nil)
	c.SetInput("строка")

	if c.KeyDown(KeyEnter, true) {
		t.Fatal("expected Shift+Enter not to submit")
	}
	if len(sent) != 0 {
		t.Fatalf("expected no send, got %v", sent)
	}
	if c.Input() != "строка\n" {
		t.Fatalf("expected line break appended, got %q", c.Input())
	}
}

func TestComposerIgnoresOtherKeysAndDisabledState(t *testing.T) {
	busy := true
	var sent int
	c := NewComposer(func(string) { sent++ }, func() bool { return busy })
	c.SetInput("hi")

	if c.KeyDown("a", false) {
		t.Fatal("expected non-Enter key not to submit")
	}
	if c.KeyDown(KeyEnter, false) || c.Submit() {
		t.Fatal("expected disabled composer not to submit")
	}
	if c.Input() != "hi" {
		t.Fatal("expected input preserved while disabled")
	}
	busy = false
	if !c.Submit() || sent != 1 {
		t.Fatalf("expected explicit submit once enabled, sent=%d", sent)
	}
}

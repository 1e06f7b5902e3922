package generation

import "testing"

func TestCounterDiscardsSupersededTokens(t *testing.T) {
	var c Counter
	first := c.Next()
	if !c.Current(first) {
		t.Fatal("expected first token current")
	}
	second := c.Next()
	if c.Current(first) {
		t.Fatal("expected first token stale after Next")
	}
	if !c.Current(second) {
		t.Fatal("expected second token current")
	}
	c.Invalidate()
	if c.Current(second) {
		t.Fatal("expected second token stale after Invalidate")
	}
}

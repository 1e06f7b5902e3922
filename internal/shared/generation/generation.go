// Package generation tags asynchronous requests so late answers to
// superseded requests can be recognized and dropped.
package generation

import "sync/atomic"

// Token identifies one issued request.
type Token uint64

// Counter is a monotonically increasing request counter. The zero value is
// ready to use.
type Counter struct {
	n atomic.Uint64
}

// Next starts a new request and invalidates every earlier token.
func (c *Counter) Next() Token {
	return Token(c.n.Add(1))
}

// Current reports whether t is still the newest token.
func (c *Counter) Current(t Token) bool {
	return uint64(t) == c.n.Load()
}

// Invalidate advances the counter without starting a request.
func (c *Counter) Invalidate() {
	c.n.Add(1)
}

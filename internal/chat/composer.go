package chat

import (
	"strings"
	"sync"
)

// KeyEnter is the key name that submits the composer.
const KeyEnter = "Enter"

// Composer is the chat input box. It submits on Enter without Shift, and is
// disabled while Disabled reports true.
type Composer struct {
	mu       sync.Mutex
	input    string
	submit   func(text string)
	disabled func() bool
}

// NewComposer returns a Composer that hands submitted text to submit.
func NewComposer(submit func(text string), disabled func() bool) *Composer {
	return &Composer{submit: submit, disabled: disabled}
}

// SetInput replaces the current input.
func (c *Composer) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

// Input returns the current input.
func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// KeyDown handles a key press and reports whether a message was submitted.
// Shift+Enter inserts a line break.
func (c *Composer) KeyDown(key string, shift bool) bool {
	if key != KeyEnter {
		return false
	}
	if shift {
		c.mu.Lock()
		c.input += "\n"
		c.mu.Unlock()
		return false
	}
	return c.Submit()
}

// Submit sends the input when it is non-blank and the composer is enabled,
// then clears it.
func (c *Composer) Submit() bool {
	c.mu.Lock()
	text := strings.TrimSpace(c.input)
	if text == "" || (c.disabled != nil && c.disabled()) {
		c.mu.Unlock()
		return false
	}
	c.input = ""
	c.mu.Unlock()
	c.submit(text)
	return true
}

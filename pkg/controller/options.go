package controller

import (
	"strings"
)

// Option configures a Controller.
type Option func(*Controller)

// WithStore shares an existing result store with the controller. When omitted
// the controller creates its own.
func WithStore(store *Store) Option {
	return func(c *Controller) {
		if store != nil {
			c.store = store
		}
	}
}

// WithPreviewer replaces the data-URL preview reader.
func WithPreviewer(previewer Previewer) Option {
	return func(c *Controller) {
		if previewer != nil {
			c.previewer = previewer
		}
	}
}

// WithFallbackMessage overrides the message shown when a failed submission
// carries no server-provided message.
func WithFallbackMessage(message string) Option {
	return func(c *Controller) {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			c.fallback = trimmed
		}
	}
}

// WithMessageExtractor overrides how a server message is pulled out of a
// submission error.
func WithMessageExtractor(fn func(error) (string, bool)) Option {
	return func(c *Controller) {
		if fn != nil {
			c.extractMessage = fn
		}
	}
}

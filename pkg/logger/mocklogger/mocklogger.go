// Package mocklogger captures slog records so tests can assert on what a
// service logged.
package mocklogger

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is one captured record with its attributes flattened.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// MockHandler records every handled record.
type MockHandler struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
}

func NewMockHandler() *MockHandler {
	return &MockHandler{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

// Enabled implements slog.Handler.
func (h *MockHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *MockHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{Level: r.Level, Message: r.Message, Attrs: make(map[string]any)}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, e)
	return nil
}

// WithAttrs implements slog.Handler. Derived handlers share the capture.
func (h *MockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

// WithGroup implements slog.Handler. Groups are ignored.
func (h *MockHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Entries returns a copy of everything captured so far.
func (h *MockHandler) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), *h.entries...)
}

// Messages returns the captured messages in order.
func (h *MockHandler) Messages() []string {
	entries := h.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// NewMockLogger creates a logger backed by a fresh MockHandler.
func NewMockLogger() (*slog.Logger, *MockHandler) {
	handler := NewMockHandler()
	return slog.New(handler), handler
}

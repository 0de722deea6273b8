// Package diag collects the warnings and errors an export run
// produces, so callers get them back as data instead of scraping a
// log stream.
package diag

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is one recorded diagnostic.
type Entry struct {
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
}

func (e Entry) String() string {
	return e.Level.String() + ": " + e.Message
}

// Recorder is a slog.Handler that keeps every warning-or-worse
// record and passes all records through to the next handler
// unchanged. Handlers derived via WithAttrs/WithGroup share the same
// entry list.
type Recorder struct {
	next  slog.Handler
	attrs []slog.Attr

	mu      *sync.Mutex
	entries *[]Entry
}

// NewRecorder wraps next, which may be nil to only record.
func NewRecorder(next slog.Handler) *Recorder {
	return &Recorder{
		next:    next,
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

// Logger returns a logger writing through this recorder.
func (r *Recorder) Logger() *slog.Logger {
	return slog.New(r)
}

func (r *Recorder) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelWarn {
		return true
	}
	return r.next != nil && r.next.Enabled(ctx, level)
}

func (r *Recorder) Handle(ctx context.Context, rec slog.Record) error {
	if rec.Level >= slog.LevelWarn {
		msg := rec.Message
		for _, a := range r.attrs {
			msg += " " + a.String()
		}
		rec.Attrs(func(a slog.Attr) bool {
			msg += " " + a.String()
			return true
		})
		r.mu.Lock()
		*r.entries = append(*r.entries, Entry{Level: rec.Level, Message: msg})
		r.mu.Unlock()
	}
	if r.next != nil && r.next.Enabled(ctx, rec.Level) {
		return r.next.Handle(ctx, rec)
	}
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *r
	cp.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	if r.next != nil {
		cp.next = r.next.WithAttrs(attrs)
	}
	return &cp
}

func (r *Recorder) WithGroup(name string) slog.Handler {
	cp := *r
	if r.next != nil {
		cp.next = r.next.WithGroup(name)
	}
	return &cp
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry{}, *r.entries...)
}

// HasErrors reports whether any error-level entry was recorded.
func (r *Recorder) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range *r.entries {
		if e.Level >= slog.LevelError {
			return true
		}
	}
	return false
}

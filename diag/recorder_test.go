package diag

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_Collects(t *testing.T) {
	r := NewRecorder(nil)
	log := r.Logger()

	log.Info("not recorded")
	log.Warn("command ignored", "name", "G64")
	log.Error("retract below target", "r", -10.0)

	entries := r.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
	assert.Equal(t, "command ignored name=G64", entries[0].Message)
	assert.Equal(t, slog.LevelError, entries[1].Level)
	assert.True(t, r.HasErrors())
}

func TestRecorder_NoErrors(t *testing.T) {
	r := NewRecorder(nil)
	r.Logger().Warn("just a warning")
	assert.False(t, r.HasErrors())
	assert.Len(t, r.Entries(), 1)
}

func TestRecorder_PassThrough(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	log := NewRecorder(next).Logger()
	log.Info("forwarded only")
	log.Warn("forwarded and recorded")

	out := buf.String()
	assert.Contains(t, out, "forwarded only")
	assert.Contains(t, out, "forwarded and recorded")
}

func TestRecorder_WithAttrs(t *testing.T) {
	r := NewRecorder(nil)
	log := r.Logger().With("operation", "Drill01")

	log.Warn("cycle skipped")

	entries := r.Entries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "cycle skipped operation=Drill01", entries[0].Message)
}

func TestRecorder_EntriesCopy(t *testing.T) {
	r := NewRecorder(nil)
	r.Logger().Warn("one")

	entries := r.Entries()
	entries[0].Message = "mutated"
	assert.Equal(t, "one", r.Entries()[0].Message)
}

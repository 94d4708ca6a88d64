package ai

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/stealthai/internal/model"
)

func captureLogs(t testing.TB, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestDebugLogging_Toggle(t *testing.T) {
	t.Cleanup(func() { EnableDebugLogging(false) })

	for _, enabled := range []bool{true, false, true} {
		EnableDebugLogging(enabled)
		assert.Equal(t, enabled, IsDebugEnabled())
	}
}

func TestDebugLogging_ReplanDetails(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)
	t.Cleanup(func() { EnableDebugLogging(false) })

	EnableDebugLogging(false)
	a := newTestAgent(t, 1, newFakeDispatcher(), nil, fact(model.KeyIsAlert, true))
	a.Tick(1)
	assert.NotContains(t, buf.String(), "agent replanned")

	EnableDebugLogging(true)
	b := newTestAgent(t, 2, newFakeDispatcher(), nil, fact(model.KeyIsAlert, true))
	b.Tick(1)
	assert.Contains(t, buf.String(), "agent replanned")
	assert.Contains(t, buf.String(), "trace.new=patrol_area")
}

func BenchmarkAgentTick_Debug(b *testing.B) {
	for _, enabled := range []bool{false, true} {
		name := "disabled"
		if enabled {
			name = "enabled"
		}
		b.Run(name, func(b *testing.B) {
			prev := slog.Default()
			slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
			EnableDebugLogging(enabled)
			b.Cleanup(func() {
				slog.SetDefault(prev)
				EnableDebugLogging(false)
			})

			// Alternating alert keeps the agent replanning every tick.
			a := newTestAgent(b, 1, newFakeDispatcher(), nil)
			tick := uint64(0)
			for b.Loop() {
				tick++
				a.Deliver(fact(model.KeyIsAlert, tick%2 == 0))
				a.Tick(tick)
			}
		})
	}
}

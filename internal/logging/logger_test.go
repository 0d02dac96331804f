package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for value, want := range cases {
		t.Setenv("LOG_LEVEL", value)
		assert.Equal(t, want, Level(), "LOG_LEVEL=%q", value)
	}
}

type captureHandler struct {
	level   slog.Level
	records []slog.Record
	err     error
}

func (h *captureHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	h.records = append(h.records, record)
	return h.err
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandler(t *testing.T) {
	ctx := context.Background()
	record := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)

	t.Run("fans out only to enabled handlers", func(t *testing.T) {
		info := &captureHandler{level: slog.LevelInfo}
		errOnly := &captureHandler{level: slog.LevelError}
		m := NewMultiHandler(info, errOnly)

		warn := slog.NewRecord(time.Now(), slog.LevelWarn, "careful", 0)
		require.NoError(t, m.Handle(ctx, warn))
		assert.Len(t, info.records, 1)
		assert.Empty(t, errOnly.records)
	})

	t.Run("a failing handler does not starve the others", func(t *testing.T) {
		failing := &captureHandler{level: slog.LevelInfo, err: errors.New("sink down")}
		healthy := &captureHandler{level: slog.LevelInfo}
		m := NewMultiHandler(failing, healthy)

		err := m.Handle(ctx, record)
		require.Error(t, err)
		assert.Len(t, failing.records, 1)
		assert.Len(t, healthy.records, 1)
	})
}

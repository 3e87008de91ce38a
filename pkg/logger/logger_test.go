package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Options{Output: &buf, Level: level, Format: FormatJSON}), &buf
}

func TestLogger_WritesJSONWithFields(t *testing.T) {
	log, buf := newBufferLogger(LevelInfo)

	log.With(Component("reminders")).Info("reminder sent", StudentID("s1"), Int("days_left", 7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reminder sent", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "reminders", entry["component"])
	assert.Equal(t, "s1", entry["student_id"])
	assert.EqualValues(t, 7, entry["days_left"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	log, buf := newBufferLogger(LevelWarn)

	log.Info("hidden")
	log.Warn("shown", Err(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "boom")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestContext(t *testing.T) {
	log := Nop()
	ctx := WithContext(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

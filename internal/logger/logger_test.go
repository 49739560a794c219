package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, detailed bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, InitWithConfig(LogConfig{
		Level:           "DEBUG",
		Format:          "json",
		DetailedLogging: detailed,
		Output:          buf,
	}))
	return buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("Error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestDebugSuppressedWithoutDetailedLogging(t *testing.T) {
	buf := captureJSON(t, false)
	Debug(context.Background(), "hidden")
	Info(context.Background(), "shown", "symbol", "NIFTY")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
	assert.Equal(t, "NIFTY", recs[0]["symbol"])
}

func TestDetailedLoggingAddsSource(t *testing.T) {
	buf := captureJSON(t, true)
	Debug(context.Background(), "visible")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	src, ok := recs[0]["source"].(map[string]any)
	require.True(t, ok, "expected source group")
	assert.Contains(t, src["file"], "logger_test.go")
}

func TestErrorWithErr(t *testing.T) {
	buf := captureJSON(t, false)
	ErrorWithErr(context.Background(), "fetch failed", errors.New("boom"), "source", "nse")

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "ERROR", recs[0]["level"])
	assert.Equal(t, "boom", recs[0]["error"])
	assert.Equal(t, "nse", recs[0]["source"])
}

func TestPredictionAlwaysLogged(t *testing.T) {
	buf := captureJSON(t, false)
	Prediction(context.Background(), "NIFTY", "ok", "Up", "Bullish", 100, 200)

	recs := decodeLines(t, buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "PREDICTION", recs[0]["type"])
	assert.Equal(t, "Up", recs[0]["trend"])
	assert.EqualValues(t, 200, recs[0]["put_oi"])
}

func TestOperationTimerWithoutTracing(t *testing.T) {
	buf := captureJSON(t, true)
	op := StartOperation(context.Background(), "chain.fetch", "symbol", "NIFTY")
	op.End("rows", 10)

	recs := decodeLines(t, buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "Operation started", recs[0]["msg"])
	assert.Equal(t, "Operation completed", recs[1]["msg"])
	assert.EqualValues(t, 10, recs[1]["rows"])
}

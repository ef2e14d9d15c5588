package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false, &buf)
	logger.Info("wrote export file", zap.String("location", "cases-1.txt"), zap.Int("tokens", 12))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "wrote export file", entry["msg"])
	assert.Equal(t, "cases-1.txt", entry["location"])
	assert.EqualValues(t, 12, entry["tokens"])
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(true, &buf)
	logger.Debug("visible")
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "visible")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

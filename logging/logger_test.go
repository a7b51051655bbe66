package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/stateberry/config"
)

func TestTextLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, slog.LevelWarn)

	logger.Info("below threshold")
	assert.Empty(t, buf.String())

	logger.Warn("at threshold")
	assert.Contains(t, buf.String(), "at threshold")
}

func TestJSONLoggerEmitsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, slog.LevelInfo)

	kh := [32]byte{0xab, 0xcd}
	logger.WithComponent("statedb").WithVersion(42).WithKeyHash(kh).Info("batch applied",
		BatchNodes(3), BatchValues(7))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "batch applied", entry["msg"])
	assert.Equal(t, "statedb", entry["component"])
	assert.Equal(t, float64(42), entry["version"])
	assert.Equal(t, bytesToHex(kh[:]), entry["key_hash"])
	assert.Equal(t, float64(3), entry["batch_nodes"])
	assert.Equal(t, float64(7), entry["batch_values"])
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNopLogger()
	logger.Error("nobody hears this", Error(errors.New("boom")))
}

func TestFromConfigLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, closer, err := FromConfig(config.LoggingConfig{
			Level:  level,
			Format: "text",
			Output: "stderr",
		})
		require.NoError(t, err, level)
		require.NotNil(t, logger)
		assert.Nil(t, closer)
	}

	_, _, err := FromConfig(config.LoggingConfig{Level: "loud", Format: "text", Output: "stderr"})
	assert.Error(t, err)
}

func TestFromConfigFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.log")

	logger, closer, err := FromConfig(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: path,
	})
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger.Info("written to file", Backend("badgerdb"), Path("data/state"))
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestAttributeConstructors(t *testing.T) {
	kh := [32]byte{0xab, 0xcd}
	attr := KeyHash(kh)
	assert.Equal(t, "key_hash", attr.Key)
	assert.True(t, len(attr.Value.String()) == 64)
	assert.Contains(t, attr.Value.String(), "abcd")

	attr = NodeKey([]byte{0x01, 0xff})
	assert.Equal(t, "01ff", attr.Value.String())

	attr = Duration(1500 * time.Microsecond)
	assert.Equal(t, "duration_ms", attr.Key)
	assert.InDelta(t, 1.5, attr.Value.Float64(), 1e-9)

	assert.Equal(t, slog.Attr{}, Error(nil))
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}

func TestBytesToHex(t *testing.T) {
	assert.Equal(t, "", bytesToHex(nil))
	assert.Equal(t, "00ff10", bytesToHex([]byte{0x00, 0xff, 0x10}))
}

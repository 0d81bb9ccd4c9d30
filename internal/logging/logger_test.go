package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/samplestream/internal/config"
)

func TestNewLogger_FileOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")
	logger, err := NewLogger(config.LogConfig{
		Level:              "info",
		Format:             FormatNone,
		FileLoggingEnabled: true,
		Directory:          dir,
		Filename:           "test.log",
		MaxSize:            1,
	})
	require.NoError(t, err)

	logger.Named("pipeline").Info("hello")
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "exactly one JSON line expected")
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "pipeline", entry["logger"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestNewLogger_Errors(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "info", Format: FormatNone})
	assert.ErrorIs(t, err, ErrNoLogOutputs)

	_, err = NewLogger(config.LogConfig{Level: "info", Format: "xml"})
	assert.ErrorIs(t, err, ErrUnknownLogFormat)
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	level, err = parseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

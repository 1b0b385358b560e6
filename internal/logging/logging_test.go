package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	logger, err := New(Config{
		Level:      "debug",
		Format:     "json",
		OutputPath: path,
		Fields:     map[string]string{"service": "fatiguepinn"},
	})
	require.NoError(t, err)

	logger.Debug("model built")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"msg":"model built"`)
	assert.Contains(t, line, `"service":"fatiguepinn"`)
	assert.Contains(t, line, `"level":"debug"`)
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	logger, err := New(Config{Level: "loud", Format: "console", OutputPath: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hidden"))
	assert.True(t, strings.Contains(string(data), "shown"))
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))
	logger, err := New(Config{OutputPath: filepath.Join(t.TempDir(), "x.log")})
	require.NoError(t, err)
	assert.Same(t, logger, OrNop(logger))
}

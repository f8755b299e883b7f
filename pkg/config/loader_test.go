package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, DefaultContentType, cfg.DefaultContentType)
	assert.False(t, cfg.DebugMode)
	assert.NotNil(t, cfg.GlobalResponseHeaders)
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "host.yaml", `
serviceName: items
debugMode: true
globalResponseHeaders:
  X-Powered-By: directhost
logLevel: debug
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "items", cfg.ServiceName)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, "directhost", cfg.GlobalResponseHeaders["X-Powered-By"])
	assert.Equal(t, "debug", cfg.LogLevel)
	// untouched fields keep defaults
	assert.Equal(t, DefaultContentType, cfg.DefaultContentType)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "host.json", `{"serviceName":"orders","logFormat":"json"}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.ServiceName)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "empty.yaml", ""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LoadFile(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "bad.json", `{"serviceName":`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "bad.yaml", "serviceName: [unterminated"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DIRECTHOST_SERVICE_NAME", "from-env")
	t.Setenv("DIRECTHOST_DEBUG", "true")
	t.Setenv("DIRECTHOST_RESPONSE_HEADERS", "X-A:1,X-B:2")

	cfg := Default()
	cfg.LogLevel = "warn"
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "from-env", cfg.ServiceName)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, map[string]string{"X-A": "1", "X-B": "2"}, cfg.GlobalResponseHeaders)
	// unset variables leave values alone
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnvNil(t *testing.T) {
	assert.Error(t, ApplyEnv(nil))
}

func TestLoadLayers(t *testing.T) {
	path := writeFile(t, "host.yml", "serviceName: file\nlogLevel: debug\n")
	t.Setenv("DIRECTHOST_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.ServiceName)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.GlobalResponseHeaders["X-A"] = "1"

	clone := cfg.Clone()
	clone.GlobalResponseHeaders["X-A"] = "2"
	clone.ServiceName = "other"

	assert.Equal(t, "1", cfg.GlobalResponseHeaders["X-A"])
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Nil(t, (*HostConfig)(nil).Clone())
}

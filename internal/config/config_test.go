package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 10_000, cfg.RetentionMS)
	assert.False(t, cfg.Demo)
	assert.Equal(t, 10*time.Second, cfg.Retention())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
retention_ms: 5000
demo: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 5*time.Second, cfg.Retention())
	assert.True(t, cfg.Demo)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `retention_ms: 2500`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen, "absent fields keep defaults")
	assert.Equal(t, 2500, cfg.RetentionMS)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, `retension_ms: 2500`)
	_, err := Load(path)
	assert.Error(t, err, "typos must surface, not silently fall back to defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero retention", `retention_ms: 0`},
		{"negative retention", `retention_ms: -5`},
		{"empty listen", `listen: ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "software", cfg.Render.Driver)
	assert.Equal(t, "go", cfg.Render.Decoder)
	assert.Equal(t, "nearest", cfg.Render.Filter)
	assert.Equal(t, "xrgb32", cfg.Render.DRMFormat)
	assert.Empty(t, cfg.Render.VertexShader)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: 127.0.0.1:9000
  request_timeout: 5s
log:
  level: debug
  format: json
render:
  driver: kmsdrm
  drm_card: 1
  drm_format: rgb16
  filter: linear
  vertex_shader: /etc/bitmap/vertex.glsl
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "kmsdrm", cfg.Render.Driver)
	assert.Equal(t, 1, cfg.Render.DRMCard)
	assert.Equal(t, "rgb16", cfg.Render.DRMFormat)
	assert.Equal(t, "linear", cfg.Render.Filter)
	assert.Equal(t, "/etc/bitmap/vertex.glsl", cfg.Render.VertexShader)
	assert.Equal(t, "go", cfg.Render.Decoder, "unset keys keep defaults")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BITMAP_RENDER_DRIVER", "sdl")
	t.Setenv("BITMAP_SERVER_LISTEN", ":7000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sdl", cfg.Render.Driver)
	assert.Equal(t, ":7000", cfg.Server.Listen)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	for _, content := range []string{
		"render:\n  driver: vulkan\n",
		"render:\n  decoder: ffmpeg\n",
		"render:\n  filter: lanczos\n",
		"render:\n  drm_format: argb\n",
		"server:\n  request_timeout: 0s\n",
	} {
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err, content)
	}
}

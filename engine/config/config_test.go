package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/engine/session"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, WorkerSimple, cfg.Worker)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
	assert.Equal(t, 1, cfg.Capture.Frames)
	assert.False(t, cfg.Headless())

	format, err := cfg.CaptureFormat()
	require.NoError(t, err)
	assert.Equal(t, session.ImageFormatPNG, format)
	mode, err := cfg.PresentMode()
	require.NoError(t, err)
	assert.Equal(t, wgpu.PresentModeFifo, mode)
}

func TestParse_ExpandsAndRetypesPlaceholders(t *testing.T) {
	t.Setenv("OXY_TEST_WIDTH", "1024")
	t.Setenv("OXY_TEST_TITLE", "demo")

	cfg, err := Parse([]byte(`
worker: render_to_texture
window:
  title: "${OXY_TEST_TITLE:untitled} window"
  width: "${OXY_TEST_WIDTH:640}"
  height: "${OXY_TEST_MISSING_HEIGHT:480}"
capture:
  path: out/frame
  format: jpg
  frames: 3
renderer:
  present_mode: mailbox
  force_fallback_adapter: "${OXY_TEST_MISSING_FALLBACK:true}"
`))
	require.NoError(t, err)

	assert.Equal(t, "demo window", cfg.Window.Title)
	assert.Equal(t, uint32(1024), cfg.Window.Width)
	assert.Equal(t, uint32(480), cfg.Window.Height)
	assert.True(t, cfg.Renderer.ForceFallbackAdapter)
	assert.True(t, cfg.Headless())
	assert.Equal(t, 3, cfg.Capture.Frames)

	format, err := cfg.CaptureFormat()
	require.NoError(t, err)
	assert.Equal(t, session.ImageFormatJPEG, format)
	mode, err := cfg.PresentMode()
	require.NoError(t, err)
	assert.Equal(t, wgpu.PresentModeMailbox, mode)
}

func TestExpand(t *testing.T) {
	t.Setenv("OXY_TEST_NAME", "oxy")
	envy.Reload()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "${OXY_TEST_NAME:x}", want: "oxy"},
		{in: "/data/${OXY_TEST_UNSET:tmp}/out", want: "/data/tmp/out"},
		{in: "${OXY_TEST_NAME}-${OXY_TEST_UNSET:b}", want: "oxy-b"},
		{in: `\${OXY_TEST_NAME:x}`, want: "${OXY_TEST_NAME:x}"},
		{in: `a\\${OXY_TEST_NAME:x}`, want: `a\oxy`},
		{in: "${unterminated", want: "${unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expand(tt.in))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "unknown worker", doc: "worker: fancy", want: `unknown worker "fancy"`},
		{name: "unknown field", doc: "worker: simple\nwindoww:\n  width: 3\n", want: "windoww"},
		{name: "wrong type", doc: "window:\n  title: x\n  width: wide\n", want: "> "},
		{name: "present mode", doc: "renderer:\n  present_mode: vsync\n", want: "unknown present mode"},
		{name: "format", doc: "capture:\n  format: gif\n", want: "unsupported image format"},
		{name: "log level", doc: "logger:\n  level: loud\n", want: "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "OXY_TEST_ENV_FRAMES=7\n")
	path := writeFile(t, dir, "engine.yaml", "capture:\n  path: shot\n  frames: ${OXY_TEST_ENV_FRAMES:1}\n")
	t.Cleanup(func() { os.Unsetenv("OXY_TEST_ENV_FRAMES") })

	cfg, err := Load(path, filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Capture.Frames)

	_, err = Load(filepath.Join(dir, "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigureLogger(t *testing.T) {
	prevLevel, prevFormatter, prevOut := log.GetLevel(), log.StandardLogger().Formatter, log.StandardLogger().Out
	t.Cleanup(func() {
		log.SetLevel(prevLevel)
		log.SetFormatter(prevFormatter)
		log.SetOutput(prevOut)
	})

	file := filepath.Join(t.TempDir(), "logs", "engine.log")
	closeLog, err := ConfigureLogger(Logger{Level: "debug", Format: "json", File: file})
	require.NoError(t, err)

	log.WithField("frame", 3).Debug("present frame")
	require.NoError(t, closeLog())

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "present frame", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, float64(3), entry["frame"])

	_, err = ConfigureLogger(Logger{Level: "loud"})
	assert.Error(t, err)
	_, err = ConfigureLogger(Logger{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

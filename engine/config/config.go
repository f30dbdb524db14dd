// Package config loads the YAML configuration of an engine run. String values may reference environment variables
// as ${NAME:default}; variables are read from the process environment after loading the given .env files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-core/engine/session"
)

// Worker kinds selectable with the worker key.
const (
	WorkerSimple          = "simple"
	WorkerRenderToTexture = "render_to_texture"
	WorkerCompute         = "compute"
	WorkerModel           = "model"
)

// Config is the configuration of an engine run.
type Config struct {
	Logger   Logger   `yaml:"logger"`
	Worker   string   `yaml:"worker"`
	Window   Window   `yaml:"window"`
	Capture  Capture  `yaml:"capture"`
	Renderer Renderer `yaml:"renderer"`
}

// Logger configures logrus.
type Logger struct {
	// Level is a logrus level name. Defaults to info.
	Level string `yaml:"level"`
	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`
	// File, when set, receives a copy of the log output.
	File string `yaml:"file"`
}

// Window configures the window of a windowed run.
type Window struct {
	Title  string `yaml:"title"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

// Capture configures a headless run. A run is headless when Path is set.
type Capture struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
	Frames int    `yaml:"frames"`
}

// Renderer configures the device and the frame loop.
type Renderer struct {
	// PresentMode is one of fifo, fifo_relaxed, mailbox or immediate. Defaults to fifo.
	PresentMode          string  `yaml:"present_mode"`
	ForceFallbackAdapter bool    `yaml:"force_fallback_adapter"`
	FrameLimit           float64 `yaml:"frame_limit"`
	Profile              bool    `yaml:"profile"`
}

// Load reads the configuration at path.
//
// The .env files are loaded first; a missing file is skipped and variables already set in the environment win.
// ${NAME:default} placeholders in string values are then replaced by the variable or the default, and a
// replaced value is re-typed so "${PORT:80}" decodes into an integer field. \${ keeps a literal ${.
//
// Parameters:
//   - path: the YAML file
//   - envFiles: .env files to load into the environment
//
// Returns:
//   - *Config: the configuration with defaults applied
//   - error: error if a file could not be read, the YAML is invalid or a value is out of range
func Load(path string, envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.WithField("file", file).Debug("skip missing env file")
				continue
			}
			return nil, fmt.Errorf("failed to load env file %q: %w", file, err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse parses configuration YAML. See Load for the placeholder syntax.
//
// Parameters:
//   - raw: the YAML document
//
// Returns:
//   - *Config: the configuration with defaults applied
//   - error: error if the YAML is invalid or a value is out of range
func Parse(raw []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, withContext(err, raw)
	}

	cfg := &Config{}
	if root.Kind != 0 {
		// envy snapshots the environment; pick up variables set since, including the loaded .env files.
		envy.Reload()
		expandNode(&root)
		processed, err := yaml.Marshal(&root)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode config: %w", err)
		}
		if envy.Get("DEBUG_CONFIG", "") == "1" {
			log.WithField("config", string(processed)).Debug("processed config")
		}

		dec := yaml.NewDecoder(bytes.NewReader(processed))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, withContext(err, processed)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.Worker == "" {
		c.Worker = WorkerSimple
	}
	if c.Window.Title == "" {
		c.Window.Title = "oxy-core"
	}
	if c.Window.Width == 0 {
		c.Window.Width = 800
	}
	if c.Window.Height == 0 {
		c.Window.Height = 600
	}
	if c.Capture.Format == "" {
		c.Capture.Format = session.ImageFormatPNG.String()
	}
	if c.Capture.Frames == 0 {
		c.Capture.Frames = 1
	}
	if c.Renderer.PresentMode == "" {
		c.Renderer.PresentMode = "fifo"
	}
}

func (c *Config) validate() error {
	switch c.Worker {
	case WorkerSimple, WorkerRenderToTexture, WorkerCompute, WorkerModel:
	default:
		return fmt.Errorf("unknown worker %q", c.Worker)
	}
	if c.Capture.Frames < 0 {
		return fmt.Errorf("capture frames must not be negative, got %d", c.Capture.Frames)
	}
	if _, err := c.CaptureFormat(); err != nil {
		return err
	}
	if _, err := c.PresentMode(); err != nil {
		return err
	}
	if c.Logger.Format != "text" && c.Logger.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Logger.Format)
	}
	if _, err := log.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Headless reports whether the run captures frames instead of opening a window.
func (c *Config) Headless() bool {
	return c.Capture.Path != ""
}

// CaptureFormat parses the capture image format.
func (c *Config) CaptureFormat() (session.ImageFormat, error) {
	return session.ParseImageFormat(c.Capture.Format)
}

// PresentMode parses the surface present mode.
//
// Returns:
//   - wgpu.PresentMode: the present mode
//   - error: error if the name is unknown
func (c *Config) PresentMode() (wgpu.PresentMode, error) {
	switch strings.ToLower(c.Renderer.PresentMode) {
	case "", "fifo":
		return wgpu.PresentModeFifo, nil
	case "fifo_relaxed":
		return wgpu.PresentModeFifoRelaxed, nil
	case "mailbox":
		return wgpu.PresentModeMailbox, nil
	case "immediate":
		return wgpu.PresentModeImmediate, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", c.Renderer.PresentMode)
	}
}

// expandNode replaces placeholders in every string scalar below n. A changed value loses its tag and style so the
// decoder resolves its type again.
func expandNode(n *yaml.Node) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" {
			return
		}
		expanded := expand(n.Value)
		if expanded == n.Value {
			return
		}
		n.Value = expanded
		n.Tag = ""
		n.Style = 0
	case yaml.DocumentNode, yaml.SequenceNode, yaml.MappingNode:
		for _, child := range n.Content {
			expandNode(child)
		}
	}
}

// expand substitutes ${NAME:default} and ${NAME} placeholders. A backslash before ${ escapes it, and a doubled
// backslash is a literal backslash followed by a placeholder.
func expand(value string) string {
	parts := strings.Split(value, "${")
	var acc strings.Builder
	acc.WriteString(parts[0])

	for _, part := range parts[1:] {
		prefix := acc.String()
		switch {
		case strings.HasSuffix(prefix, `\\`):
			acc.Reset()
			acc.WriteString(prefix[:len(prefix)-1])
		case strings.HasSuffix(prefix, `\`):
			acc.Reset()
			acc.WriteString(prefix[:len(prefix)-1])
			acc.WriteString("${")
			acc.WriteString(part)
			continue
		}

		name, tail, ok := strings.Cut(part, "}")
		if !ok {
			acc.WriteString("${")
			acc.WriteString(part)
			continue
		}
		name, def, _ := strings.Cut(name, ":")
		acc.WriteString(envy.Get(name, def))
		acc.WriteString(tail)
	}
	return acc.String()
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// withContext appends the offending line of doc, with one line before and after, to a YAML error.
func withContext(err error, doc []byte) error {
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("invalid config: %w (set DEBUG_CONFIG=1 to log the processed config)", err)
	}
	line, _ := strconv.Atoi(m[1])
	lines := strings.Split(string(doc), "\n")

	var b strings.Builder
	for i := max(line-2, 0); i < min(line+1, len(lines)); i++ {
		marker := "  "
		if i+1 == line {
			marker = "> "
		}
		fmt.Fprintf(&b, "\n%s%3d: %s", marker, i+1, lines[i])
	}
	return fmt.Errorf("invalid config: %w%s", err, b.String())
}

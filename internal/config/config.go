// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Editor() EditorConfig
	Layout() LayoutConfig
	Placement() PlacementConfig
	Gesture() GestureConfig

	// Placement Setters
	SetPlacementHorizontalDistance(bool)

	// Layout Setters
	SetLayoutViewport(width, height float64)
	SetLayoutStylesheets(paths []string)

	// Gesture Setters
	SetGestureEventsPerSecond(float64)
}

// Config holds the entire application configuration.
// The exported fields are populated by viper; callers read through the Interface getters.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	EditorCfg    EditorConfig    `mapstructure:"editor" yaml:"editor"`
	LayoutCfg    LayoutConfig    `mapstructure:"layout" yaml:"layout"`
	PlacementCfg PlacementConfig `mapstructure:"placement" yaml:"placement"`
	GestureCfg   GestureConfig   `mapstructure:"gesture" yaml:"gesture"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Editor() EditorConfig       { return c.EditorCfg }
func (c *Config) Layout() LayoutConfig       { return c.LayoutCfg }
func (c *Config) Placement() PlacementConfig { return c.PlacementCfg }
func (c *Config) Gesture() GestureConfig     { return c.GestureCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetPlacementHorizontalDistance(b bool) { c.PlacementCfg.HorizontalDistance = b }

func (c *Config) SetLayoutViewport(width, height float64) {
	c.LayoutCfg.ViewportWidth = width
	c.LayoutCfg.ViewportHeight = height
}
func (c *Config) SetLayoutStylesheets(paths []string) { c.LayoutCfg.Stylesheets = paths }

func (c *Config) SetGestureEventsPerSecond(r float64) { c.GestureCfg.EventsPerSecond = r }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EditorConfig names the classes the editor uses to recognize its roots and
// to mark transient previews.
type EditorConfig struct {
	CanvasClass    string `mapstructure:"canvas_class" yaml:"canvas_class"`
	SidebarClass   string `mapstructure:"sidebar_class" yaml:"sidebar_class"`
	ComponentClass string `mapstructure:"component_class" yaml:"component_class"`
	PreviewClass   string `mapstructure:"preview_class" yaml:"preview_class"`
}

// LayoutConfig tunes the in-process geometry engine.
type LayoutConfig struct {
	ViewportWidth  float64  `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight float64  `mapstructure:"viewport_height" yaml:"viewport_height"`
	Stylesheets    []string `mapstructure:"stylesheets" yaml:"stylesheets"`
}

// ResolvedStylesheets returns the stylesheet paths with "~" expanded.
func (l LayoutConfig) ResolvedStylesheets() ([]string, error) {
	paths := make([]string, 0, len(l.Stylesheets))
	for _, p := range l.Stylesheets {
		expanded, err := homedir.Expand(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("failed to expand stylesheet path %q: %w", p, err)
		}
		paths = append(paths, expanded)
	}
	return paths, nil
}

// PlacementConfig controls the closest-position ranking.
type PlacementConfig struct {
	// HorizontalDistance folds the horizontal offset into the proximity ranking.
	// Off by default, which ranks candidates by vertical proximity only.
	HorizontalDistance bool `mapstructure:"horizontal_distance" yaml:"horizontal_distance"`
}

// GestureConfig configures gesture replay and synthesis.
type GestureConfig struct {
	DefaultSteps    int           `mapstructure:"default_steps" yaml:"default_steps"`
	EventsPerSecond float64       `mapstructure:"events_per_second" yaml:"events_per_second"`
	Geometry        string        `mapstructure:"geometry" yaml:"geometry"`
	ChromeTimeout   time.Duration `mapstructure:"chrome_timeout" yaml:"chrome_timeout"`
}

// NewDefaultConfig creates a configuration populated with the default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// The defaults are expected to be valid.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dropzone")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Editor --
	v.SetDefault("editor.canvas_class", "canvas")
	v.SetDefault("editor.sidebar_class", "sidebar")
	v.SetDefault("editor.component_class", "component")
	v.SetDefault("editor.preview_class", "preview")

	// -- Layout --
	v.SetDefault("layout.viewport_width", 1280.0)
	v.SetDefault("layout.viewport_height", 800.0)
	v.SetDefault("layout.stylesheets", []string{})

	// -- Placement --
	v.SetDefault("placement.horizontal_distance", false)

	// -- Gesture --
	v.SetDefault("gesture.default_steps", 12)
	v.SetDefault("gesture.events_per_second", 0.0)
	v.SetDefault("gesture.geometry", "layout")
	v.SetDefault("gesture.chrome_timeout", "30s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.EditorCfg.Validate(); err != nil {
		return fmt.Errorf("editor configuration invalid: %w", err)
	}
	if c.LayoutCfg.ViewportWidth <= 0 || c.LayoutCfg.ViewportHeight <= 0 {
		return fmt.Errorf("layout.viewport_width and layout.viewport_height must be positive")
	}
	if c.GestureCfg.DefaultSteps < 1 {
		return fmt.Errorf("gesture.default_steps must be at least 1")
	}
	if c.GestureCfg.EventsPerSecond < 0 {
		return fmt.Errorf("gesture.events_per_second must not be negative")
	}
	switch c.GestureCfg.Geometry {
	case "layout", "chrome":
	default:
		return fmt.Errorf("gesture.geometry must be one of layout, chrome (got %q)", c.GestureCfg.Geometry)
	}
	return nil
}

// Validate checks the class names used by the editor.
func (e *EditorConfig) Validate() error {
	classes := map[string]string{
		"canvas_class":    e.CanvasClass,
		"sidebar_class":   e.SidebarClass,
		"component_class": e.ComponentClass,
		"preview_class":   e.PreviewClass,
	}
	seen := make(map[string]string, len(classes))
	for key, class := range classes {
		if class == "" || strings.ContainsAny(class, " \t\n") {
			return fmt.Errorf("%s must be a single non-empty class name", key)
		}
		if other, dup := seen[class]; dup {
			return fmt.Errorf("%s and %s must differ (both %q)", key, other, class)
		}
		seen[class] = key
	}
	return nil
}

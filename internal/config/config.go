package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/bryanchriswhite/xscreen/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory and environment prefix.
const AppName = "xscreen"

// Picker visibility predicates
const (
	VisibilityWMState   = "wm_state"
	VisibilityWorkspace = "workspace"
)

// Picker fallbacks for a click before anything was highlighted
const (
	FallbackRoot   = "root"
	FallbackCancel = "cancel"
)

// Config represents the effective configuration of one run
type Config struct {
	LogLevel  string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Overlay   OverlayConfig `json:"overlay" yaml:"overlay" mapstructure:"overlay"`
	Picker    PickerConfig  `json:"picker" yaml:"picker" mapstructure:"picker"`
	Capture   CaptureConfig `json:"capture" yaml:"capture" mapstructure:"capture"`
	Output    OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
}

// OverlayConfig controls the selection overlay. Colors are premultiplied ARGB.
type OverlayConfig struct {
	Background   uint32 `json:"background" yaml:"background" mapstructure:"background"`
	Foreground   uint32 `json:"foreground" yaml:"foreground" mapstructure:"foreground"`
	Fill         bool   `json:"fill" yaml:"fill" mapstructure:"fill"`
	RefreshHz    int    `json:"refresh_hz" yaml:"refresh_hz" mapstructure:"refresh_hz"`
	ShowSize     bool   `json:"show_size" yaml:"show_size" mapstructure:"show_size"`
	GrabAttempts int    `json:"grab_attempts" yaml:"grab_attempts" mapstructure:"grab_attempts"`
}

// PickerConfig controls window picking
type PickerConfig struct {
	Visibility string `json:"visibility" yaml:"visibility" mapstructure:"visibility"`
	Fallback   string `json:"fallback" yaml:"fallback" mapstructure:"fallback"`
}

// CaptureConfig controls frame retrieval
type CaptureConfig struct {
	UseComposite bool `json:"use_composite" yaml:"use_composite" mapstructure:"use_composite"`
}

// OutputConfig controls generated file names
type OutputConfig struct {
	FilenameFormat string `json:"filename_format" yaml:"filename_format" mapstructure:"filename_format"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		LogLevel: string(logger.WarnLevel),
		Overlay: OverlayConfig{
			Background:   0x00000000,
			Foreground:   0x82145482,
			Fill:         true,
			RefreshHz:    60,
			ShowSize:     true,
			GrabAttempts: 10,
		},
		Picker: PickerConfig{
			Visibility: VisibilityWMState,
			Fallback:   FallbackRoot,
		},
		Capture: CaptureConfig{
			UseComposite: true,
		},
		Output: OutputConfig{
			FilenameFormat: "Screenshot %Y-%m-%d %H-%M-%S.png",
		},
	}
}

// SetDefaults registers the built-in values on v so that environment
// variables and config files can override them key by key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("overlay.background", d.Overlay.Background)
	v.SetDefault("overlay.foreground", d.Overlay.Foreground)
	v.SetDefault("overlay.fill", d.Overlay.Fill)
	v.SetDefault("overlay.refresh_hz", d.Overlay.RefreshHz)
	v.SetDefault("overlay.show_size", d.Overlay.ShowSize)
	v.SetDefault("overlay.grab_attempts", d.Overlay.GrabAttempts)
	v.SetDefault("picker.visibility", d.Picker.Visibility)
	v.SetDefault("picker.fallback", d.Picker.Fallback)
	v.SetDefault("capture.use_composite", d.Capture.UseComposite)
	v.SetDefault("output.filename_format", d.Output.FilenameFormat)
}

// DefaultConfigPath is the read-only config file looked up when --config
// is not given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Setup prepares v: defaults, XSCREEN_* environment variables and the
// optional config file. A missing default file is not an error.
func Setup(v *viper.Viper, configFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigPath()
	}
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)) {
			logger.WithComponent("config").Debug().
				Str("path", configFile).
				Msg("No config file, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", configFile, err)
	}

	logger.WithComponent("config").Debug().
		Str("path", v.ConfigFileUsed()).
		Msg("Config loaded")
	return nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges
func (c *Config) Validate() error {
	if !logger.LogLevel(c.LogLevel).Valid() {
		return fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", c.LogLevel)
	}
	if c.Overlay.RefreshHz <= 0 {
		return fmt.Errorf("invalid overlay.refresh_hz: %d (must be positive)", c.Overlay.RefreshHz)
	}
	if c.Overlay.GrabAttempts <= 0 {
		return fmt.Errorf("invalid overlay.grab_attempts: %d (must be positive)", c.Overlay.GrabAttempts)
	}
	switch c.Picker.Visibility {
	case VisibilityWMState, VisibilityWorkspace:
	default:
		return fmt.Errorf("invalid picker.visibility: %s (use: %s, %s)", c.Picker.Visibility, VisibilityWMState, VisibilityWorkspace)
	}
	switch c.Picker.Fallback {
	case FallbackRoot, FallbackCancel:
	default:
		return fmt.Errorf("invalid picker.fallback: %s (use: %s, %s)", c.Picker.Fallback, FallbackRoot, FallbackCancel)
	}
	if strings.TrimSpace(c.Output.FilenameFormat) == "" {
		return fmt.Errorf("output.filename_format cannot be empty")
	}
	return nil
}

// Render writes the configuration as yaml or json
func (c *Config) Render(w io.Writer, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(c)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(c)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", format)
	}
}

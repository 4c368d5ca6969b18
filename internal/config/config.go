// Package config layers defaults, a YAML file, environment and CLI flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/petems/whisperlab/internal/transcribe"
)

const appName = "whisperlab"

// EnvPrefix prefixes environment overrides, e.g. WHISPERLAB_WHISPER_MODEL.
const EnvPrefix = "WHISPERLAB"

type Config struct {
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Whisper WhisperConfig `mapstructure:"whisper" yaml:"whisper"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type AudioConfig struct {
	DeviceID      string `mapstructure:"device_id" yaml:"device_id"`
	WindowSeconds int    `mapstructure:"window_seconds" yaml:"window_seconds"`
	ExportDir     string `mapstructure:"export_dir" yaml:"export_dir"`
}

type WhisperConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`       // "base", "small.en", etc.
	Language  string `mapstructure:"language" yaml:"language"` // "auto", "en", etc.
	Threads   int    `mapstructure:"threads" yaml:"threads"`
	Translate bool   `mapstructure:"translate" yaml:"translate"`
}

type LogConfig struct {
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`
	Structured bool   `mapstructure:"structured" yaml:"structured"`
	File       string `mapstructure:"file" yaml:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // empty disables the endpoint
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			WindowSeconds: 5,
		},
		Whisper: WhisperConfig{
			Model:    transcribe.DefaultModel,
			Language: "auto",
		},
	}
}

// Load builds the configuration. Later sources win: defaults, the YAML file
// at path (or ConfigPath when empty; a missing file is skipped), WHISPERLAB_*
// environment variables, then any flags in bind that were set. bind maps a
// config key such as "audio.window_seconds" to its flag.
func Load(path string, bind map[string]*pflag.Flag) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		path = ConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range bind {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("audio.device_id", d.Audio.DeviceID)
	v.SetDefault("audio.window_seconds", d.Audio.WindowSeconds)
	v.SetDefault("audio.export_dir", d.Audio.ExportDir)
	v.SetDefault("whisper.model", d.Whisper.Model)
	v.SetDefault("whisper.language", d.Whisper.Language)
	v.SetDefault("whisper.threads", d.Whisper.Threads)
	v.SetDefault("whisper.translate", d.Whisper.Translate)
	v.SetDefault("log.verbose", d.Log.Verbose)
	v.SetDefault("log.structured", d.Log.Structured)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Audio.WindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.window_seconds must be positive, got %d", c.Audio.WindowSeconds))
	}
	if !transcribe.IsKnownModel(c.Whisper.Model) {
		errs = append(errs, fmt.Errorf("whisper.model %q is not one of %s", c.Whisper.Model, strings.Join(transcribe.Models, ", ")))
	}
	if c.Whisper.Threads < 0 {
		errs = append(errs, fmt.Errorf("whisper.threads must not be negative, got %d", c.Whisper.Threads))
	}
	return errors.Join(errs...)
}

// TranscribeArgs returns the whisper settings as request arguments.
func (c *Config) TranscribeArgs() map[string]any {
	args := map[string]any{
		"translate": c.Whisper.Translate,
		"threads":   c.Whisper.Threads,
	}
	if c.Whisper.Language != "" {
		args["language"] = c.Whisper.Language
	}
	return args
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ConfigPath returns the platform-specific config file path
func ConfigPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, appName, "config.yaml")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, appName, "models")
}

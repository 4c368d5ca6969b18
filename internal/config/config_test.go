package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "audio:\n  window_seconds: 3\n  export_dir: /tmp/out\nwhisper:\n  model: small\n  language: en\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WHISPERLAB_WHISPER_LANGUAGE", "de")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("window-seconds", 5, "")
	fs.String("model", "base", "")
	if err := fs.Parse([]string{"--window-seconds=7"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, map[string]*pflag.Flag{
		"audio.window_seconds": fs.Lookup("window-seconds"),
		"whisper.model":        fs.Lookup("model"),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Audio.WindowSeconds != 7 {
		t.Errorf("WindowSeconds = %d, want 7 (flag)", cfg.Audio.WindowSeconds)
	}
	if cfg.Whisper.Model != "small" {
		t.Errorf("Model = %q, want small (file; flag unset)", cfg.Whisper.Model)
	}
	if cfg.Whisper.Language != "de" {
		t.Errorf("Language = %q, want de (env)", cfg.Whisper.Language)
	}
	if cfg.Audio.ExportDir != "/tmp/out" {
		t.Errorf("ExportDir = %q, want /tmp/out", cfg.Audio.ExportDir)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("audio: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero window", func(c *Config) { c.Audio.WindowSeconds = 0 }, true},
		{"unknown model", func(c *Config) { c.Whisper.Model = "gigantic" }, true},
		{"negative threads", func(c *Config) { c.Whisper.Threads = -2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Audio.DeviceID = "USB Mic"
	cfg.Whisper.Translate = true
	cfg.Metrics.Addr = ":9100"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}

func TestTranscribeArgs(t *testing.T) {
	cfg := Default()
	cfg.Whisper.Threads = 4
	args := cfg.TranscribeArgs()
	if args["language"] != "auto" || args["threads"] != 4 || args["translate"] != false {
		t.Errorf("unexpected args %v", args)
	}
}

func TestPathsUseXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths only apply on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)

	if got := ConfigPath(); got != filepath.Join(dir, "whisperlab", "config.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := ModelsPath(); got != filepath.Join(dir, "whisperlab", "models") {
		t.Errorf("ModelsPath = %q", got)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petems/whisperlab/internal/transcribe"
)

func execute(t *testing.T, args ...string) (string, *state, error) {
	t.Helper()
	rt := &state{}
	root := newRootCmd(rt)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), rt, err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "whisperlab dev") {
		t.Errorf("output = %q", out)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	_, rt, err := execute(t, "version", "--verbose", "--log-file", filepath.Join(t.TempDir(), "w.log"))
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !rt.cfg.Log.Verbose {
		t.Error("--verbose not applied")
	}
	if rt.cfg.Whisper.Model != transcribe.DefaultModel {
		t.Errorf("Model = %q", rt.cfg.Whisper.Model)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	_, _, err := execute(t, "transcribe", filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, transcribe.ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
}

func TestInvalidModelRejected(t *testing.T) {
	_, _, err := execute(t, "transcribe", "-m", "gigantic", "a.wav")
	if err == nil || !strings.Contains(err.Error(), "gigantic") {
		t.Fatalf("err = %v, want unknown model error", err)
	}
}

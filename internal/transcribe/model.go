// Package transcribe runs speech-to-text requests against a whisper model.
package transcribe

import (
	"context"
	"slices"
	"time"
)

// DefaultModel is the model used when a request names none.
const DefaultModel = "base"

// Models lists the ggml whisper models that can be downloaded.
var Models = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large-v3", "large-v3-turbo",
}

// IsKnownModel reports whether name is one of Models.
func IsKnownModel(name string) bool {
	return slices.Contains(Models, name)
}

// Options tune a single model run.
type Options struct {
	Language  string // "" or "auto" lets the model detect it
	Translate bool
	Threads   int // 0 uses the model default
}

// Segment is a timed piece of transcribed text.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Model turns 16 kHz mono samples into text segments.
type Model interface {
	Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error)
	Close() error
}

// ModelLoader loads models by name. Loading may download the model, and
// stops when ctx is done.
type ModelLoader interface {
	Load(ctx context.Context, name string) (Model, error)
}

// ModelLoaderFunc adapts a function to ModelLoader.
type ModelLoaderFunc func(ctx context.Context, name string) (Model, error)

func (f ModelLoaderFunc) Load(ctx context.Context, name string) (Model, error) { return f(ctx, name) }

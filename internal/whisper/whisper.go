// Package whisper adapts whisper.cpp models to the transcribe package.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/transcribe"
)

// Loader loads ggml models from a directory, downloading missing ones.
type Loader struct {
	dir        string
	downloader *Downloader
	log        zerolog.Logger
}

// NewLoader creates a Loader that keeps models in dir.
func NewLoader(dir string, log zerolog.Logger) *Loader {
	return &Loader{
		dir:        dir,
		downloader: &Downloader{Log: log},
		log:        log,
	}
}

// Path returns where model is stored.
func (l *Loader) Path(model string) string {
	return filepath.Join(l.dir, modelFile(model))
}

// Load implements transcribe.ModelLoader. A missing model is downloaded;
// cancelling ctx aborts the download.
func (l *Loader) Load(ctx context.Context, name string) (transcribe.Model, error) {
	if !transcribe.IsKnownModel(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}

	path := l.Path(name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := l.downloader.Download(ctx, name, path); err != nil {
			return nil, err
		}
	}

	l.log.Debug().Str("model", name).Str("path", path).Msg("Loading whisper model")
	m, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	return &model{model: m, name: name, log: l.log}, nil
}

// model runs one whisper context at a time.
type model struct {
	mu    sync.Mutex
	model whisper.Model
	name  string
	log   zerolog.Logger
}

func (m *model) Transcribe(ctx context.Context, samples []float32, opts transcribe.Options) ([]transcribe.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return nil, fmt.Errorf("model %s is closed", m.name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wctx, err := m.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	if opts.Threads > 0 {
		wctx.SetThreads(uint(opts.Threads))
	}
	if opts.Language != "" && opts.Language != "auto" {
		if err := wctx.SetLanguage(opts.Language); err != nil {
			return nil, fmt.Errorf("set language %q: %w", opts.Language, err)
		}
	}
	wctx.SetTranslate(opts.Translate)

	if err := wctx.Process(samples, nil, nil); err != nil {
		return nil, err
	}

	var segments []transcribe.Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return segments, fmt.Errorf("read segment: %w", err)
		}
		segments = append(segments, transcribe.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	m.log.Debug().Str("model", m.name).Int("segments", len(segments)).Msg("Whisper run complete")
	return segments, nil
}

func (m *model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model == nil {
		return nil
	}
	err := m.model.Close()
	m.model = nil
	return err
}

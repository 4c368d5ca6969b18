// Package app runs windowed transcription sessions over an audio source.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/audio"
	"github.com/petems/whisperlab/internal/capture"
	"github.com/petems/whisperlab/internal/metrics"
	"github.com/petems/whisperlab/internal/transcribe"
)

// BatchPrefix starts the batch name of every realtime session.
const BatchPrefix = "Transcribe_RT::"

// Transcriber runs one task.
type Transcriber interface {
	RunTask(ctx context.Context, task *transcribe.Task) error
}

type Config struct {
	Source      capture.Source
	Transcriber Transcriber
	Model       string
	Options     transcribe.Options

	// Windows limits the session; 0 runs until the source is exhausted or
	// the context ends.
	Windows int
	// WindowSeconds must match the source's window length.
	WindowSeconds int
	// ContextSeconds of preceding audio are sent along with each window.
	ContextSeconds int
	// ExportDir receives each window's audio and text when set.
	ExportDir string
	// Capitalize upper-cases the first letter of the joined text.
	Capitalize bool

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Result is what a session produced.
type Result struct {
	Batch   string
	Windows int
	Texts   []string
	Text    string
}

type Session struct {
	src     capture.Source
	stt     Transcriber
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	buf    *audio.WaveBuffer
	window int
	filled int
}

func New(cfg Config) *Session {
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = capture.DefaultWindowSeconds
	}
	if cfg.ContextSeconds < 0 {
		cfg.ContextSeconds = 0
	}
	if cfg.Model == "" {
		cfg.Model = transcribe.DefaultModel
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	window := capture.WindowSamples(cfg.WindowSeconds)
	size := window + capture.WindowSamples(cfg.ContextSeconds)

	return &Session{
		src:     cfg.Source,
		stt:     cfg.Transcriber,
		cfg:     cfg,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		now:     now,
		buf:     audio.Rolling(size),
		window:  window,
	}
}

// Run reads and transcribes windows until the window limit is reached, the
// source runs dry or ctx ends. The text gathered so far is returned in every
// case; an error is returned only for a failure other than those three.
func (s *Session) Run(ctx context.Context) (Result, error) {
	res := Result{Batch: BatchPrefix + s.now().Format("20060102T150405")}
	s.log.Info().Str("batch", res.Batch).Int("windows", s.cfg.Windows).Msg("Starting transcription session")

	err := s.loop(ctx, &res)
	res.Text = s.joinText(res.Texts)

	switch {
	case err == nil, errors.Is(err, capture.ErrExhausted):
		s.log.Info().Int("windows", res.Windows).Str("text", res.Text).Msg("Session finished")
		return res, nil
	case ctx.Err() != nil:
		s.log.Info().Int("windows", res.Windows).Str("text", res.Text).Msg("Session interrupted")
		return res, nil
	default:
		s.log.Error().Err(err).Int("windows", res.Windows).Str("text", res.Text).Msg("Session failed")
		return res, err
	}
}

func (s *Session) loop(ctx context.Context, res *Result) error {
	for seq := 0; s.cfg.Windows <= 0 || seq < s.cfg.Windows; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		window, err := s.src.Get()
		if err != nil {
			if errors.Is(err, capture.ErrExhausted) {
				return err
			}
			return fmt.Errorf("read window %d: %w", seq, err)
		}

		text, err := s.process(ctx, res.Batch, seq, window)
		if err != nil {
			return err
		}
		res.Windows++
		if text != "" {
			res.Texts = append(res.Texts, text)
		}
	}
	return nil
}

func (s *Session) process(ctx context.Context, batch string, seq int, window capture.Window) (string, error) {
	s.buf.Put(window)
	s.filled = min(s.filled+len(window), s.buf.Len())

	// The rolling buffer starts zeroed; only send what has been captured.
	content := s.buf.Get()
	samples := make([]float32, s.filled)
	copy(samples, content[len(content)-s.filled:])

	task := transcribe.NewTask(batch, seq, samples)
	task.Model = s.cfg.Model
	task.Options = s.cfg.Options
	if err := s.stt.RunTask(ctx, task); err != nil {
		return "", err
	}
	text := strings.TrimSpace(task.Result.Text)

	s.log.Info().
		Str("batch", batch).
		Int("sequence", seq).
		Str("text", text).
		Msg("Window transcribed")

	if s.cfg.ExportDir != "" {
		base := segmentPath(s.cfg.ExportDir, batch, seq)
		if err := audio.SaveSegment(window, text, base); err != nil {
			return "", fmt.Errorf("export window %d: %w", seq, err)
		}
		s.metrics.SegmentExported()
		s.log.Debug().Str("path", base).Msg("Exported window")
	}
	return text, nil
}

// segmentPath names the export files for one window, e.g.
// <dir>/Transcribe_RT_20261018T150405/segment_0003.
func segmentPath(dir, batch string, seq int) string {
	return filepath.Join(dir, strings.ReplaceAll(batch, "::", "_"), fmt.Sprintf("segment_%04d", seq))
}

func (s *Session) joinText(texts []string) string {
	text := strings.TrimSpace(strings.Join(texts, " "))
	if s.cfg.Capitalize && len(text) > 0 && text[0] >= 'a' && text[0] <= 'z' {
		text = string(text[0]-32) + text[1:]
	}
	return text
}

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/audio"
	"github.com/petems/whisperlab/internal/metrics"
)

// Result is the outcome of a transcription.
type Result struct {
	Text     string
	Segments []Segment
	Model    string
}

// Transcriber runs requests and tasks, loading each model once.
type Transcriber struct {
	loader  ModelLoader
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	models map[string]Model
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(t *Transcriber) { t.log = log }
}

// WithMetrics records transcription counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transcriber) { t.metrics = m }
}

// New creates a Transcriber that loads models through loader.
func New(loader ModelLoader, opts ...Option) *Transcriber {
	t := &Transcriber{
		loader: loader,
		log:    zerolog.Nop(),
		models: make(map[string]Model),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run transcribes the request's audio file. An empty file yields an empty
// result without loading the model.
func (t *Transcriber) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	opts, err := ParseOptions(req.Args)
	if err != nil {
		return Result{}, err
	}
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	if err := audio.ValidateFile(req.AudioFile); errors.Is(err, audio.ErrEmptyFile) {
		t.log.Info().Str("file", req.AudioFile).Msg("Audio file is empty")
		t.metrics.ObserveTranscription(0, metrics.ResultEmpty)
		return Result{Model: model}, nil
	}

	samples, err := audio.Load(req.AudioFile)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load audio: %w", err)
	}

	t.log.Info().Str("file", req.AudioFile).Str("model", model).Msg("Transcribing")
	return t.Transcribe(ctx, samples, model, opts)
}

// Transcribe runs model over samples.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, model string, opts Options) (Result, error) {
	if err := audio.ValidateFloat32(samples); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m, err := t.model(ctx, model)
	if err != nil {
		t.metrics.ObserveTranscription(0, metrics.ResultFailure)
		return Result{}, err
	}

	start := time.Now()
	segments, err := m.Transcribe(ctx, samples, opts)
	elapsed := time.Since(start)
	if err != nil {
		t.metrics.ObserveTranscription(elapsed, metrics.ResultFailure)
		return Result{}, fmt.Errorf("whisper process failed: %w", err)
	}
	t.metrics.ObserveTranscription(elapsed, metrics.ResultSuccess)

	res := Result{
		Text:     joinSegments(segments),
		Segments: segments,
		Model:    model,
	}
	t.log.Info().
		Str("model", model).
		Dur("elapsed", elapsed).
		Int("segments", len(segments)).
		Str("text", res.Text).
		Msg("Transcription")
	return res, nil
}

// RunTask transcribes a task's samples and stores the result on it.
func (t *Transcriber) RunTask(ctx context.Context, task *Task) error {
	model := task.Model
	if model == "" {
		model = DefaultModel
	}
	res, err := t.Transcribe(ctx, task.Samples, model, task.Options)
	if err != nil {
		return fmt.Errorf("task %s/%d: %w", task.Batch, task.Sequence, err)
	}
	task.Result = &res
	t.log.Debug().
		Str("task", task.ID.String()).
		Str("batch", task.Batch).
		Int("sequence", task.Sequence).
		Dur("age", task.Age()).
		Msg("Task transcribed")
	return nil
}

func (t *Transcriber) model(ctx context.Context, name string) (Model, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.models[name]; ok {
		return m, nil
	}
	m, err := t.loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", name, err)
	}
	t.models[name] = m
	return m, nil
}

// Close releases every loaded model.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for name, m := range t.models {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model %s: %w", name, err))
		}
		delete(t.models, name)
	}
	return errors.Join(errs...)
}

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}


package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/audio"
	"github.com/petems/whisperlab/internal/metrics"
)

// Microphone reads fixed-size windows from a live input stream.
//
// Construction has no side effects. Open starts the device and Close
// releases it; Get may be called from one goroutine at a time. Stop or Close
// from another goroutine ends a pending Get; the stream is only released once
// no read is in flight.
type Microphone struct {
	opener        StreamOpener
	windowSeconds int
	deviceID      string
	log           zerolog.Logger
	metrics       *metrics.Metrics

	readMu sync.Mutex // held for the duration of a stream read

	mu      sync.Mutex
	stream  Stream
	stopped bool
}

var _ Source = (*Microphone)(nil)

// NewMicrophone creates a closed microphone.
func NewMicrophone(opener StreamOpener, opts ...Option) *Microphone {
	o := newOptions(opts)
	return &Microphone{
		opener:        opener,
		windowSeconds: o.windowSeconds,
		deviceID:      o.deviceID,
		log:           o.log,
		metrics:       o.metrics,
	}
}

// WindowSamples returns the number of samples each Get returns.
func (m *Microphone) WindowSamples() int {
	return WindowSamples(m.windowSeconds)
}

// Open opens and starts a mono input stream whose buffer holds one window.
func (m *Microphone) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return ErrAlreadyOpen
	}

	stream, err := m.opener.OpenStream(StreamConfig{
		DeviceID:        m.deviceID,
		SampleRate:      audio.SampleRate,
		Channels:        1,
		FramesPerBuffer: m.WindowSamples(),
	})
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream
	m.stopped = false
	m.log.Info().
		Int("window_seconds", m.windowSeconds).
		Int("window_samples", m.WindowSamples()).
		Str("device", m.deviceID).
		Msg("Microphone opened")
	return nil
}

// Get blocks until a full window has been captured.
func (m *Microphone) Get() (Window, error) {
	m.readMu.Lock()
	defer m.readMu.Unlock()

	m.mu.Lock()
	stream, stopped := m.stream, m.stopped
	m.mu.Unlock()

	if stream == nil {
		return nil, ErrNotOpen
	}
	if stopped {
		return nil, ErrStopped
	}

	start := time.Now()
	samples, overflowed, err := stream.Read()
	if err != nil {
		if m.isStopped() {
			return nil, ErrStopped
		}
		return nil, fmt.Errorf("failed to read input stream: %w", err)
	}
	if overflowed {
		m.metrics.CaptureOverflow()
		return nil, ErrCaptureOverflow
	}

	window := Window(firstChannel(samples, stream.Channels()))
	elapsed := time.Since(start)
	m.metrics.WindowCaptured(metrics.SourceMicrophone)
	m.metrics.ObserveWindowFetch(elapsed)
	m.log.Debug().
		Int("samples", len(window)).
		Dur("elapsed", elapsed).
		Msg("Fetched samples")
	return window, nil
}

func (m *Microphone) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped || m.stream == nil
}

// Stop halts capture without releasing the stream, so a Get blocked in
// another goroutine returns ErrStopped. Close must still be called.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	stream := m.stream
	already := m.stopped
	m.stopped = true
	m.mu.Unlock()

	if stream == nil || already {
		return nil
	}
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	m.log.Info().Msg("Microphone stopped")
	return nil
}

// Close stops and releases the input stream. It is safe to call more than
// once and from another goroutine: the stream is stopped first, and released
// after any pending Get has returned.
func (m *Microphone) Close() error {
	m.mu.Lock()
	stream := m.stream
	stopped := m.stopped
	m.stream = nil
	m.stopped = false
	m.mu.Unlock()

	if stream == nil {
		return nil
	}

	var stopErr error
	if !stopped {
		stopErr = stream.Stop()
	}

	m.readMu.Lock()
	closeErr := stream.Close()
	m.readMu.Unlock()

	m.log.Info().Msg("Microphone closed")
	if stopErr != nil {
		return fmt.Errorf("failed to stop input stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close input stream: %w", closeErr)
	}
	return nil
}

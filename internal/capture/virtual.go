package capture

import (
	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/audio"
	"github.com/petems/whisperlab/internal/metrics"
)

// VirtualMicrophone replays an audio file as consecutive windows.
//
// Trailing samples that do not fill a whole window are dropped. Once every
// window has been returned, Get fails with ErrExhausted for good.
type VirtualMicrophone struct {
	windows []Window
	index   int
	log     zerolog.Logger
	metrics *metrics.Metrics
}

var _ Source = (*VirtualMicrophone)(nil)

// NewVirtualMicrophone loads path and splits it into windows.
func NewVirtualMicrophone(path string, opts ...Option) (*VirtualMicrophone, error) {
	samples, err := audio.Load(path)
	if err != nil {
		return nil, err
	}
	v := NewVirtualMicrophoneFromSamples(samples, opts...)
	v.log.Info().
		Str("file", path).
		Int("samples", len(samples)).
		Int("windows", len(v.windows)).
		Msg("Loaded audio file")
	return v, nil
}

// NewVirtualMicrophoneFromSamples splits decoded samples into windows.
func NewVirtualMicrophoneFromSamples(samples []float32, opts ...Option) *VirtualMicrophone {
	o := newOptions(opts)
	size := WindowSamples(o.windowSeconds)

	count := len(samples) / size
	windows := make([]Window, count)
	for i := range count {
		windows[i] = Window(samples[i*size : (i+1)*size : (i+1)*size])
	}

	return &VirtualMicrophone{
		windows: windows,
		log:     o.log,
		metrics: o.metrics,
	}
}

// Get returns the next window.
func (v *VirtualMicrophone) Get() (Window, error) {
	if v.index >= len(v.windows) {
		return nil, ErrExhausted
	}
	w := v.windows[v.index]
	v.index++
	v.metrics.WindowCaptured(metrics.SourceFile)
	return w, nil
}

// Len returns the total number of windows.
func (v *VirtualMicrophone) Len() int { return len(v.windows) }

// Remaining returns the number of windows not yet returned.
func (v *VirtualMicrophone) Remaining() int { return len(v.windows) - v.index }

// Close is a no-op; the samples are held in memory.
func (v *VirtualMicrophone) Close() error { return nil }

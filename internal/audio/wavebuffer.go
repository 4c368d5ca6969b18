package audio

// Processor transforms incoming samples before a WaveBuffer stores them.
type Processor func(samples []float32) []float32

// Identity stores samples unchanged.
func Identity(samples []float32) []float32 { return samples }

// Downsample keeps every n-th sample.
func Downsample(n int) Processor {
	if n <= 1 {
		return Identity
	}
	return func(samples []float32) []float32 {
		out := make([]float32, 0, (len(samples)+n-1)/n)
		for i := 0; i < len(samples); i += n {
			out = append(out, samples[i])
		}
		return out
	}
}

// WaveBuffer holds the latest block of samples.
//
// It is not safe for concurrent use; a single goroutine should own it.
type WaveBuffer struct {
	buf     []float32
	process Processor
}

// WaveBufferOption configures a WaveBuffer.
type WaveBufferOption func(*WaveBuffer)

// WithProcessor sets the transform applied by Put.
func WithProcessor(p Processor) WaveBufferOption {
	return func(w *WaveBuffer) {
		if p != nil {
			w.process = p
		}
	}
}

// NewWaveBuffer creates a WaveBuffer holding size zeroed samples.
func NewWaveBuffer(size int, opts ...WaveBufferOption) *WaveBuffer {
	w := &WaveBuffer{
		buf:     make([]float32, size),
		process: Identity,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Rolling creates a WaveBuffer that keeps the most recent size samples:
// each Put rolls the processed samples into the retained content.
func Rolling(size int, pre ...Processor) *WaveBuffer {
	w := NewWaveBuffer(size)
	w.process = func(samples []float32) []float32 {
		for _, p := range pre {
			samples = p(samples)
		}
		return Roll(w.buf, samples)
	}
	return w
}

// Get returns the current content without copying it.
func (w *WaveBuffer) Get() []float32 {
	return w.buf
}

// Put replaces the content with the processed samples. The length follows
// the processor's output: with Identity, Len becomes len(samples). Use
// Rolling for a buffer whose length stays fixed.
func (w *WaveBuffer) Put(samples []float32) {
	w.buf = w.process(samples)
}

// Len returns the number of stored samples.
func (w *WaveBuffer) Len() int {
	return len(w.buf)
}

package capture

// StreamConfig describes the input stream a Microphone asks for.
type StreamConfig struct {
	DeviceID        string // empty selects the default input device
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Stream is a blocking audio input stream.
type Stream interface {
	Start() error
	// Read blocks until a full buffer is available and returns it as
	// interleaved samples. overflowed reports that input was dropped
	// before this read.
	Read() (samples []float32, overflowed bool, err error)
	Channels() int
	Stop() error
	Close() error
}

// StreamOpener opens input streams.
type StreamOpener interface {
	OpenStream(cfg StreamConfig) (Stream, error)
}

// StreamOpenerFunc adapts a function to StreamOpener.
type StreamOpenerFunc func(cfg StreamConfig) (Stream, error)

func (f StreamOpenerFunc) OpenStream(cfg StreamConfig) (Stream, error) { return f(cfg) }

// firstChannel extracts channel 0 from interleaved samples.
func firstChannel(samples []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for f := range frames {
		out[f] = samples[f*channels]
	}
	return out
}

package capture

import (
	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/metrics"
)

type options struct {
	windowSeconds int
	deviceID      string
	log           zerolog.Logger
	metrics       *metrics.Metrics
}

// Option configures a Microphone or VirtualMicrophone.
type Option func(*options)

// WithWindowSeconds sets the window length.
func WithWindowSeconds(seconds int) Option {
	return func(o *options) {
		if seconds > 0 {
			o.windowSeconds = seconds
		}
	}
}

// WithDevice selects an input device by name.
func WithDevice(id string) Option {
	return func(o *options) { o.deviceID = id }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records capture timings and counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	o := options{
		windowSeconds: DefaultWindowSeconds,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

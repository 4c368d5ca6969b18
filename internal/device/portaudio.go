package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/capture"
)

// Host owns the portaudio library. Initialize it once per process and Close
// it after every stream it opened has been closed.
type Host struct {
	log zerolog.Logger
}

var _ capture.StreamOpener = (*Host)(nil)

// New initializes PortAudio.
func New(log zerolog.Logger) (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &Host{log: log}, nil
}

// OpenStream opens a blocking input stream. The stream is not started.
func (h *Host) OpenStream(cfg capture.StreamConfig) (capture.Stream, error) {
	device, err := h.lookup(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}

	buffer := make([]float32, cfg.FramesPerBuffer*channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultHighInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	h.log.Debug().
		Str("device", device.Name).
		Int("channels", channels).
		Int("sample_rate", cfg.SampleRate).
		Int("frames_per_buffer", cfg.FramesPerBuffer).
		Msg("Opened input stream")

	return &inputStream{
		stream:   stream,
		buffer:   buffer,
		channels: channels,
	}, nil
}

func (h *Host) lookup(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	device := findInput(devices, name)
	if device == nil {
		return nil, fmt.Errorf("device not found: %s", name)
	}
	return device, nil
}

// findInput returns the first input-capable device called name.
func findInput(devices []*portaudio.DeviceInfo, name string) *portaudio.DeviceInfo {
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d
		}
	}
	return nil
}

// ListDevices returns the input devices.
func (h *Host) ListDevices() ([]AudioDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defaultDevice, _ := portaudio.DefaultInputDevice()
	return inputDevices(devices, defaultDevice), nil
}

func inputDevices(devices []*portaudio.DeviceInfo, defaultDevice *portaudio.DeviceInfo) []AudioDevice {
	result := make([]AudioDevice, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		var hostAPI string
		if d.HostApi != nil {
			hostAPI = d.HostApi.Name
		}
		result = append(result, AudioDevice{
			ID:         d.Name,
			Name:       d.Name,
			HostAPI:    hostAPI,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    defaultDevice != nil && d == defaultDevice,
		})
	}
	return result
}

// Close terminates PortAudio.
func (h *Host) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

type inputStream struct {
	stream   *portaudio.Stream
	buffer   []float32
	channels int

	mu     sync.Mutex
	closed bool
}

func (s *inputStream) Start() error { return s.stream.Start() }

func (s *inputStream) Channels() int { return s.channels }

// Read fills the buffer. An input overflow is reported through overflowed
// rather than as an error; the buffer still holds the samples that were read.
func (s *inputStream) Read() ([]float32, bool, error) {
	err := s.stream.Read()
	if errors.Is(err, portaudio.InputOverflowed) {
		return s.copyBuffer(), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s.copyBuffer(), false, nil
}

func (s *inputStream) copyBuffer() []float32 {
	samples := make([]float32, len(s.buffer))
	copy(samples, s.buffer)
	return samples
}

func (s *inputStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.stream.Stop()
}

func (s *inputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

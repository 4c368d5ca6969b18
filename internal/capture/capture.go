// Package capture turns continuous audio into fixed-size windows.
//
// A Source hands out one Window per Get call. Microphone reads windows from a
// live input stream; VirtualMicrophone replays windows cut from a file.
package capture

import (
	"errors"

	"github.com/petems/whisperlab/internal/audio"
)

// DefaultWindowSeconds is the window length used when none is configured.
const DefaultWindowSeconds = 5

var (
	// ErrCaptureOverflow is returned when the input stream dropped samples
	// because the consumer fell behind.
	ErrCaptureOverflow = errors.New("capture buffer overflow")
	// ErrExhausted is returned once a replay source has no windows left.
	ErrExhausted = errors.New("audio source exhausted")
	// ErrNotOpen is returned by Get on a microphone that is not open.
	ErrNotOpen = errors.New("microphone is not open")
	// ErrStopped is returned by Get once the microphone has been stopped.
	ErrStopped = errors.New("microphone stopped")
	// ErrAlreadyOpen is returned when opening an open microphone.
	ErrAlreadyOpen = errors.New("microphone is already open")
)

// Window is a block of WindowSamples mono samples at audio.SampleRate.
type Window []float32

// Source produces windows on demand.
type Source interface {
	Get() (Window, error)
	Close() error
}

// WindowSamples returns the number of samples in a window of the given length.
func WindowSamples(seconds int) int {
	return audio.SampleRate * seconds
}

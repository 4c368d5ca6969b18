// Package device provides portaudio-backed input streams for capture.Microphone.
package device

// AudioDevice represents an audio input device
type AudioDevice struct {
	ID         string
	Name       string
	HostAPI    string
	Channels   int
	SampleRate float64
	Default    bool
}

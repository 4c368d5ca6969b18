package capture

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/petems/whisperlab/internal/audio"
)

func ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i%100) / 100
	}
	return out
}

func TestVirtualMicrophoneWindows(t *testing.T) {
	const w = audio.SampleRate

	tests := []struct {
		name    string
		samples int
		want    int
	}{
		{"exact multiple", 3 * w, 3},
		{"drops partial tail", 2*w + w/2, 2},
		{"shorter than a window", w - 1, 0},
		{"empty", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := ramp(tt.samples)
			v := NewVirtualMicrophoneFromSamples(samples, WithWindowSeconds(1))
			if v.Len() != tt.want {
				t.Fatalf("expected %d windows, got %d", tt.want, v.Len())
			}

			for i := 0; i < tt.want; i++ {
				win, err := v.Get()
				if err != nil {
					t.Fatalf("window %d: %v", i, err)
				}
				if len(win) != w {
					t.Fatalf("window %d: expected %d samples, got %d", i, w, len(win))
				}
				if win[0] != samples[i*w] || win[w-1] != samples[(i+1)*w-1] {
					t.Fatalf("window %d does not match source samples", i)
				}
			}
			if v.Remaining() != 0 {
				t.Fatalf("expected no remaining windows, got %d", v.Remaining())
			}

			for i := 0; i < 3; i++ {
				if _, err := v.Get(); !errors.Is(err, ErrExhausted) {
					t.Fatalf("expected ErrExhausted, got %v", err)
				}
			}
		})
	}
}

func TestVirtualMicrophoneWindowsAreIndependent(t *testing.T) {
	samples := ramp(2 * audio.SampleRate)
	v := NewVirtualMicrophoneFromSamples(samples, WithWindowSeconds(1))

	first, _ := v.Get()
	first = append(first, 0.5)
	second, _ := v.Get()
	if second[0] != samples[audio.SampleRate] {
		t.Fatal("appending to one window must not overwrite the next")
	}
	_ = first
}

func TestVirtualMicrophoneFromFile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "clip")
	if err := audio.SaveSegment(ramp(3*audio.SampleRate+10), "", base); err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}

	v, err := NewVirtualMicrophone(base+".wav", WithWindowSeconds(1))
	if err != nil {
		t.Fatalf("NewVirtualMicrophone: %v", err)
	}
	defer v.Close()

	if v.Len() != 3 {
		t.Fatalf("expected 3 windows, got %d", v.Len())
	}
}

func TestVirtualMicrophoneResampledFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "48k.wav")
	pcm := make([]int16, 10*48000)
	for i := range pcm {
		pcm[i] = int16((i % 200) * 50)
	}
	if err := audio.WriteWAV(path, pcm, 48000); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	v, err := NewVirtualMicrophone(path)
	if err != nil {
		t.Fatalf("NewVirtualMicrophone: %v", err)
	}
	defer v.Close()

	if v.Len() != 2 {
		t.Fatalf("expected 2 windows from 10s at 48 kHz, got %d", v.Len())
	}
}

func TestVirtualMicrophoneMissingFile(t *testing.T) {
	if _, err := NewVirtualMicrophone(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

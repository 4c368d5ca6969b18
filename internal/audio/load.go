package audio

import (
	"fmt"
	"os"
)

// SampleRate is the rate every loaded or captured sample array uses.
const SampleRate = 16000

var defaultRegistry = DefaultRegistry()

// Load decodes an audio file into mono samples at SampleRate.
func Load(path string) ([]float32, error) {
	return LoadWith(defaultRegistry, path)
}

// LoadWith is Load with an explicit decoder registry.
func LoadWith(reg *Registry, path string) ([]float32, error) {
	if err := ValidateFile(path); err != nil {
		return nil, err
	}

	dec, err := reg.ForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	decoded, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	samples, err := Resample(Mono(decoded), decoded.SampleRate, SampleRate)
	if err != nil {
		return nil, err
	}
	if err := ValidateFloat32(samples); err != nil {
		return nil, fmt.Errorf("decoded %s: %w", path, err)
	}
	return samples, nil
}

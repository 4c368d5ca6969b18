package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Mono averages interleaved channels into a single channel.
func Mono(d Decoded) []float32 {
	if d.Channels <= 1 {
		return d.Samples
	}

	frames := d.Frames()
	out := make([]float32, frames)
	inv := 1 / float32(d.Channels)
	for f := range frames {
		var sum float32
		base := f * d.Channels
		for c := range d.Channels {
			sum += d.Samples[base+c]
		}
		out[f] = sum * inv
	}
	return out
}

// Resample converts mono samples from one sample rate to another.
// The output holds round(len(samples)*to/from) samples: the filter tail is
// flushed, then trimmed or zero-padded to that length. Filter overshoot is
// clipped back into [-1, 1].
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from == to || len(samples) == 0 {
		return samples, nil
	}
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", from, to)
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}

	res, err := rs.ProcessFloat32(samples)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	tail, err := rs.Flush()
	if err != nil {
		return nil, fmt.Errorf("flush resampler: %w", err)
	}

	want := ResampledLen(len(samples), from, to)
	out := make([]float32, want)
	n := copy(out, res)
	for i := 0; n < want && i < len(tail); i++ {
		out[n] = float32(tail[i])
		n++
	}
	for i, s := range out {
		out[i] = max(-1, min(1, s))
	}
	return out, nil
}

// ResampledLen returns the number of samples n samples at rate from become
// at rate to.
func ResampledLen(n, from, to int) int {
	return int((int64(n)*int64(to) + int64(from)/2) / int64(from))
}

package audio

import "math"

// Float32ToInt16 maps samples in [-1, 1] to 16-bit PCM.
//
// Each sample is scaled by 32768 and truncated towards zero. The result is
// clamped to the int16 range, so 1.0 becomes 32767 instead of wrapping.
func Float32ToInt16(samples []float32) ([]int16, error) {
	if err := ValidateFloat32(samples); err != nil {
		return nil, err
	}

	out := make([]int16, len(samples))
	for i, s := range samples {
		v := int32(s * 32768)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int16(v)
	}
	return out, nil
}

// Int16ToFloat32 maps 16-bit PCM back to [-1, 1).
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

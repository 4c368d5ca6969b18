package audio

// Number is any sample type Roll can shift.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Roll slides samples into a fixed-length buffer and returns the result.
//
// The oldest len(samples) values drop off the front and samples are placed at
// the end. When samples is at least as long as buffer, only its last
// len(buffer) values are kept. The inputs are never modified.
//
//	Roll([]float32{0, 0, 0}, []float32{1, 2, 3, 4}) // [2 3 4]
//	Roll([]float32{0, 0, 0}, []float32{1, 2})       // [0 1 2]
//	Roll([]float32{1, 2, 3}, []float32{4, 5})       // [3 4 5]
func Roll[T Number](buffer, samples []T) []T {
	out := make([]T, len(buffer))
	if len(samples) >= len(buffer) {
		copy(out, samples[len(samples)-len(buffer):])
		return out
	}
	n := copy(out, buffer[len(samples):])
	copy(out[n:], samples)
	return out
}

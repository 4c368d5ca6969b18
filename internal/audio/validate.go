package audio

import (
	"fmt"
	"os"
	"reflect"
)

// Kind identifies the element type of a sample array.
type Kind int

const (
	KindUnknown Kind = iota
	KindFloat32
	KindFloat64
	KindInt16
	KindInt32
)

func (k Kind) String() string {
	switch k {
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	default:
		return "unknown"
	}
}

// ValidateFile checks that the file at path is not empty.
// Decoding problems are left to the loader.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat audio file: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return nil
}

// ValidateSamples checks that samples is a non-empty slice of the wanted
// kind and that every sample lies in [-1, 1]. The checks run in that order:
// empty, type, range. want must be a known kind.
func ValidateSamples(samples any, want Kind) error {
	if want == KindUnknown {
		return fmt.Errorf("%w: no sample kind requested", ErrArrayType)
	}
	if sampleLen(samples) == 0 {
		return ErrEmptyArray
	}
	if kind := kindOf(samples); kind != want {
		return fmt.Errorf("%w: got %s, want %s", ErrArrayType, describeType(samples, kind), want)
	}

	switch s := samples.(type) {
	case []float32:
		return checkRange(s)
	case []float64:
		return checkRange(s)
	case []int16:
		return checkRange(s)
	case []int32:
		return checkRange(s)
	}
	return nil
}

// ValidateFloat32 is the typed form of ValidateSamples for float32 audio.
func ValidateFloat32(samples []float32) error {
	if len(samples) == 0 {
		return ErrEmptyArray
	}
	return checkRange(samples)
}

// sampleLen returns the length of any slice or array, 0 for nil, and 1 for
// any other value so the type check reports it.
func sampleLen(samples any) int {
	if samples == nil {
		return 0
	}
	v := reflect.ValueOf(samples)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len()
	default:
		return 1
	}
}

func kindOf(samples any) Kind {
	switch samples.(type) {
	case []float32:
		return KindFloat32
	case []float64:
		return KindFloat64
	case []int16:
		return KindInt16
	case []int32:
		return KindInt32
	default:
		return KindUnknown
	}
}

func describeType(samples any, kind Kind) string {
	if kind != KindUnknown {
		return kind.String()
	}
	return fmt.Sprintf("%T", samples)
}

func checkRange[T float32 | float64 | int16 | int32](samples []T) error {
	for i, s := range samples {
		// s != s catches NaN.
		if s > 1 || s < -1 || s != s {
			return fmt.Errorf("%w: sample %d is %v", ErrSampleOverflow, i, s)
		}
	}
	return nil
}

package audio

import "errors"

var (
	// ErrEmptyFile is returned when an audio file has zero length.
	ErrEmptyFile = errors.New("audio file is empty")
	// ErrEmptyArray is returned when a sample array has no samples.
	ErrEmptyArray = errors.New("audio array is empty")
	// ErrArrayType is returned when a sample array has the wrong element type.
	ErrArrayType = errors.New("audio array has wrong sample type")
	// ErrSampleOverflow is returned when a sample lies outside [-1, 1].
	ErrSampleOverflow = errors.New("audio sample out of range [-1, 1]")
	// ErrUnsupportedFormat is returned when no decoder handles a file.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

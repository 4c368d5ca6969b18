package transcribe

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrFileNotFound is returned when a request names a missing file.
	ErrFileNotFound = errors.New("audio file not found")
	// ErrInvalidArg is returned for a recognised argument of the wrong type.
	ErrInvalidArg = errors.New("invalid transcription argument")
)

// Request asks for one audio file to be transcribed.
type Request struct {
	AudioFile string
	Args      map[string]any
	Model     string
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithModel selects the model.
func WithModel(name string) RequestOption {
	return func(r *Request) {
		if name != "" {
			r.Model = name
		}
	}
}

// WithArg sets a model argument.
func WithArg(key string, value any) RequestOption {
	return func(r *Request) { r.Args[key] = value }
}

// NewRequest builds and validates a request for audioFile.
func NewRequest(audioFile string, opts ...RequestOption) (Request, error) {
	r := Request{
		AudioFile: audioFile,
		Args:      map[string]any{},
		Model:     DefaultModel,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks that the audio file exists and is a regular file, and that
// the arguments parse.
func (r Request) Validate() error {
	info, err := os.Stat(r.AudioFile)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, r.AudioFile)
	}
	if err != nil {
		return fmt.Errorf("stat audio file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, r.AudioFile)
	}
	_, err = ParseOptions(r.Args)
	return err
}

// ParseOptions reads the recognised keys from a free-form argument map:
// "language" (string), "translate" (bool) and "threads" (int).
// Other keys are ignored.
func ParseOptions(args map[string]any) (Options, error) {
	var o Options
	for key, value := range args {
		switch key {
		case "language":
			s, ok := value.(string)
			if !ok {
				return Options{}, fmt.Errorf("%w: language must be a string, got %T", ErrInvalidArg, value)
			}
			o.Language = s
		case "translate":
			b, ok := value.(bool)
			if !ok {
				return Options{}, fmt.Errorf("%w: translate must be a bool, got %T", ErrInvalidArg, value)
			}
			o.Translate = b
		case "threads":
			n, ok := toInt(value)
			if !ok || n < 0 {
				return Options{}, fmt.Errorf("%w: threads must be a non-negative integer, got %v", ErrInvalidArg, value)
			}
			o.Threads = n
		}
	}
	return o, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

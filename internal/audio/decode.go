package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Decoded is interleaved PCM in [-1, 1] as produced by a Decoder.
type Decoded struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames.
func (d Decoded) Frames() int {
	if d.Channels <= 0 {
		return 0
	}
	return len(d.Samples) / d.Channels
}

// Decoder decodes a complete audio stream.
type Decoder interface {
	Decode(r io.ReadSeeker) (Decoded, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(r io.ReadSeeker) (Decoded, error)

func (f DecoderFunc) Decode(r io.ReadSeeker) (Decoded, error) { return f(r) }

// Registry maps file extensions to decoders.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry knows wav, aiff, mp3 and ogg vorbis.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", DecoderFunc(decodeWAV))
	r.Register("wave", DecoderFunc(decodeWAV))
	r.Register("aif", DecoderFunc(decodeAIFF))
	r.Register("aiff", DecoderFunc(decodeAIFF))
	r.Register("mp3", DecoderFunc(decodeMP3))
	r.Register("ogg", DecoderFunc(decodeVorbis))
	r.Register("oga", DecoderFunc(decodeVorbis))
	return r
}

// Register adds a decoder for the extension (with or without a leading dot).
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[normalizeExt(ext)] = d
}

// Get returns the decoder registered for ext.
func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// ForPath returns the decoder for the file's extension.
func (r *Registry) ForPath(path string) (Decoder, error) {
	ext := filepath.Ext(path)
	d, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return d, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func decodeWAV(r io.ReadSeeker) (Decoded, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Decoded{}, fmt.Errorf("%w: not a valid wav file", ErrUnsupportedFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Decoded{}, fmt.Errorf("decode wav: %w", err)
	}
	return fromIntBuffer(buf, int(dec.BitDepth))
}

func decodeAIFF(r io.ReadSeeker) (Decoded, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return Decoded{}, fmt.Errorf("%w: not a valid aiff file", ErrUnsupportedFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Decoded{}, fmt.Errorf("decode aiff: %w", err)
	}
	return fromIntBuffer(buf, int(dec.BitDepth))
}

func fromIntBuffer(buf *goaudio.IntBuffer, bitDepth int) (Decoded, error) {
	if buf == nil || buf.Format == nil {
		return Decoded{}, fmt.Errorf("%w: missing format", ErrUnsupportedFormat)
	}

	var scale float32
	switch bitDepth {
	case 8:
		scale = 128
	case 16:
		scale = 32768
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	default:
		return Decoded{}, fmt.Errorf("%w: %d-bit pcm", ErrUnsupportedFormat, bitDepth)
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return Decoded{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.ReadSeeker) (Decoded, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("decode mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return Decoded{}, fmt.Errorf("decode mp3: %w", err)
	}

	pcm := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(pcm)*2]), binary.LittleEndian, pcm); err != nil {
		return Decoded{}, fmt.Errorf("decode mp3: %w", err)
	}
	return Decoded{
		Samples:    Int16ToFloat32(pcm),
		SampleRate: dec.SampleRate(),
		Channels:   2,
	}, nil
}

func decodeVorbis(r io.ReadSeeker) (Decoded, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return Decoded{}, fmt.Errorf("decode vorbis: %w", err)
	}
	return Decoded{
		Samples:    samples,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}

package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SaveSegment writes samples as basePath.wav and text as basePath.txt.
// Missing parent directories are created.
func SaveSegment(samples []float32, text, basePath string) error {
	if err := os.MkdirAll(filepath.Dir(basePath), 0755); err != nil {
		return fmt.Errorf("create segment directory: %w", err)
	}

	pcm, err := Float32ToInt16(samples)
	if err != nil {
		return fmt.Errorf("convert segment: %w", err)
	}

	if err := WriteWAV(withExt(basePath, ".wav"), pcm, SampleRate); err != nil {
		return err
	}
	if err := os.WriteFile(withExt(basePath, ".txt"), []byte(text), 0644); err != nil {
		return fmt.Errorf("write segment text: %w", err)
	}
	return nil
}

// WriteWAV writes mono 16-bit PCM to a WAV file.
func WriteWAV(path string, pcm []int16, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close wav file: %w", cerr)
		}
	}()

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// withExt replaces the extension of path, or appends ext when there is none.
func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/whisperlab/internal/transcribe"
)

// DefaultBaseURL is where ggml models are downloaded from.
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// ErrUnknownModel is returned for a model name that cannot be downloaded.
var ErrUnknownModel = errors.New("unknown model")

// modelFile returns the ggml file name for a model.
func modelFile(model string) string {
	return "ggml-" + model + ".bin"
}

// progressWriter logs download progress as bytes pass through it
type progressWriter struct {
	total      int64
	downloaded int64
	lastLog    time.Time
	every      time.Duration
	model      string
	log        zerolog.Logger
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	now := time.Now()
	if now.Sub(pw.lastLog) >= pw.every || pw.downloaded >= pw.total {
		pw.lastLog = now
		pw.log.Info().
			Str("model", pw.model).
			Float64("percent", float64(pw.downloaded)/float64(pw.total)*100).
			Float64("downloaded_mb", float64(pw.downloaded)/1024/1024).
			Float64("total_mb", float64(pw.total)/1024/1024).
			Msg("Downloading model")
	}

	return n, nil
}

// Downloader fetches ggml model files over HTTP.
type Downloader struct {
	BaseURL string
	Client  *http.Client
	Log     zerolog.Logger
}

// Download fetches model into destPath. The file is written to a temporary
// sibling first and renamed once complete.
func (d *Downloader) Download(ctx context.Context, model, destPath string) error {
	if !transcribe.IsKnownModel(model) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	base := d.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := base + "/" + modelFile(model)

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	d.Log.Info().Str("model", model).Str("url", url).Msg("Starting model download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	totalSize := resp.ContentLength
	if totalSize <= 0 {
		d.Log.Warn().Str("model", model).Msg("Content-Length not provided, progress tracking unavailable")
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	var writer io.Writer = out
	if totalSize > 0 {
		writer = io.MultiWriter(out, &progressWriter{
			total:   totalSize,
			model:   model,
			lastLog: time.Now(),
			every:   2 * time.Second,
			log:     d.Log,
		})
	}

	written, err := io.Copy(writer, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move model file: %w", err)
	}

	d.Log.Info().
		Str("model", model).
		Str("path", destPath).
		Float64("size_mb", float64(written)/1024/1024).
		Msg("Model downloaded successfully")

	return nil
}

// TODO: verify SHA256 against the published model checksums

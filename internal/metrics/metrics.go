// Package metrics exposes Prometheus instruments for capture and transcription.
//
// All methods are safe to call on a nil *Metrics, so components can record
// unconditionally.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Window sources.
const (
	SourceMicrophone = "microphone"
	SourceFile       = "file"
)

// Transcription outcomes.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultEmpty   = "empty"
)

// Metrics contains all Prometheus metrics for whisperlab.
type Metrics struct {
	// Capture
	WindowsCaptured  *prometheus.CounterVec
	WindowFetch      prometheus.Histogram
	CaptureOverflows prometheus.Counter

	// Transcription
	Transcriptions        *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram

	// Export
	SegmentsExported prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WindowsCaptured: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whisperlab_windows_captured_total",
			Help: "Total number of audio windows handed out, by source",
		}, []string{"source"}),
		WindowFetch: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisperlab_window_fetch_seconds",
			Help:    "Time spent blocked waiting for a microphone window",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		CaptureOverflows: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisperlab_capture_overflows_total",
			Help: "Total number of input stream overflows",
		}),
		Transcriptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whisperlab_transcriptions_total",
			Help: "Total number of transcriptions, by result",
		}, []string{"result"}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisperlab_transcription_duration_seconds",
			Help:    "Time spent running the speech-to-text model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		SegmentsExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisperlab_segments_exported_total",
			Help: "Total number of audio/text segments written to disk",
		}),
	}
}

func (m *Metrics) WindowCaptured(source string) {
	if m == nil {
		return
	}
	m.WindowsCaptured.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveWindowFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.WindowFetch.Observe(d.Seconds())
}

func (m *Metrics) CaptureOverflow() {
	if m == nil {
		return
	}
	m.CaptureOverflows.Inc()
}

// ObserveTranscription records one model run and its outcome.
func (m *Metrics) ObserveTranscription(d time.Duration, result string) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(result).Inc()
	if result != ResultEmpty {
		m.TranscriptionDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) SegmentExported() {
	if m == nil {
		return
	}
	m.SegmentsExported.Inc()
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

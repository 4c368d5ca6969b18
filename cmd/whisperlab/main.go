package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/petems/whisperlab/internal/config"
	"github.com/petems/whisperlab/internal/logging"
	"github.com/petems/whisperlab/internal/metrics"
	"github.com/petems/whisperlab/internal/transcribe"
	"github.com/petems/whisperlab/internal/whisper"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"log.verbose":          "verbose",
	"log.structured":       "structured",
	"log.file":             "log-file",
	"metrics.addr":         "metrics-addr",
	"audio.device_id":      "device",
	"audio.window_seconds": "window-seconds",
	"audio.export_dir":     "export-dir",
	"whisper.model":        "model",
	"whisper.language":     "language",
	"whisper.threads":      "threads",
	"whisper.translate":    "translate",
}

// state is what every command shares once flags are parsed.
type state struct {
	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
	metrics   *metrics.Metrics
	stop      context.CancelFunc
}

func (r *state) transcriber() *transcribe.Transcriber {
	return transcribe.New(
		whisper.NewLoader(config.ModelsPath(), r.log),
		transcribe.WithLogger(r.log),
		transcribe.WithMetrics(r.metrics),
	)
}

func (r *state) close() {
	if r.stop != nil {
		r.stop()
	}
	if r.logCloser != nil {
		r.logCloser.Close()
	}
}

func newRootCmd(rt *state) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "whisperlab",
		Short:         "Capture, window and transcribe audio with whisper",
		Long:          `whisperlab transcribes audio files and live microphone input with local whisper.cpp models.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd, configPath)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolP("structured", "s", false, "Log JSON instead of console output")
	root.PersistentFlags().StringP("log-file", "l", "", "Also write logs to this file")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.ConfigPath()+")")
	root.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")

	root.AddCommand(
		newTranscribeCmd(rt),
		newListenCmd(rt),
		newReplayCmd(rt),
		newDevicesCmd(rt),
		newVersionCmd(),
	)
	return root
}

func (r *state) setup(cmd *cobra.Command, configPath string) error {
	bind := make(map[string]*pflag.Flag, len(flagKeys))
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			bind[key] = f
		}
	}

	cfg, err := config.Load(configPath, bind)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg

	log, closer, err := logging.New(logging.Options{
		Verbose:    cfg.Log.Verbose,
		Structured: cfg.Log.Structured,
		File:       cfg.Log.File,
	})
	if err != nil {
		return err
	}
	r.log = log
	r.logCloser = closer

	reg := prometheus.NewRegistry()
	r.metrics = metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		ctx, stop := context.WithCancel(cmd.Context())
		r.stop = stop
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, log); err != nil {
				log.Error().Err(err).Msg("Metrics server error")
			}
		}()
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt := &state{}
	if err := newRootCmd(rt).ExecuteContext(ctx); err != nil {
		log := rt.log
		if rt.logCloser == nil {
			log, _, _ = logging.New(logging.Options{})
		}
		rt.close()
		log.Fatal().Err(err).Msg("whisperlab failed")
	}
}

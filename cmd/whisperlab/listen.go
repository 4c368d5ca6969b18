package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petems/whisperlab/internal/app"
	"github.com/petems/whisperlab/internal/capture"
	"github.com/petems/whisperlab/internal/device"
	"github.com/petems/whisperlab/internal/permissions"
	"github.com/petems/whisperlab/internal/transcribe"
)

func newListenCmd(rt *state) *cobra.Command {
	var (
		windows        int
		contextSeconds int
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Transcribe live microphone input window by window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// macOS requires explicit microphone approval before capture works
			if err := permissions.EnsureMicrophone(); err != nil {
				return err
			}

			host, err := device.New(rt.log)
			if err != nil {
				return err
			}
			defer host.Close()

			mic := capture.NewMicrophone(host,
				capture.WithDevice(rt.cfg.Audio.DeviceID),
				capture.WithWindowSeconds(rt.cfg.Audio.WindowSeconds),
				capture.WithLogger(rt.log),
				capture.WithMetrics(rt.metrics),
			)
			if err := mic.Open(); err != nil {
				return err
			}
			defer mic.Close()

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				rt.log.Info().Msg("Shutting down...")
				// Stop only; the deferred Close releases the stream once Get returns.
				if err := mic.Stop(); err != nil {
					rt.log.Error().Err(err).Msg("Failed to stop microphone")
				}
			}()

			stt := rt.transcriber()
			defer stt.Close()

			res, err := runSession(rt, cmd, mic, stt, windows, contextSeconds)
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}

	addWhisperFlags(cmd)
	addSessionFlags(cmd)
	cmd.Flags().IntVar(&windows, "windows", 12, "Number of windows to capture (0 = until interrupted)")
	cmd.Flags().IntVar(&contextSeconds, "context-seconds", 0, "Seconds of previous audio sent with each window")
	cmd.Flags().String("device", "", "Input device name (default device when empty)")
	return cmd
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("window-seconds", capture.DefaultWindowSeconds, "Window length in seconds")
	cmd.Flags().String("export-dir", "", "Write each window's audio and text to this directory")
}

func runSession(rt *state, cmd *cobra.Command, src capture.Source, stt app.Transcriber, windows, contextSeconds int) (app.Result, error) {
	opts, err := transcribe.ParseOptions(rt.cfg.TranscribeArgs())
	if err != nil {
		return app.Result{}, err
	}

	session := app.New(app.Config{
		Source:         src,
		Transcriber:    stt,
		Model:          rt.cfg.Whisper.Model,
		Options:        opts,
		Windows:        windows,
		WindowSeconds:  rt.cfg.Audio.WindowSeconds,
		ContextSeconds: contextSeconds,
		ExportDir:      rt.cfg.Audio.ExportDir,
		Capitalize:     true,
		Logger:         rt.log,
		Metrics:        rt.metrics,
	})
	return session.Run(cmd.Context())
}

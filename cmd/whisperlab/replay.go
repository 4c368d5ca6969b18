package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petems/whisperlab/internal/capture"
)

func newReplayCmd(rt *state) *cobra.Command {
	var contextSeconds int

	cmd := &cobra.Command{
		Use:   "replay AUDIO_FILE",
		Short: "Run a windowed session over an audio file",
		Long:  `Replay an audio file as if it were microphone input, transcribing one window at a time.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := capture.NewVirtualMicrophone(args[0],
				capture.WithWindowSeconds(rt.cfg.Audio.WindowSeconds),
				capture.WithLogger(rt.log),
				capture.WithMetrics(rt.metrics),
			)
			if err != nil {
				return err
			}
			defer src.Close()

			stt := rt.transcriber()
			defer stt.Close()

			res, err := runSession(rt, cmd, src, stt, 0, contextSeconds)
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}

	addWhisperFlags(cmd)
	addSessionFlags(cmd)
	cmd.Flags().IntVar(&contextSeconds, "context-seconds", 0, "Seconds of previous audio sent with each window")
	return cmd
}

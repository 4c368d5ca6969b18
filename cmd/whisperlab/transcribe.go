package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/petems/whisperlab/internal/transcribe"
)

func newTranscribeCmd(rt *state) *cobra.Command {
	var copyText bool

	cmd := &cobra.Command{
		Use:   "transcribe AUDIO_FILE",
		Short: "Transcribe an audio file",
		Long:  `Transcribe a wav, aiff, mp3 or ogg file and print the text.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := transcribe.NewRequest(args[0], transcribe.WithModel(rt.cfg.Whisper.Model))
			if err != nil {
				return err
			}
			for k, v := range rt.cfg.TranscribeArgs() {
				req.Args[k] = v
			}

			stt := rt.transcriber()
			defer stt.Close()

			res, err := stt.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)

			if copyText && res.Text != "" {
				if err := clipboard.WriteAll(res.Text); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				rt.log.Info().Msg("Copied transcription to clipboard")
			}
			return nil
		},
	}

	addWhisperFlags(cmd)
	cmd.Flags().BoolVar(&copyText, "clipboard", false, "Copy the transcription to the clipboard")
	return cmd
}

func addWhisperFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", transcribe.DefaultModel, "Whisper model name")
	cmd.Flags().String("language", "auto", "Spoken language, or auto to detect")
	cmd.Flags().Int("threads", 0, "Threads for whisper (0 = default)")
	cmd.Flags().Bool("translate", false, "Translate to English")
}

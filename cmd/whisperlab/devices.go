package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petems/whisperlab/internal/device"
)

func newDevicesCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := device.New(rt.log)
			if err != nil {
				return err
			}
			defer host.Close()

			devices, err := host.ListDevices()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEFAULT\tNAME\tHOST API\tCHANNELS\tRATE")
			for _, d := range devices {
				mark := ""
				if d.Default {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\n", mark, d.Name, d.HostAPI, d.Channels, d.SampleRate)
			}
			return w.Flush()
		},
	}
}

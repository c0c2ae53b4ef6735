package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carsim/core/dynamics"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in vehicle presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PRESET\tMASS KG\tGEARS\tFINAL DRIVE\tUPSHIFT RPM\tDOWNSHIFT RPM\tREDLINE RPM")
		for _, name := range dynamics.PresetNames() {
			spec, _ := dynamics.Preset(name)
			spec.SetDefaults()
			fmt.Fprintf(w, "%s\t%.0f\t%d\t%.2f\t%.0f\t%.0f\t%.0f\n",
				name,
				spec.Body.Mass,
				len(spec.Transmission.GearRatios),
				spec.Transmission.FinalDrive,
				spec.Transmission.UpshiftRPM,
				spec.Transmission.DownshiftRPM,
				spec.Engine.RedlineRPM,
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ephys/plotdata"
)

func newPlotDataCommand(ctx *commandContext) *cobra.Command {
	var (
		ephysDir string
		clusters []int
	)

	cmd := &cobra.Command{
		Use:   "plotdata <alf_dir>",
		Short: "Print the plot records of a session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if ephysDir == "" {
				ephysDir = args[0]
			}
			s, err := plotdata.LoadSession(args[0], ephysDir, logger)
			if err != nil {
				return err
			}
			if len(clusters) > 0 {
				s.FilterUnits(clusters)
			}
			records, err := s.Records()
			if err != nil {
				return err
			}
			return writeJSON(cmd, records)
		},
	}

	cmd.Flags().StringVar(&ephysDir, "ephys", "", "Folder holding the noise maps (default: alf_dir)")
	cmd.Flags().IntSliceVar(&clusters, "clusters", nil, "Restrict spike plots to these cluster ids")
	return cmd
}

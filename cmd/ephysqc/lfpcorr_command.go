package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ephys/lfpcorr"
)

func newLFPCorrCommand(ctx *commandContext) *cobra.Command {
	var (
		outFlag     string
		maxDuration float64
	)

	cmd := &cobra.Command{
		Use:   "lfpcorr <lf.bin>",
		Short: "Compute the channel correlation of an LF recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-duration") {
				maxDuration = cfg.RMSMap.MaxDuration
			}
			out, err := lfpcorr.Extract(cmd.Context(), args[0], lfpcorr.ExtractOptions{
				OutDir:        ctx.outDir(outFlag),
				MaxDuration:   maxDuration,
				Logger:        logger,
				ReaderOptions: cfg.ReaderOptions(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output directory (default: next to the recording)")
	cmd.Flags().Float64Var(&maxDuration, "max-duration", 0, "Use at most the last this many seconds (0 = all)")
	return cmd
}

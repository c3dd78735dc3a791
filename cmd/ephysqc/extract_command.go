package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ephys/pipeline"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var maxDuration float64

	cmd := &cobra.Command{
		Use:   "extract <ks_dir> <ephys_dir> <out_dir>",
		Short: "Convert a sorting and extract all quality maps of a session",
		Long: "Convert Kilosort output to ALF, then write AP RMS maps, LF RMS and spectral\n" +
			"density maps and the LFP correlation of every probe under ephys_dir.",
		Args: cobra.ExactArgs(3),
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
			rep, err := pipeline.ExtractData(cmd.Context(), args[0], args[1], args[2], pipeline.Options{
				MaxDuration:   maxDuration,
				RMS:           cfg.RMSOptions(),
				Logger:        logger,
				ReaderOptions: cfg.ReaderOptions(),
				NewProgress:   ctx.newProgress,
			})
			if err != nil {
				return err
			}
			for _, f := range rep.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&maxDuration, "max-duration", 0, "Process at most this many seconds of each recording (0 = all)")
	return cmd
}

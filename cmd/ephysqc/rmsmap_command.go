package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ephys/rmsmap"
)

func newRMSMapCommand(ctx *commandContext) *cobra.Command {
	var (
		outFlag     string
		spectraFlag bool
		maxDuration float64
	)

	cmd := &cobra.Command{
		Use:   "rmsmap <bin>...",
		Short: "Compute windowed RMS and spectral density maps",
		Long: "Compute the windowed RMS map and, optionally, the Welch spectral density map\n" +
			"of SpikeGLX AP or LF binaries and write them as ALF npy files.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := cfg.RMSOptions()
			if cmd.Flags().Changed("spectra") {
				opts.Spectra = spectraFlag
			}
			if cmd.Flags().Changed("max-duration") {
				opts.MaxDuration = maxDuration
			}

			for _, path := range args {
				o := opts
				o.Progress = ctx.newProgress(path)
				out, err := rmsmap.Extract(cmd.Context(), path, rmsmap.ExtractOptions{
					OutDir:        ctx.outDir(outFlag),
					Options:       o,
					Logger:        logger,
					ReaderOptions: cfg.ReaderOptions(),
				})
				if err != nil {
					return err
				}
				for _, f := range out.Files() {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output directory (default: next to each recording)")
	cmd.Flags().BoolVar(&spectraFlag, "spectra", true, "Also write the spectral density map")
	cmd.Flags().Float64Var(&maxDuration, "max-duration", 0, "Process at most this many seconds (0 = all)")
	return cmd
}

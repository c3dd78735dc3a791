package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ephys/spikeglx"
	tstats "github.com/cwbudde/algo-ephys/stats/time"
)

const infoBlock = 4096

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var (
		seconds  float64
		channels int
	)

	cmd := &cobra.Command{
		Use:   "info <bin>",
		Short: "Show recording metadata and per-channel amplitude statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			r, err := spikeglx.Open(args[0], cfg.ReaderOptions()...)
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			meta := r.Meta()
			rows := [][]string{
				{"Path", r.Path()},
				{"Band", string(r.Band())},
				{"Probe", meta.TypeThis},
				{"NP2", strconv.FormatBool(meta.IsNP2())},
				{"Sample rate", strconv.FormatFloat(r.SampleRate(), 'f', -1, 64) + " Hz"},
				{"Channels", strconv.Itoa(r.NumChannels())},
				{"Samples", strconv.Itoa(r.NumSamples())},
				{"Duration", fmt.Sprintf("%.3f s", float64(r.NumSamples())/r.SampleRate())},
				{"Memory mapped", strconv.FormatBool(r.Mapped())},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))

			stats, err := channelStats(r, seconds, channels)
			if err != nil {
				return err
			}
			statRows := make([][]string, len(stats))
			for c, s := range stats {
				statRows[c] = []string{
					strconv.Itoa(c),
					fmt.Sprintf("%.2f", s.DC*1e6),
					fmt.Sprintf("%.2f", s.RMS*1e6),
					fmt.Sprintf("%.2f", math.Sqrt(s.Variance)*1e6),
					fmt.Sprintf("%.2f", s.Peak*1e6),
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Channel", "DC (uV)", "RMS (uV)", "Std (uV)", "Peak (uV)"},
				statRows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().Float64Var(&seconds, "seconds", 1, "Seconds from the start used for statistics (0 = all)")
	cmd.Flags().IntVar(&channels, "channels", 0, "Limit the statistics table to the first N channels (0 = all)")
	return cmd
}

// channelStats streams the first seconds of r through one StreamingStats
// per channel.
func channelStats(r *spikeglx.Reader, seconds float64, limit int) ([]tstats.Stats, error) {
	ns := r.NumSamples()
	if seconds > 0 {
		ns = min(ns, int(seconds*r.SampleRate()))
	}
	nc := r.NumChannels()
	if limit > 0 {
		nc = min(nc, limit)
	}
	acc := make([]*tstats.StreamingStats, nc)
	for c := range acc {
		acc[c] = tstats.NewStreamingStats()
	}
	for first := 0; first < ns; first += infoBlock {
		block, err := r.ReadSamples(first, min(first+infoBlock, ns))
		if err != nil {
			return nil, err
		}
		for c := range acc {
			acc[c].Update(block[c])
		}
	}
	out := make([]tstats.Stats, nc)
	for c := range acc {
		out[c] = acc[c].Result()
	}
	return out, nil
}

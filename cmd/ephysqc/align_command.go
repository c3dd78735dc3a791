package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-ephys/alignment"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var (
		shank      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "align <probe_dir>",
		Short: "List saved probe alignments and session notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := alignment.Store{Dir: args[0], Shank: shank}
			keys, err := store.PreviousAlignments()
			if err != nil {
				return err
			}
			notes, err := store.SessionNotes()
			if err != nil {
				return err
			}
			all, err := store.Alignments()
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"alignments": keys,
					"notes":      notes,
				})
			}

			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				points := "-"
				if a, ok := all[k]; ok {
					points = fmt.Sprint(len(a.Feature))
				}
				rows = append(rows, []string{k, points})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Alignment", "Reference lines"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(out, notes)
			return nil
		},
	}

	cmd.Flags().IntVar(&shank, "shank", 0, "Shank number, 1-based, for multi-shank probes (0 = single shank)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

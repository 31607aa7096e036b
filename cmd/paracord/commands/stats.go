package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

const percentageValue = 100

// NewStatsCommand creates the stats subcommand.
func NewStatsCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "stats [files...]",
		Short: "Print interner statistics for a set of inputs",
		Long: `Intern every line of the given files (or stdin) and print entry counts,
memory footprint and lookup hit rate. With --from and no files, only the
snapshot is inspected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}

			defer env.close(cmd.Context())

			strs, err := env.newInterner(from)
			if err != nil {
				return err
			}

			var lines int64

			if from == "" || len(args) > 0 {
				lines, err = ingest(cmd.Context(), strs, args, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			renderStats(cmd.OutOrStdout(), lines, strs.Stats())

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "restore this snapshot first")

	return cmd
}

func renderStats(w io.Writer, lines int64, stats paracord.Stats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	tw.AppendRows([]table.Row{
		{"Lines read", humanize.Comma(lines)},
		{"Unique values", humanize.Comma(int64(stats.Entries))},
		{"Shards", stats.Shards},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Index", humanize.IBytes(uint64(stats.IndexBytes))},
		{"Arena", humanize.IBytes(uint64(stats.ArenaBytes))},
		{"Key store", humanize.IBytes(uint64(stats.StoreBytes))},
	})
	tw.AppendFooter(table.Row{"Total", humanize.IBytes(uint64(stats.MemoryBytes()))})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Hits", humanize.Comma(stats.Hits)},
		{"Misses", humanize.Comma(stats.Misses)},
		{"Hit rate", fmt.Sprintf("%.1f%%", stats.HitRate()*percentageValue)},
	})

	tw.Render()
}

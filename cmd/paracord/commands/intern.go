package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

type internOptions struct {
	format   string
	from     string
	snapshot string
	summary  bool
}

// NewInternCommand creates the intern subcommand.
func NewInternCommand() *cobra.Command {
	opts := internOptions{}

	cmd := &cobra.Command{
		Use:   "intern [files...]",
		Short: "Intern newline-separated values and print their keys",
		Long: `Intern every line of the given files (or stdin, or "-") and print each
unique value with its key, in key order. Files are read concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntern(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatText, "output format: text, json, yaml or msgpack")
	cmd.Flags().StringVar(&opts.from, "from", "", "restore this snapshot before interning")
	cmd.Flags().StringVarP(&opts.snapshot, "snapshot", "o", "", "write a snapshot of the interner to this file")
	cmd.Flags().BoolVarP(&opts.summary, "summary", "s", false, "print only a summary line")

	return cmd
}

func runIntern(cmd *cobra.Command, args []string, opts internOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	env, err := setup(cmd, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer env.close(cmd.Context())

	strs, err := env.newInterner(opts.from)
	if err != nil {
		return err
	}

	lines, err := ingest(cmd.Context(), strs, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	env.logger.DebugContext(cmd.Context(), "ingest finished", "lines", lines, "entries", strs.Len())

	if opts.snapshot != "" {
		if _, err := saveSnapshot(opts.snapshot, strs); err != nil {
			return err
		}
	}

	if opts.summary {
		return writeSummary(cmd.OutOrStdout(), lines, strs)
	}

	return writeEntries(cmd.OutOrStdout(), opts.format, strs)
}

func writeSummary(w io.Writer, lines int64, strs *paracord.Strings) error {
	stats := strs.Stats()

	_, err := fmt.Fprintf(w, "%s lines, %s unique values, %s\n",
		humanize.Comma(lines),
		color.New(color.FgGreen).Sprint(humanize.Comma(int64(stats.Entries))),
		humanize.IBytes(uint64(stats.MemoryBytes())),
	)
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

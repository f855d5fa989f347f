package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kdvd/internal/disc"
	"kdvd/internal/history"
)

type inspectOutput struct {
	*disc.Report
	Recorded *history.Entry `json:"recorded,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var record bool

	cmd := &cobra.Command{
		Use:   "inspect [root]",
		Short: "Catalogue the streams of a mounted 8KDVD disc",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := ctx.resolveRoot(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report, err := disc.Inspect(cmd.Context(), root, disc.ContainerOptions(cfg, ctx.logger()))
			if err != nil {
				return err
			}

			out := inspectOutput{Report: report}
			if record {
				err := ctx.withHistory(func(store *history.Store) error {
					entry, err := store.Record(cmd.Context(), report)
					out.Recorded = entry
					return err
				})
				if err != nil {
					return fmt.Errorf("record scan: %w", err)
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}
			return printReport(cmd, report, out.Recorded)
		},
	}

	cmd.Flags().BoolVar(&record, "record", false, "Record the scan in the history database")
	return cmd
}

func printReport(cmd *cobra.Command, report *disc.Report, recorded *history.Entry) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, heading(w, "Disc "+report.Root))
	fmt.Fprintf(w, "Fingerprint: %s\n", report.Fingerprint)
	fmt.Fprintf(w, "Session:     %s\n", report.SessionID)
	fmt.Fprintf(w, "Streams:     %s\n", summaryLine(report.Summary))
	if len(report.Streams) > 0 {
		fmt.Fprintln(w, streamTable(report.Streams))
	}
	if recorded != nil {
		fmt.Fprintf(w, "Recorded in history (scan #%d)\n", recorded.ScanCount)
	}
	return nil
}

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"kdvd/internal/daemon"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show kdvdd daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			var status daemon.Status
			if err := client.do(cmd.Context(), http.MethodGet, "/api/status", &status); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func newDetectionCommand(ctx *commandContext) *cobra.Command {
	detectionCmd := &cobra.Command{
		Use:   "detection",
		Short: "Control automatic disc detection in kdvdd",
	}
	for _, action := range []struct{ use, short string }{
		{"pause", "Ignore disc insertions until resumed"},
		{"resume", "Catalogue inserted discs again"},
	} {
		path := "/api/detection/" + action.use
		detectionCmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := ctx.apiClient()
				if err != nil {
					return err
				}
				var status daemon.Status
				if err := client.do(cmd.Context(), http.MethodPost, path, &status); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Detection paused: %s\n", yesNo(status.Paused))
				return nil
			},
		})
	}
	return detectionCmd
}

func printStatus(cmd *cobra.Command, status daemon.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, heading(out, "kdvdd"))
	fmt.Fprintf(out, "Running:        %s (pid %d)\n", yesNo(status.Running), status.PID)
	fmt.Fprintf(out, "Drive watcher:  %s\n", yesNo(status.WatcherRunning))
	detection := "active"
	if status.Paused {
		detection = "paused"
	}
	fmt.Fprintf(out, "Detection:      %s\n", detection)
	fmt.Fprintf(out, "Optical drive:  %s\n", dash(status.OpticalDrive))
	fmt.Fprintf(out, "History:        %s (%d discs)\n", status.HistoryPath, status.Discs)
	for _, dep := range status.Dependencies {
		state := "ok"
		if !dep.Available {
			state = dep.Detail
		}
		fmt.Fprintf(out, "Dependency:     %-8s %s\n", dep.Name, state)
	}
	if last := status.LastDisc; last != nil {
		fmt.Fprintf(out, "Last disc:      %s %s (%d/%d available)\n", shortFingerprint(last.Fingerprint), dash(last.Label), last.AvailableCount, last.StreamCount)
	}
}

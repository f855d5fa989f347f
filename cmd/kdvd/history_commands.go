package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kdvd/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and maintain the disc scan history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogued discs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if entries == nil {
						entries = []*history.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No discs catalogued yet")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						shortFingerprint(e.Fingerprint),
						dash(e.Label),
						e.Root,
						fmt.Sprintf("%d/%d", e.AvailableCount, e.StreamCount),
						strconv.Itoa(e.ScanCount),
						formatTime(e.ScannedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Fingerprint", "Label", "Root", "Available", "Scans", "Last Scan"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <fingerprint>",
		Short: "Show the recorded catalogue of one disc",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				entry, err := resolveEntry(cmd, store, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, entry)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, heading(out, "Disc "+entry.Fingerprint))
				fmt.Fprintf(out, "Label:       %s\n", dash(entry.Label))
				fmt.Fprintf(out, "Root:        %s\n", entry.Root)
				fmt.Fprintf(out, "Scans:       %d (first %s, last %s)\n", entry.ScanCount, formatTime(entry.FirstSeenAt), formatTime(entry.ScannedAt))
				fmt.Fprintf(out, "Available:   %d/%d\n", entry.AvailableCount, entry.StreamCount)
				if len(entry.Streams) > 0 {
					fmt.Fprintln(out, streamTable(entry.Streams))
				}
				return nil
			})
		},
	}
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <fingerprint>...",
		Short: "Remove discs from the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					entry, err := resolveEntry(cmd, store, arg)
					if err != nil {
						return err
					}
					if _, err := store.Remove(cmd.Context(), entry.Fingerprint); err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %s\n", entry.Fingerprint)
				}
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every disc from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d disc(s)\n", n)
				return nil
			})
		},
	}
}

// resolveEntry accepts a full fingerprint or an unambiguous prefix as shown
// by history list.
func resolveEntry(cmd *cobra.Command, store *history.Store, value string) (*history.Entry, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("fingerprint is required")
	}
	entry, err := store.Get(cmd.Context(), value)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	entries, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	var match *history.Entry
	for _, e := range entries {
		if !strings.HasPrefix(e.Fingerprint, value) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("fingerprint prefix %q is ambiguous", value)
		}
		match = e
	}
	if match == nil {
		return nil, fmt.Errorf("disc %s not found in history", value)
	}
	return store.Get(cmd.Context(), match.Fingerprint)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kdvd/internal/disc"
)

// ejector is swapped in tests.
var ejector = disc.NewEjector()

func newEjectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eject [device]",
		Short: "Eject the disc from the configured optical drive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			device := cfg.Daemon.OpticalDrive
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				device = strings.TrimSpace(args[0])
			}
			if err := ejector.Eject(cmd.Context(), device); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ejected %s\n", dash(device))
			return nil
		},
	}
}

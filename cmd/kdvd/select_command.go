package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kdvd/internal/container"
	"kdvd/internal/disc"
	"kdvd/internal/stream"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <format> [root]",
		Short: "Resolve the first available stream of a tier (8k, 4k, hd, 3d)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := stream.ParseFormat(args[0])
			if err != nil {
				return err
			}
			root, err := ctx.resolveRoot(args[1:])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			c, err := container.Open(cmd.Context(), root, disc.ContainerOptions(cfg, ctx.logger()))
			if err != nil {
				return err
			}
			defer c.Close()

			handle, err := c.Select(format)
			if err != nil {
				if container.IsUnavailable(err) {
					return fmt.Errorf("no available %s stream on %s", format, c.Root())
				}
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, handle)
			}
			fmt.Fprintln(cmd.OutOrStdout(), handle.Path)
			return nil
		},
	}
}

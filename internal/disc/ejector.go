package disc

import (
	"context"
	"fmt"
	"os/exec"
)

// Ejector releases a disc from its drive.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

type commandEjector struct{}

// NewEjector creates an ejector that shells out to the eject utility.
func NewEjector() Ejector {
	return commandEjector{}
}

func (commandEjector) Eject(ctx context.Context, device string) error {
	args := []string{}
	if device != "" {
		args = append(args, device)
	}
	if err := exec.CommandContext(ctx, "eject", args...).Run(); err != nil {
		return fmt.Errorf("eject %s: %w", device, err)
	}
	return nil
}

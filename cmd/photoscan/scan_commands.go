package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"photoscan/internal/api"
	"photoscan/internal/client"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Start a background scan of a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			return ctx.withClient(func(cl *client.Client) error {
				accepted, err := cl.StartScan(cmd.Context(), directory, force)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scan started (job %s)\n", accepted.JobID)
				fmt.Fprintf(out, "  directory: %s\n", directory)
				fmt.Fprintf(out, "  force:     %s\n", yesNo(force))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-enrich files already on record under this directory")
	return cmd
}

func newScanControlCommands(ctx *commandContext) []*cobra.Command {
	controls := []struct {
		use    string
		short  string
		action string
	}{
		{"pause", "Pause the running scan at the next file boundary", api.ActionPause},
		{"resume", "Resume a paused scan", api.ActionResume},
		{"cancel", "Cancel the running scan after the in-flight file", api.ActionCancel},
	}

	cmds := make([]*cobra.Command, 0, len(controls))
	for _, control := range controls {
		action := control.action
		cmds = append(cmds, &cobra.Command{
			Use:   control.use,
			Short: control.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(func(cl *client.Client) error {
					status, err := cl.Control(cmd.Context(), action)
					if err != nil {
						return err
					}
					printScanStatus(cmd.OutOrStdout(), status)
					return nil
				})
			},
		})
	}
	return cmds
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photoscan/internal/client"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every directory scanned and when",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.History(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.History) == 0 {
					fmt.Fprintln(out, "No scans recorded yet.")
					return nil
				}
				rows := make([][]string, 0, len(resp.History))
				for _, entry := range resp.History {
					rows = append(rows, []string{
						entry.DirectoryPath,
						entry.LastScannedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Directory", "Last Scanned"}, rows, nil))
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"photoscan/internal/client"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "List byte-identical copies grouped by their original photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.Duplicates(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Duplicates) == 0 {
					fmt.Fprintln(out, "No duplicates on record.")
					return nil
				}
				for _, group := range resp.Duplicates {
					fmt.Fprintf(out, "Original %s (photo %d)\n", group.OriginalFilepath, group.OriginalPhotoID)
					rows := make([][]string, 0, len(group.Copies))
					for _, dup := range group.Copies {
						rows = append(rows, []string{
							dup.Filepath,
							strconv.FormatInt(dup.FileSize, 10),
							dup.ScannedAt.Local().Format("2006-01-02 15:04:05"),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Copy", "Bytes", "Seen"},
						rows,
						rightAligned{1},
					))
				}
				return nil
			})
		},
	}
}

func newSkippedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skipped",
		Short: "List files excluded from the gallery and why",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.Skipped(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Skipped) == 0 {
					fmt.Fprintln(out, "No skipped files on record.")
					return nil
				}
				rows := make([][]string, 0, len(resp.Skipped))
				for _, item := range resp.Skipped {
					rows = append(rows, []string{
						item.Filepath,
						item.Reason,
						strconv.FormatInt(item.FileSize, 10),
						item.ScannedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Reason", "Bytes", "Seen"},
					rows,
					rightAligned{2},
				))
				return nil
			})
		},
	}
}

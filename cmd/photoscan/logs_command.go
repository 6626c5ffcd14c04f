package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photoscan/internal/api"
	"photoscan/internal/client"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.Logs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(out, "No log lines buffered.")
					return nil
				}
				for _, event := range resp.Events {
					fmt.Fprintln(out, formatLogEvent(event))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of lines to fetch")
	return cmd
}

func formatLogEvent(event api.LogEvent) string {
	var b strings.Builder
	b.WriteString(event.Timestamp.Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(strings.ToUpper(event.Level))
	if event.Component != "" {
		b.WriteString(" [")
		b.WriteString(event.Component)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(event.Message)
	if event.Path != "" {
		b.WriteString(" path=")
		b.WriteString(event.Path)
	}
	if event.ScanID != "" {
		b.WriteString(" scan=")
		b.WriteString(event.ScanID)
	}
	for key, value := range event.Fields {
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(value)
	}
	return b.String()
}

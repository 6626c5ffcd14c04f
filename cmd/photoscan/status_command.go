package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"photoscan/internal/api"
	"photoscan/internal/client"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and scan status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cl *client.Client) error {
				status, err := cl.DaemonStatus(cmd.Context())
				if err != nil {
					return err
				}
				printDaemonStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func printDaemonStatus(out io.Writer, status api.DaemonStatus) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, sectionHeader("Daemon", colorize))
	fmt.Fprintf(out, "  running:   %s\n", yesNo(status.Running))
	fmt.Fprintf(out, "  pid:       %d\n", status.PID)
	fmt.Fprintf(out, "  database:  %s\n", status.DatabasePath)
	fmt.Fprintf(out, "  lock file: %s\n", status.LockFilePath)
	fmt.Fprintln(out)
	printScanStatus(out, status.Scan)
}

func printScanStatus(out io.Writer, status api.ScanStatus) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, sectionHeader("Scan", colorize))
	fmt.Fprintf(out, "  state:     %s\n", colorState(status.State, colorize))
	if status.JobID != "" {
		fmt.Fprintf(out, "  job:       %s\n", status.JobID)
	}
	if status.Directory != "" {
		fmt.Fprintf(out, "  directory: %s\n", status.Directory)
		fmt.Fprintf(out, "  force:     %s\n", yesNo(status.Force))
	}
	fmt.Fprintf(out, "  progress:  %s\n", progressLine(status))
}

func progressLine(status api.ScanStatus) string {
	if status.Total == 0 {
		return "no files discovered"
	}
	return strconv.Itoa(status.Processed) + "/" + strconv.Itoa(status.Total) +
		" processed, " + strconv.Itoa(status.Pending) + " pending"
}

func colorState(state string, colorize bool) string {
	if !colorize {
		return state
	}
	switch state {
	case "running":
		return ansiGreen + state + ansiReset
	case "paused", "cancelling":
		return ansiYellow + state + ansiReset
	default:
		return state
	}
}

func sectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		line = ansiBlue + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

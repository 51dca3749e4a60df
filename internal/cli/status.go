package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	pid, running := readPID(getPIDFilePath())
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	fmt.Fprintf(out, "Daemon is running (PID %d)\n", pid)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harun/temu/internal/config"
	"github.com/harun/temu/internal/daemon"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Temu daemon",
	Long: `Run the Temu daemon in the foreground. The daemon serves the
gateway (when enabled), keeps the contact cache warm, and sweeps stale
pending actions.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	pidFile := getPIDFilePath()
	if pid, running := readPID(pidFile); running {
		return fmt.Errorf("daemon is already running (PID %d)", pid)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg.Logging.Level = logLevel

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	if err := writePID(pidFile); err != nil {
		return err
	}
	defer os.Remove(pidFile)

	return d.Run(context.Background())
}

func getPIDFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/temu.pid"
	}
	return filepath.Join(home, ".temu", "temu.pid")
}

func writePID(pidFile string) error {
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}
	return os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// readPID returns the recorded PID and whether that process is alive.
func readPID(pidFile string) (int, bool) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, false
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	// On Unix FindProcess always succeeds; probe with signal 0.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return pid, false
	}
	return pid, true
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/temu/internal/config"
	"github.com/harun/temu/internal/daemon"
	"github.com/harun/temu/pkg/session"
)

var bookCmd = &cobra.Command{
	Use:   "book [prompt]",
	Short: "Process a single booking prompt",
	Long: `Process one natural language booking prompt and print the result.

Example:
  temu book "book a meeting with John tomorrow"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBook,
}

func init() {
	rootCmd.AddCommand(bookCmd)
}

func runBook(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg.Logging.Level = logLevel
	cfg.Gateway.Enabled = false

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	defer d.Stop()

	key, err := session.NewKey()
	if err != nil {
		return err
	}

	resp, err := d.Hub().Get(key).ProcessUserPrompt(context.Background(), prompt, cfg.User.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	return nil
}

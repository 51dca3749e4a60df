package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/temu/internal/config"
	"github.com/harun/temu/internal/daemon"
	"github.com/harun/temu/pkg/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive booking conversation",
	Long: `Start an interactive conversation. All prompts share one session,
so a follow-up like "try 2025-06-12" can resume a request that asked
for a date. Type "exit" to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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
	a := d.Hub().Get(key)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Temu ready. Type a booking request, or \"exit\" to leave.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "exit" || prompt == "quit" {
			break
		}

		resp, err := a.ProcessUserPrompt(context.Background(), prompt, cfg.User.ID)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, resp.Message)
	}

	return scanner.Err()
}

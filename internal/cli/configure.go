package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/temu/internal/config"
)

var configureFlags struct {
	userID         string
	provider       string
	apiKey         string
	model          string
	googleClientID string
	googleSecret   string
	calendarID     string
	gatewayPort    int
	gatewaySecret  string
	enableGateway  bool
	show           bool
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Create or update the Temu configuration",
	Long: `Create or update $HOME/.temu/temu.json. Only the flags you pass are
changed; everything else keeps its current value.`,
	RunE: runConfigure,
}

func init() {
	f := configureCmd.Flags()
	f.StringVar(&configureFlags.userID, "user", "", "primary user ID")
	f.StringVar(&configureFlags.provider, "provider", "", "LLM provider (anthropic, openai)")
	f.StringVar(&configureFlags.apiKey, "api-key", "", "LLM API key")
	f.StringVar(&configureFlags.model, "model", "", "LLM model name")
	f.StringVar(&configureFlags.googleClientID, "google-client-id", "", "Google OAuth client ID")
	f.StringVar(&configureFlags.googleSecret, "google-client-secret", "", "Google OAuth client secret")
	f.StringVar(&configureFlags.calendarID, "calendar-id", "", "Google calendar ID")
	f.IntVar(&configureFlags.gatewayPort, "gateway-port", 0, "gateway port")
	f.StringVar(&configureFlags.gatewaySecret, "gateway-secret", "", "gateway shared secret")
	f.BoolVar(&configureFlags.enableGateway, "enable-gateway", false, "enable the gateway server")
	f.BoolVar(&configureFlags.show, "show", false, "print the resulting configuration")

	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	if configureFlags.userID != "" {
		cfg.User.ID = configureFlags.userID
	}
	if configureFlags.provider != "" || configureFlags.apiKey != "" {
		if configureFlags.provider == "" || configureFlags.apiKey == "" {
			return fmt.Errorf("--provider and --api-key must be set together")
		}
		cfg.AI.Profiles = []config.AIProfile{{
			ID:       "default",
			Provider: configureFlags.provider,
			APIKey:   configureFlags.apiKey,
			Model:    configureFlags.model,
		}}
	}
	if configureFlags.googleClientID != "" {
		cfg.Google.ClientID = configureFlags.googleClientID
	}
	if configureFlags.googleSecret != "" {
		cfg.Google.ClientSecret = configureFlags.googleSecret
	}
	if configureFlags.calendarID != "" {
		cfg.Google.CalendarID = configureFlags.calendarID
	}
	if configureFlags.gatewayPort != 0 {
		cfg.Gateway.Port = configureFlags.gatewayPort
	}
	if configureFlags.gatewaySecret != "" {
		cfg.Gateway.SharedSecret = configureFlags.gatewaySecret
	}
	if cmd.Flags().Changed("enable-gateway") {
		cfg.Gateway.Enabled = configureFlags.enableGateway
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := loader.Save(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration written to %s\n", loader.GetConfigPath())
	if configureFlags.show {
		fmt.Fprintln(out, cfg.String())
	}
	return nil
}

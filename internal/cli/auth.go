package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/temu/internal/config"
	"github.com/harun/temu/internal/google"
)

var authCode string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to Google Contacts and Calendar",
	Long: `Authorize Temu against the Google APIs. Without --code this prints
the authorization URL; visit it, approve access, then run again with
the code Google shows you:

  temu auth --code 4/0AX4...`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().StringVar(&authCode, "code", "", "authorization code from Google")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		return fmt.Errorf("google client_id and client_secret must be configured first (temu configure)")
	}

	creds := google.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
	}
	out := cmd.OutOrStdout()

	if authCode == "" {
		if google.HasToken() {
			fmt.Fprintln(out, "A Google token is already cached; continuing will replace it.")
		}
		fmt.Fprintln(out, "Visit the URL below, approve access, then rerun with --code:")
		fmt.Fprintln(out, google.AuthURL(creds))
		return nil
	}

	if err := google.SaveToken(context.Background(), creds, authCode); err != nil {
		return err
	}
	fmt.Fprintln(out, "Google authorization complete.")
	return nil
}

package cli

import (
	"fmt"

	"github.com/lu-zhengda/topsenders/internal/browser"
	"github.com/lu-zhengda/topsenders/internal/provider/gmail"
	"github.com/lu-zhengda/topsenders/internal/store"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Gmail authorization",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize topsenders to read and modify Gmail labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := resolveGmailCredentials(cfg); err != nil {
				return err
			}

			p := gmail.New(store.NewKeyringTokenStore())

			var open func(string) error
			if !noBrowser {
				open = browser.New().OpenURL
			}

			ctx := cmd.Context()
			fmt.Fprintln(cmd.OutOrStdout(), "Starting Gmail OAuth flow...")
			if err := p.Authenticate(ctx, open); err != nil {
				return fmt.Errorf("failed to authenticate: %w", err)
			}

			email, err := p.GetProfile(ctx)
			if err != nil {
				return fmt.Errorf("failed to get profile email: %w", err)
			}

			if jsonFlag {
				return fprintJSON(cmd.OutOrStdout(), jsonAction{OK: true, Action: "login", Email: email})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authorized as %s\n", email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the authorization URL instead of opening it")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved Gmail token from the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.NewKeyringTokenStore().DeleteToken(); err != nil {
				return err
			}
			if jsonFlag {
				return fprintJSON(cmd.OutOrStdout(), jsonAction{OK: true, Action: "logout"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newAuthCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored OAuth credential",
	}
	cmd.AddCommand(
		newAuthLoginCommand(st),
		newAuthStatusCommand(st),
		newAuthLogoutCommand(st),
	)
	return cmd
}

func newAuthLoginCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize in the browser and store the credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st.cfg.NonInteractive = false
			manager, err := st.credentialManager()
			if err != nil {
				return err
			}
			session, err := manager.Login(cmd.Context())
			if err != nil {
				return err
			}
			cred := session.Credential()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Authenticated. Token expires at %s\n", formatExpiry(cred.Expiry))
			return nil
		},
	}
}

func newAuthStatusCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := st.credentialManager()
			if err != nil {
				return err
			}
			status, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !status.Stored {
				_, _ = fmt.Fprintln(out, "Not authenticated. Run 'mailshot auth login'.")
				return nil
			}

			validity := "expired"
			if status.Valid {
				validity = "valid"
			}
			_, _ = fmt.Fprintf(out, "Access token: %s, expires at %s\n", validity, formatExpiry(status.Expiry))
			_, _ = fmt.Fprintf(out, "Refresh token: %s\n", yesNo(status.Refreshable))
			if len(status.Scopes) > 0 {
				_, _ = fmt.Fprintf(out, "Scopes: %s\n", strings.Join(status.Scopes, " "))
			}
			if !status.ScopesOK {
				_, _ = fmt.Fprintln(out, "The credential lacks required scopes; the next send will ask for authorization again.")
			}
			return nil
		},
	}
}

func newAuthLogoutCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := st.credentialManager()
			if err != nil {
				return err
			}
			if err := manager.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

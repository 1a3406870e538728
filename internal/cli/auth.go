package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fjglira/uitestkit/internal/api"
	"github.com/fjglira/uitestkit/internal/credentials"
	"github.com/fjglira/uitestkit/internal/ui"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend and store the session",
		Long: `Exchanges a username and password for an access token and stores it in
credentials.json under the credentials directory. Missing values are read
from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username == "" {
				if username, err = prompt(cmd, in, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd, in, "Password: "); err != nil {
					return err
				}
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			client, store, err := a.client()
			if err != nil {
				return err
			}
			tok, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				if api.StatusCode(err) == 401 {
					return fmt.Errorf("login failed: incorrect username or password")
				}
				return fmt.Errorf("login failed: %w", err)
			}

			creds := &credentials.Credentials{
				APIURL:      client.BaseURL(),
				AccessToken: tok.AccessToken,
				TokenType:   tok.TokenType,
				Username:    username,
			}
			if err := store.Save(creds); err != nil {
				return err
			}
			// the client reads the token from the store
			if me, err := client.Me(cmd.Context()); err != nil {
				a.log.WithError(err).Warn("Could not load the user profile")
			} else {
				creds.Username = me.Username
				creds.UserID = me.ID
				if err := store.Save(creds); err != nil {
					return err
				}
			}
			a.log.Debugf("Credentials written to %s", store.Path())
			out(cmd, "%s\n", ui.Success(fmt.Sprintf("Logged in to %s as %s", creds.APIURL, creds.Username)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	out(cmd, "%s", label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store, err := a.client()
			if err != nil {
				return err
			}
			if store.Token() == "" {
				out(cmd, "Not logged in.\n")
				return nil
			}
			if err := client.Logout(cmd.Context()); err != nil {
				// the local session is dropped regardless
				a.log.WithError(err).Warn("Backend logout failed")
			}
			if err := store.Clear(); err != nil {
				return err
			}
			out(cmd, "%s\n", ui.Success("Logged out"))
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store, err := a.client()
			if err != nil {
				return err
			}
			if store.Token() == "" {
				return fmt.Errorf("not logged in\n\n→ Run 'uitestkit login' first")
			}
			me, err := client.Me(cmd.Context())
			if err != nil {
				return authError(err)
			}
			out(cmd, "%s (id %d, %s) on %s\n", me.Username, me.ID, me.Email, client.BaseURL())
			return nil
		},
	}
}

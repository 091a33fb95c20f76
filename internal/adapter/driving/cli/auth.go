package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

var credentialLabels = map[string]string{
	model.CredentialKeyAPIKey:            "API key",
	model.CredentialKeyRunAsPassword:     "Run-as password",
	model.CredentialKeyOAuthClientSecret: "OAuth client secret",
}

func (h *Handler) authCommand(out *output) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authenticate and show the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				sess, err := v.Authenticate(cmd.Context())
				if err != nil {
					return err
				}
				if out.json {
					return writeJSON(cmd.OutOrStdout(), toSessionResponse(sess))
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Authenticated: %s\n", sess)
				return err
			})
		},
	}
}

func (h *Handler) signOutCommand() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "signout",
		Short: "End the vault session",
		Long: `signout authenticates and immediately ends the session on the vault, which
also releases the app session of the OAuth flow. With --forget the credentials
stored by "pwsafe login" are removed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := h.withVault(cmd.Context(), func(v Vault) error {
				if _, err := v.Authenticate(cmd.Context()); err != nil {
					return err
				}
				return v.SignOut(cmd.Context())
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Signed out")

			if !forget {
				return nil
			}
			for key := range credentialLabels {
				if err := h.credentials.Delete(cmd.Context(), h.profile, key); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Stored credentials removed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "Also remove credentials stored with login")
	return cmd
}

func (h *Handler) loginCommand() *cobra.Command {
	var (
		key       string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a vault credential encrypted in the local database",
		Long: `login stores one connection credential encrypted with PWSAFE_SECRET_KEY.
Stored values take priority over the matching environment variables.

Keys: api_key (default), run_as_password, oauth_client_secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			label, ok := credentialLabels[key]
			if !ok {
				return model.InvalidArgumentf("unknown credential key %q", key)
			}

			var (
				value string
				err   error
			)
			if fromStdin {
				value, err = readLine(cmd.InOrStdin())
			} else {
				value, err = h.prompt(label)
			}
			if err != nil {
				return err
			}
			if value == "" {
				return model.InvalidArgumentf("%s must not be empty", strings.ToLower(label))
			}

			if err := h.credentials.Set(cmd.Context(), h.profile, key, value); err != nil {
				return err
			}
			h.logger.Info("credential stored", "profile", h.profile, "key", key)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s stored\n", label)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", model.CredentialKeyAPIKey, "Credential to store")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the value from standard input instead of prompting")
	return cmd
}

// readLine returns the first line of r without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// terminalPrompt reads from the terminal with echo disabled.
func terminalPrompt(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", model.InvalidArgumentf("no terminal available for interactive prompt (use --stdin)")
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(value), nil
}

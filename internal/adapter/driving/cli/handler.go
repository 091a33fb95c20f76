// Package cli is the command-line driving adapter. It translates cobra
// commands into vault client calls and renders the results as text tables
// or JSON.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pwsafe/internal/application"
	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// Vault is the subset of the vault client the commands drive.
type Vault interface {
	Authenticate(ctx context.Context) (*model.Session, error)
	SignOut(ctx context.Context) error
	GetManagedSystems(ctx context.Context, systemID int64) ([]model.ManagedSystem, error)
	GetManagedAccounts(ctx context.Context, systemID int64, accountName string) ([]model.ManagedAccount, error)
	GetManagedAccountByID(ctx context.Context, accountID int64) (*model.ManagedAccount, error)
	GetManagedAccountByName(ctx context.Context, lookup model.AccountLookup) (*model.ManagedAccount, error)
	GetManagedAccountPasswordByID(ctx context.Context, accountID int64) (*model.ManagedPassword, error)
	GetManagedAccountPasswordByName(ctx context.Context, lookup model.AccountLookup) (*model.ManagedPassword, error)
	GetManagedAccountPasswordByRequestID(ctx context.Context, requestID string) (*model.ManagedPassword, error)
	CheckInPassword(ctx context.Context, requestID, reason string) error
	GetSecretByID(ctx context.Context, id string) (*model.Secret, error)
	GetSecretByTitle(ctx context.Context, title string) (*model.Secret, error)
	Close() error
}

// Connector builds a Vault client. It runs only for commands that talk to
// the vault, so local commands work without a complete configuration.
type Connector func(ctx context.Context) (Vault, error)

// Prompter reads a secret from the user without echoing it.
type Prompter func(label string) (string, error)

// Handler is the CLI driving adapter.
type Handler struct {
	connect     Connector
	ledger      *application.Ledger
	credentials driven.CredentialStore
	profile     string
	prompt      Prompter
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. profile is
// the credential-store service name stored credentials are kept under.
func NewHandler(
	connect Connector,
	ledger *application.Ledger,
	credentials driven.CredentialStore,
	profile string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		connect:     connect,
		ledger:      ledger,
		credentials: credentials,
		profile:     profile,
		prompt:      terminalPrompt,
		logger:      logger,
	}
}

// SetPrompter replaces the terminal prompt used by login.
func (h *Handler) SetPrompter(p Prompter) {
	h.prompt = p
}

// withVault connects, runs fn and closes the client.
func (h *Handler) withVault(ctx context.Context, fn func(Vault) error) error {
	v, err := h.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect to vault: %w", err)
	}
	defer func() {
		if closeErr := v.Close(); closeErr != nil {
			h.logger.Error("error closing vault client", "error", closeErr)
		}
	}()
	return fn(v)
}

// output carries the flags shared by every command.
type output struct {
	json bool
}

// NewRootCommand builds the pwsafe command tree.
func NewRootCommand(h *Handler) *cobra.Command {
	out := &output{}

	root := &cobra.Command{
		Use:   "pwsafe",
		Short: "Check out privileged credentials from the password vault",
		Long: `pwsafe checks managed-account passwords out of the password vault and
back in, browses managed systems and accounts, and reads Secrets-Safe entries.

Connection settings come from PWSAFE_* environment variables, an optional
.env file and an optional YAML file named by PWSAFE_CONFIG_FILE. Credentials
stored with "pwsafe login" take priority over the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&out.json, "json", false, "Output JSON instead of human-readable text")

	root.AddCommand(
		h.authCommand(out),
		h.signOutCommand(),
		h.loginCommand(),
		h.systemsCommand(out),
		h.accountsCommand(out),
		h.accountCommand(out),
		h.checkoutCommand(out),
		h.passwordCommand(out),
		h.checkInCommand(),
		h.checkoutsCommand(out),
		h.secretCommand(out),
	)
	return root
}

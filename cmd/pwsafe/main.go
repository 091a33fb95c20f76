package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/pwsafe"
	sqliteadapter "github.com/ericfisherdev/pwsafe/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pwsafe/internal/adapter/driving/cli"
	"github.com/ericfisherdev/pwsafe/internal/application"
	"github.com/ericfisherdev/pwsafe/internal/config"
	"github.com/ericfisherdev/pwsafe/internal/domain/model"
	"github.com/ericfisherdev/pwsafe/internal/domain/port/driven"
)

// credentialProfile is the credential-store service name for the single
// vault connection the CLI manages.
const credentialProfile = "default"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env when present; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	// 2. Load configuration. Credentials are validated once stored values
	// have been merged in.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open the local database and run migrations.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Debug("database ready", "path", cfg.DBPath, "schema_version", version)

	// 5. Wire adapters.
	key, err := sqliteadapter.ParseEncryptionKey(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("PWSAFE_SECRET_KEY: %w", err)
	}
	credentialStore := sqliteadapter.NewCredentialRepo(db, key)
	ledger := application.NewLedger(sqliteadapter.NewCheckoutRepo(db), logger)

	// 6. The vault client is built lazily so local commands run without a
	// complete vault configuration.
	connect := func(ctx context.Context) (cli.Vault, error) {
		opts := cfg.Vault
		if err := applyStoredCredentials(ctx, credentialStore, credentialProfile, &opts); err != nil {
			return nil, err
		}
		client, err := pwsafe.New(opts, pwsafe.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	handler := cli.NewHandler(connect, ledger, credentialStore, credentialProfile, logger)
	return cli.NewRootCommand(handler).ExecuteContext(ctx)
}

// newLogger builds the stderr handler from PWSAFE_LOG_LEVEL and
// PWSAFE_LOG_FORMAT.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("PWSAFE_LOG_LEVEL: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// applyStoredCredentials overrides opts with credentials saved by
// "pwsafe login". Stored credentials take priority over env vars. Without
// an encryption key nothing can have been stored, so the environment
// values stand.
func applyStoredCredentials(ctx context.Context, store driven.CredentialStore, profile string, opts *config.Vault) error {
	fields := []struct {
		key string
		dst *string
	}{
		{model.CredentialKeyAPIKey, &opts.APIKey},
		{model.CredentialKeyRunAsPassword, &opts.RunAsPassword},
		{model.CredentialKeyOAuthClientSecret, &opts.OAuthClientSecret},
	}

	for _, f := range fields {
		value, err := store.Get(ctx, profile, f.key)
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading stored %s: %w", f.key, err)
		}
		if value != "" {
			*f.dst = value
		}
	}
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

// accountSelector holds the flags that pick one managed account, either by
// id or by name.
type accountSelector struct {
	id           int64
	name         string
	system       string
	domain       string
	domainLinked bool
}

func (s *accountSelector) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&s.id, "id", 0, "Managed account id")
	cmd.Flags().StringVar(&s.name, "name", "", "Account name")
	cmd.Flags().StringVar(&s.system, "system", "", "System name of a local account")
	cmd.Flags().StringVar(&s.domain, "domain", "", "Domain name of a domain-linked account")
	cmd.MarkFlagsMutuallyExclusive("id", "name")
	cmd.MarkFlagsOneRequired("id", "name")
	cmd.MarkFlagsMutuallyExclusive("system", "domain")
}

// lookup returns the name lookup; ok is false when the account is chosen
// by id.
func (s *accountSelector) lookup() (model.AccountLookup, bool) {
	if s.name == "" {
		return model.AccountLookup{}, false
	}
	return model.AccountLookup{
		AccountName:  s.name,
		SystemName:   s.system,
		DomainName:   s.domain,
		DomainLinked: s.domain != "",
	}, true
}

func (s *accountSelector) resolve(ctx context.Context, v Vault) (*model.ManagedAccount, error) {
	if lookup, ok := s.lookup(); ok {
		return v.GetManagedAccountByName(ctx, lookup)
	}
	return v.GetManagedAccountByID(ctx, s.id)
}

func (h *Handler) systemsCommand(out *output) *cobra.Command {
	var systemID int64

	cmd := &cobra.Command{
		Use:   "systems",
		Short: "List managed systems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				systems, err := v.GetManagedSystems(cmd.Context(), systemID)
				if err != nil {
					return err
				}

				resp := make([]SystemResponse, 0, len(systems))
				for _, s := range systems {
					resp = append(resp, toSystemResponse(s))
				}
				if out.json {
					return writeJSON(cmd.OutOrStdout(), resp)
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tPLATFORM\tADDRESS\tACTIVE")
				for _, s := range resp {
					address := s.FQDN
					if address == "" {
						address = s.IPAddress
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", s.ID, s.Name, s.Platform, address, s.IsActive)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().Int64Var(&systemID, "id", 0, "Only the system with this id")
	return cmd
}

func (h *Handler) accountsCommand(out *output) *cobra.Command {
	var (
		systemID    int64
		accountName string
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List managed accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				accounts, err := v.GetManagedAccounts(cmd.Context(), systemID, accountName)
				if err != nil {
					return err
				}
				return writeAccounts(cmd, out, accounts)
			})
		},
	}
	cmd.Flags().Int64Var(&systemID, "system-id", 0, "Only accounts of this system")
	cmd.Flags().StringVar(&accountName, "name", "", "Only accounts with this name (requires --system-id)")
	return cmd
}

func (h *Handler) accountCommand(out *output) *cobra.Command {
	var sel accountSelector

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show one managed account",
		Example: `  pwsafe account --id 42
  pwsafe account --name root --system db01
  pwsafe account --name svc_backup --domain CORP`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				account, err := sel.resolve(cmd.Context(), v)
				if err != nil {
					return err
				}
				return writeAccounts(cmd, out, []model.ManagedAccount{*account})
			})
		},
	}
	sel.register(cmd)
	return cmd
}

func writeAccounts(cmd *cobra.Command, out *output, accounts []model.ManagedAccount) error {
	resp := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, toAccountResponse(a))
	}
	if out.json {
		return writeJSON(cmd.OutOrStdout(), resp)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tNAME\tSYSTEM ID\tSYSTEM\tDOMAIN\tLAST CHANGE")
	for _, a := range resp {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", a.ID, a.Name, a.SystemID, a.SystemName, a.DomainName, a.LastChangeDate)
	}
	return tw.Flush()
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

func (h *Handler) checkoutCommand(out *output) *cobra.Command {
	var sel accountSelector

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Check out the password of a managed account",
		Long: `checkout requests the account's password and prints it. An account that is
already checked out reuses the active request. The request is recorded in the
local ledger so "pwsafe checkouts" can list it and "pwsafe checkin" release it.`,
		Example: `  pwsafe checkout --name root --system db01
  pwsafe checkout --id 42 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				var (
					pw      *model.ManagedPassword
					account *model.ManagedAccount
					err     error
				)
				if lookup, ok := sel.lookup(); ok {
					pw, err = v.GetManagedAccountPasswordByName(cmd.Context(), lookup)
					account = &model.ManagedAccount{AccountName: lookup.QualifiedName(), SystemName: lookup.SystemName}
				} else {
					pw, err = v.GetManagedAccountPasswordByID(cmd.Context(), sel.id)
				}
				if err != nil {
					return err
				}

				// The password is already out; a ledger failure must not hide it.
				if err := h.ledger.RecordCheckout(cmd.Context(), pw, account); err != nil {
					h.logger.Warn("checkout not recorded", "request_id", pw.RequestID, "error", err)
				}

				return writePassword(cmd, out, pw)
			})
		},
	}
	sel.register(cmd)
	return cmd
}

func (h *Handler) passwordCommand(out *output) *cobra.Command {
	return &cobra.Command{
		Use:   "password <request-id>",
		Short: "Fetch the password of an existing request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				pw, err := v.GetManagedAccountPasswordByRequestID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writePassword(cmd, out, pw)
			})
		},
	}
}

func (h *Handler) checkInCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "checkin <request-id>",
		Short: "Check a password back in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID := args[0]
			err := h.withVault(cmd.Context(), func(v Vault) error {
				return v.CheckInPassword(cmd.Context(), requestID, reason)
			})
			if err != nil {
				return err
			}

			if err := h.ledger.RecordCheckIn(cmd.Context(), requestID); err != nil {
				h.logger.Warn("check-in not recorded", "request_id", requestID, "error", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Request %s checked in\n", requestID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the check-in")
	return cmd
}

func (h *Handler) checkoutsCommand(out *output) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "checkouts",
		Short: "List checkouts made from this machine that are not checked in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := h.ledger.Open(cmd.Context(), !all)
			if err != nil {
				return err
			}

			now := time.Now()
			resp := make([]CheckoutResponse, 0, len(records))
			for _, r := range records {
				resp = append(resp, toCheckoutResponse(r, now))
			}
			if out.json {
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "REQUEST\tACCOUNT\tSYSTEM\tCHECKED OUT\tEXPIRES")
			for _, r := range resp {
				account := r.AccountName
				if account == "" {
					account = fmt.Sprintf("#%d", r.AccountID)
				}
				system := r.SystemName
				if system == "" {
					system = fmt.Sprintf("#%d", r.SystemID)
				}
				expires := r.ExpiresAt
				if r.Expired {
					expires += " (expired)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.RequestID, account, system, r.CheckedOutAt, expires)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include checkouts whose vault-side expiry has passed")
	return cmd
}

// writePassword prints the bare password in text mode so it can be piped.
func writePassword(cmd *cobra.Command, out *output, pw *model.ManagedPassword) error {
	if out.json {
		return writeJSON(cmd.OutOrStdout(), toPasswordResponse(pw))
	}
	if pw.RequestID != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Request %s", pw.RequestID)
		if !pw.ExpirationDate.IsZero() {
			fmt.Fprintf(cmd.ErrOrStderr(), ", expires %s", formatTime(pw.ExpirationDate))
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), pw.Password.Reveal())
	return err
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pwsafe/internal/domain/model"
)

func (h *Handler) secretCommand(out *output) *cobra.Command {
	var id, title string

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Read a Secrets-Safe entry",
		Example: `  pwsafe secret --title "deploy token"
  pwsafe secret --id 6f1d1c4e-5b43-4e47-9b1a-2f0c4a7d9e10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return h.withVault(cmd.Context(), func(v Vault) error {
				var (
					secret *model.Secret
					err    error
				)
				if id != "" {
					secret, err = v.GetSecretByID(cmd.Context(), id)
				} else {
					secret, err = v.GetSecretByTitle(cmd.Context(), title)
				}
				if err != nil {
					return err
				}
				if secret == nil {
					return errors.New("secret not found")
				}

				if out.json {
					return writeJSON(cmd.OutOrStdout(), toSecretResponse(secret))
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), secret.Value.Reveal())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Secret UUID")
	cmd.Flags().StringVar(&title, "title", "", "Secret title")
	cmd.MarkFlagsMutuallyExclusive("id", "title")
	cmd.MarkFlagsOneRequired("id", "title")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/provider"
)

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported payment providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, id := range provider.SupportedProviders() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

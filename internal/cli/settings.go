package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	paymentApplication "github.com/rcarvalho-pb/bakery_payments-go/internal/application/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// settingsFile is the YAML shape accepted by `settings import`.
type settingsFile struct {
	Provider payment.ProviderID `yaml:"provider"`
	Enabled  bool               `yaml:"enabled"`
	Config   map[string]any     `yaml:"config"`
}

func newSettingsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or replace the payment provider settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			view, err := a.service.Settings(cmd.Context())
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(view)
			if err != nil {
				return fmt.Errorf("failed to marshal settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Validate and store settings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readSettingsFile(args[0])
			if err != nil {
				return err
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			view, err := a.service.UpdateSettings(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s settings (version %d, enabled=%t)\n", view.Provider, view.Version, view.Enabled)
			return nil
		},
	})

	return cmd
}

func readSettingsFile(path string) (paymentApplication.UpdateSettingsRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return paymentApplication.UpdateSettingsRequest{}, err
	}

	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return paymentApplication.UpdateSettingsRequest{}, fmt.Errorf("parse %s: %w", path, err)
	}

	config, err := json.Marshal(f.Config)
	if err != nil {
		return paymentApplication.UpdateSettingsRequest{}, fmt.Errorf("encode config: %w", err)
	}

	return paymentApplication.UpdateSettingsRequest{
		Provider: f.Provider,
		Config:   config,
		Enabled:  f.Enabled,
	}, nil
}

// Package cli implements the bakeryd command.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/config"
)

type rootOptions struct {
	configPath string
	logOut     io.Writer
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) open() (*app, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, o.logOut)
}

func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{logOut: os.Stderr}

	root := &cobra.Command{
		Use:           "bakeryd",
		Short:         "Bakery storefront payment service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newSettingsCommand(opts),
		newProvidersCommand(),
		newTokenCommand(opts),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

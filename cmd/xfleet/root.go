package main

import (
	"github.com/spf13/cobra"

	"github.com/benz9527/xfleet/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xfleet",
		Short:         "Red-black tree fleet of ships, demo and scaling checks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	config.RegisterGlobalFlags(root.PersistentFlags())
	root.AddCommand(newDemoCmd(), newBenchCmd())
	return root
}

// loadConfig merges the config file and the flags of cmd, then validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

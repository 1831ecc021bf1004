package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/aomesh/internal/config"
)

const (
	// Application info
	appName    = "aomesh"
	appVersion = "0.1.0"
)

// options holds the global flags
type options struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Publish-subscribe runtime for active objects",
		Long: `aomesh hosts a set of active objects that communicate through a
publish-subscribe core. The run command starts a demo application together
with the HTTP diagnostics API and the gRPC health service.`,
		SilenceUsage: true,
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newTokenCommand(opts))
	rootCmd.AddCommand(newHealthCommand(opts))
	rootCmd.AddCommand(newAdminCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// load reads the configuration file and environment, with --log-level
// taking precedence over both.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.New(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := v.BindPFlag("logging.level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return nil, fmt.Errorf("failed to bind log level flag: %w", err)
	}
	return config.Load(v)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", appName, appVersion)
		},
	}
}

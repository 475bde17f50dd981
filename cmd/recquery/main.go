// recquery queries JSON record collections from the command line and
// serves them over gRPC
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nainya/recquery/internal/config"
	"github.com/nainya/recquery/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "recquery",
		Short:         "Filter, sort and page through JSON record collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.pretty, "log-pretty", false, "Human-readable log output")

	cmd.AddCommand(
		newFindCmd(flags),
		newExtractCmd(flags),
		newServeCmd(flags),
		newVersionCmd(),
	)
	return cmd
}

// load reads configuration and builds a logger writing to stderr.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}

	lc := cfg.LoggerConfig()
	if f.logLevel != "" {
		lc.Level = f.logLevel
	}
	if f.pretty {
		lc.Pretty = true
	}
	lc.Output = cmd.ErrOrStderr()
	return cfg, logger.NewLogger(lc), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recquery %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

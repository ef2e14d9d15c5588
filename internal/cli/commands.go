package cli

import (
	"fmt"

	"github.com/codalotl/legallens/internal/config"
	"github.com/codalotl/legallens/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type rootFlags struct {
	configPath string
	debug      bool
}

// load reads configuration and builds the logger. The --debug flag forces debug logging on.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.debug {
		cfg.Debug = true
	}
	logger := logging.New(cfg.Debug, cmd.ErrOrStderr())
	if cfg.Path != "" {
		logger.Debug("loaded config", zap.String("path", cfg.Path))
	}
	return cfg, logger, nil
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "legallens",
		Short: "legallens exports Swiss court judgments as token-bounded text and ranks search hits with an LLM.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to legallens.yaml (default: nearest legallens.yaml upward from the working directory)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newExportCommand(flags),
		newQueryCommand(flags),
		newCacheCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)
	return root
}

func newConfigCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Path != "" {
				fmt.Fprintf(out, "# from %s\n", cfg.Path)
			} else {
				fmt.Fprintln(out, "# no legallens.yaml found; defaults")
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the legallens version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		},
	}
}

// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hackparv/operator-cli/internal/config"
	"github.com/hackparv/operator-cli/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// appConfig is resolved once in PersistentPreRunE and consumed by the
	// subcommands; nothing reads viper after startup.
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "operator-cli",
	Short:   "operator-cli drives your computer from a vision-capable language model.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			// Initialize a fallback logger so the failure is visible in the
			// usual format.
			observability.InitializeLogger(config.NewDefaultConfig().Logger)
			return err
		}
		if verbose {
			cfg.Logger.Level = "debug"
		}

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting operator-cli", zap.String("version", Version))

		appConfig = cfg
		return nil
	},
}

// Execute runs the root command with the given signal-aware context.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./operator.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "raise console logging to debug level")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

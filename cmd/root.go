package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/promptconduit/dashctx/internal/config"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	configPath string
	verbose    bool

	logger   *zap.Logger
	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "dashctx",
	Short: "dashctx - Dashboard context assembly engine",
	Long: `dashctx assembles the context object handed to client-side dashboards:
resolved paths, locale, session timeout, server time, roles, custom parameters
and the data-access queries auto-included for the dashboard.

Get started:
  1. Point it at your repository: dashctx config set --instance-dir=/srv/repo/instance
  2. Build a context: dashctx context --path public/sales/dash.wcdf --user admin
  3. Serve it to tools over MCP: dashctx serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.Load(configPath)
		if err != nil {
			return err
		}

		// stdout may be the MCP protocol channel, so logs go to stderr
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		if verbose || settings.Debug {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default ~/.dashctx/settings.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(embeddedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(viewsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("dashctx %s\n", Version)
	},
}

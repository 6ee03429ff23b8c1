package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptconduit/dashctx/internal/contextcfg"
	"github.com/promptconduit/dashctx/internal/repository"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dashctx configuration status",
	Long:  `Display the repository layers, the context configuration in effect and whether the data-access service answers.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("dashctx v%s\n\n", Version)

	fmt.Println("Repository:")
	checkDir("Instance", settings.InstanceDir)
	checkDir("System", settings.SystemDir)
	checkDir("Content", settings.ContentDir)
	if settings.ContentDir != "" {
		checkDir("Includes", filepath.Join(settings.ContentDir, filepath.FromSlash(settings.IncludesDir)))
	}
	fmt.Println()

	checkContextConfig(cmd.Context())
	fmt.Println()

	fmt.Printf("Locale:         %s\n", settings.Locale)
	fmt.Printf("Legacy context: %v\n", settings.LegacyDashboardContext)
	fmt.Println()

	rt, err := newEngineRuntime(settings, false, logger)
	if err != nil {
		fmt.Printf("Data access:    not checked (%v)\n", err)
		return nil
	}
	switch {
	case !settings.DataAccess.IsConfigured():
		fmt.Println("Data access:    Not configured (auto-includes disabled)")
		fmt.Println("  Set with: dashctx config set --data-access-url=\"http://host/cda\"")
	case rt.broker.PluginPresent(cmd.Context()):
		fmt.Printf("Data access:    %s (reachable)\n", settings.DataAccess.BaseURL)
	default:
		fmt.Printf("Data access:    %s (unreachable)\n", settings.DataAccess.BaseURL)
	}

	return nil
}

func checkDir(label, dir string) {
	if dir == "" {
		fmt.Printf("  %-9s not set\n", label+":")
		return
	}
	if !repository.NewDir(dir).Exists(".") {
		fmt.Printf("  %-9s %s (missing)\n", label+":", dir)
		return
	}
	fmt.Printf("  %-9s %s\n", label+":", dir)
}

func checkContextConfig(ctx context.Context) {
	loader := contextcfg.NewLoader(
		repository.NewDir(settings.InstanceDir),
		repository.NewDir(settings.SystemDir),
		settings.ConfigFileName,
		logger,
	)

	doc, err := loader.Load(ctx)
	switch {
	case errors.Is(err, contextcfg.ErrNotFound):
		fmt.Printf("Context config: %s not found in any layer\n", loader.Name())
	case err != nil:
		fmt.Printf("Context config: error (%v)\n", err)
	default:
		fmt.Printf("Context config: %s (%d session attributes, %d auto-includes)\n",
			loader.Name(), len(doc.SessionAttributes), len(doc.AutoIncludes))
	}
}

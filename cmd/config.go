package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptconduit/dashctx/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dashctx settings",
	Long: `Manage dashctx settings stored in ~/.dashctx/settings.yaml.

Quick start:
  dashctx config set --instance-dir=/srv/repo/instance --content-dir=/srv/repo/content

Priority order: environment variables > settings file > defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings

		cmd.Printf("Instance dir:   %s\n", s.InstanceDir)
		cmd.Printf("System dir:     %s\n", s.SystemDir)
		cmd.Printf("Content dir:    %s\n", s.ContentDir)
		cmd.Printf("Includes dir:   %s\n", s.IncludesDir)
		cmd.Printf("Config file:    %s\n", s.ConfigFileName)
		cmd.Printf("Locale:         %s\n", s.Locale)
		cmd.Printf("Legacy context: %v\n", s.LegacyDashboardContext)
		cmd.Printf("Storage dir:    %s\n", s.StorageDir)
		if s.DataAccess.IsConfigured() {
			cmd.Printf("Data access:    %s\n", s.DataAccess.BaseURL)
		} else {
			cmd.Println("Data access:    not configured")
		}
		if s.DataAccess.APIKey != "" {
			cmd.Printf("API Key:        %s\n", config.MaskAPIKey(s.DataAccess.APIKey))
		}
		if s.Debug {
			cmd.Printf("Debug:          %v\n", s.Debug)
		}
		cmd.Println()
		cmd.Printf("Settings:       %s\n", settingsFile())

		return nil
	},
}

var (
	setInstanceDir   string
	setSystemDir     string
	setContentDir    string
	setIncludesDir   string
	setConfigFile    string
	setLocale        string
	setLegacy        bool
	setStorageDir    string
	setDataAccessURL string
	setDataAccessKey string
	setTimeout       int
	setDebug         bool
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set settings values",
	Long: `Set values in ~/.dashctx/settings.yaml.

Examples:
  dashctx config set --instance-dir=/srv/repo/instance --system-dir=/srv/repo/system
  dashctx config set --data-access-url=http://localhost:8080/cda --data-access-key=xxx
  dashctx config set --legacy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := settingsFile()
		fs, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}

		flags := cmd.Flags()
		changed := false
		apply := func(name string, fn func()) {
			if flags.Changed(name) {
				fn()
				changed = true
			}
		}
		apply("instance-dir", func() { fs.InstanceDir = setInstanceDir })
		apply("system-dir", func() { fs.SystemDir = setSystemDir })
		apply("content-dir", func() { fs.ContentDir = setContentDir })
		apply("includes-dir", func() { fs.IncludesDir = setIncludesDir })
		apply("config-file", func() { fs.ConfigFileName = setConfigFile })
		apply("locale", func() { fs.Locale = setLocale })
		apply("legacy", func() { fs.LegacyDashboardContext = setLegacy })
		apply("storage-dir", func() { fs.StorageDir = setStorageDir })
		apply("data-access-url", func() { fs.DataAccess.BaseURL = setDataAccessURL })
		apply("data-access-key", func() { fs.DataAccess.APIKey = setDataAccessKey })
		apply("timeout", func() { fs.DataAccess.TimeoutSeconds = setTimeout })
		apply("debug", func() { fs.Debug = setDebug })

		if !changed {
			return fmt.Errorf("no values provided. See 'dashctx config set --help'")
		}
		if err := fs.Validate(); err != nil {
			return err
		}

		if err := fs.Save(path); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		cmd.Println("Settings saved")
		if fs.DataAccess.APIKey != "" {
			cmd.Printf("  API Key: %s\n", config.MaskAPIKey(fs.DataAccess.APIKey))
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(settingsFile())
	},
}

// settingsFile is the settings file in effect: --config, then DASHCTX_CONFIG,
// then the default location
func settingsFile() string {
	if configPath != "" {
		return configPath
	}
	return config.SettingsPath()
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	f := configSetCmd.Flags()
	f.StringVar(&setInstanceDir, "instance-dir", "", "instance repository layer")
	f.StringVar(&setSystemDir, "system-dir", "", "system repository layer")
	f.StringVar(&setContentDir, "content-dir", "", "user content repository root")
	f.StringVar(&setIncludesDir, "includes-dir", "", "auto-include directory inside the content root")
	f.StringVar(&setConfigFile, "config-file", "", "context configuration file name")
	f.StringVar(&setLocale, "locale", "", "default locale")
	f.BoolVar(&setLegacy, "legacy", false, "emit the legacy solution/path/file structure")
	f.StringVar(&setStorageDir, "storage-dir", "", "storage and views database directory")
	f.StringVar(&setDataAccessURL, "data-access-url", "", "data-access service base URL")
	f.StringVar(&setDataAccessKey, "data-access-key", "", "data-access service API key")
	f.IntVar(&setTimeout, "timeout", 0, "data-access request timeout in seconds")
	f.BoolVar(&setDebug, "debug", false, "enable debug logging")
}

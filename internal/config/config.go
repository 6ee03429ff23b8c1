package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFileName = "dashboardContext.xml"
	DefaultIncludesDir    = "public/cdf/includes"
	DefaultLocale         = "en_US"
	DefaultTimeoutSecs    = 30
	EnvConfig             = "DASHCTX_CONFIG"
	EnvInstanceDir        = "DASHCTX_INSTANCE_DIR"
	EnvSystemDir          = "DASHCTX_SYSTEM_DIR"
	EnvContentDir         = "DASHCTX_CONTENT_DIR"
	EnvLegacyContext      = "DASHCTX_LEGACY_CONTEXT"
	EnvLocale             = "DASHCTX_LOCALE"
	EnvDataAccessURL      = "DASHCTX_DATA_ACCESS_URL"
	EnvDataAccessKey      = "DASHCTX_DATA_ACCESS_KEY"
	EnvStorageDir         = "DASHCTX_STORAGE_DIR"
	EnvDebug              = "DASHCTX_DEBUG"
	EnvTimeout            = "DASHCTX_TIMEOUT"
	SettingsDirName       = ".dashctx"
	SettingsFileName      = "settings.yaml"
)

// Settings holds the engine configuration
type Settings struct {
	// Plugin repository layers searched for the context configuration file.
	// The instance layer wins over the system layer.
	InstanceDir string `yaml:"instance_dir,omitempty"`
	SystemDir   string `yaml:"system_dir,omitempty"`

	// User content repository root and the auto-include directory inside it
	ContentDir  string `yaml:"content_dir,omitempty"`
	IncludesDir string `yaml:"includes_dir,omitempty"`

	ConfigFileName string `yaml:"config_file_name,omitempty"`

	// Emit the deprecated solution/path/file/fullPath/isAdmin structure
	LegacyDashboardContext bool `yaml:"legacy_dashboard_context,omitempty"`

	Locale string `yaml:"locale,omitempty"`

	DataAccess DataAccessSettings `yaml:"data_access,omitempty"`

	// Badger directory for storage snapshots and views
	StorageDir string `yaml:"storage_dir,omitempty"`

	Debug bool `yaml:"debug,omitempty"`
}

// DataAccessSettings configures the data-access discovery broker
type DataAccessSettings struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	APIKey         string `yaml:"api_key,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// IsConfigured returns true if a data-access broker URL is set
func (d *DataAccessSettings) IsConfigured() bool {
	return d.BaseURL != ""
}

// DefaultSettings returns settings rooted at the user's settings directory
func DefaultSettings() *Settings {
	base := SettingsDir()
	return &Settings{
		InstanceDir:    filepath.Join(base, "repository", "instance"),
		SystemDir:      filepath.Join(base, "repository", "system"),
		ContentDir:     filepath.Join(base, "content"),
		IncludesDir:    DefaultIncludesDir,
		ConfigFileName: DefaultConfigFileName,
		Locale:         DefaultLocale,
		DataAccess: DataAccessSettings{
			TimeoutSeconds: DefaultTimeoutSecs,
		},
		StorageDir: filepath.Join(base, "storage"),
	}
}

// SettingsDir returns the path to the settings directory
func SettingsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return SettingsDirName
	}
	return filepath.Join(home, SettingsDirName)
}

// SettingsPath returns the settings file location, honouring DASHCTX_CONFIG
func SettingsPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(SettingsDir(), SettingsFileName)
}

// Load reads settings from path (SettingsPath() when empty). A missing file
// yields the defaults. Environment variables override file values.
func Load(path string) (*Settings, error) {
	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.applyEnvOverrides()
	s.applyDefaults()
	return s, nil
}

// LoadFile reads the settings file over the defaults without applying
// environment overrides, so the result can be edited and saved back.
func LoadFile(path string) (*Settings, error) {
	if path == "" {
		path = SettingsPath()
	}

	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
	}
	return s, nil
}

// Save writes the settings as YAML to path (SettingsPath() when empty)
func (s *Settings) Save(path string) error {
	if path == "" {
		path = SettingsPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate reports settings that cannot produce a working engine
func (s *Settings) Validate() error {
	if s.InstanceDir == "" && s.SystemDir == "" {
		return fmt.Errorf("at least one of instance_dir or system_dir must be set")
	}
	if s.ConfigFileName == "" {
		return fmt.Errorf("config_file_name must not be empty")
	}
	if s.DataAccess.TimeoutSeconds < 0 {
		return fmt.Errorf("data_access.timeout_seconds must be >= 0, got %d", s.DataAccess.TimeoutSeconds)
	}
	return nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv(EnvInstanceDir); v != "" {
		s.InstanceDir = v
	}
	if v := os.Getenv(EnvSystemDir); v != "" {
		s.SystemDir = v
	}
	if v := os.Getenv(EnvContentDir); v != "" {
		s.ContentDir = v
	}
	if v := os.Getenv(EnvLegacyContext); v != "" {
		s.LegacyDashboardContext = isTrue(v)
	}
	if v := os.Getenv(EnvLocale); v != "" {
		s.Locale = v
	}
	if v := os.Getenv(EnvDataAccessURL); v != "" {
		s.DataAccess.BaseURL = v
	}
	if v := os.Getenv(EnvDataAccessKey); v != "" {
		s.DataAccess.APIKey = v
	}
	if v := os.Getenv(EnvStorageDir); v != "" {
		s.StorageDir = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		s.Debug = isTrue(v)
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil && timeout > 0 {
			s.DataAccess.TimeoutSeconds = timeout
		}
	}
}

func (s *Settings) applyDefaults() {
	if s.ConfigFileName == "" {
		s.ConfigFileName = DefaultConfigFileName
	}
	if s.IncludesDir == "" {
		s.IncludesDir = DefaultIncludesDir
	}
	if s.Locale == "" {
		s.Locale = DefaultLocale
	}
	if s.DataAccess.TimeoutSeconds == 0 {
		s.DataAccess.TimeoutSeconds = DefaultTimeoutSecs
	}
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// MaskAPIKey returns a masked version of the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "***"
	}
	return "***..." + key[len(key)-4:]
}

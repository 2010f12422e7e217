// Package config loads tenjin settings.
//
// Settings come from built-in defaults, an optional .tenjin.yaml at the
// project root and TENJIN_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// FileName is the optional settings file at the project root.
	FileName = ".tenjin.yaml"
	// EnvPrefix prefixes environment overrides, e.g. TENJIN_LOG_LEVEL.
	EnvPrefix = "TENJIN"

	// DefaultInstallerURL is the uv installer fetched by bootstrap.
	DefaultInstallerURL = "https://astral.sh/uv/install.sh"
	// DefaultLargeFileLimit is the largest file size allowed in the repo, in bytes.
	DefaultLargeFileLimit = 987654
)

// DefaultDownstreamCommand is run after bootstrap, relative to the project root.
var DefaultDownstreamCommand = []string{"cli/10j", "provision"}

// ErrInvalid is wrapped by validation failures.
var ErrInvalid = errors.New("invalid settings")

// Settings holds all tenjin settings.
type Settings struct {
	InstallerURL      string   `mapstructure:"installer_url"`
	DownstreamCommand []string `mapstructure:"downstream_command"`
	LargeFileLimit    int64    `mapstructure:"large_file_limit"`

	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSize    int    `mapstructure:"log_max_size"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogCompress   bool   `mapstructure:"log_compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("installer_url", DefaultInstallerURL)
	v.SetDefault("downstream_command", DefaultDownstreamCommand)
	v.SetDefault("large_file_limit", DefaultLargeFileLimit)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_compress", true)
}

// Load reads settings for the project rooted at dir. dir may be empty or
// not a project root; in that case only defaults and environment apply.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if dir != "" {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks the settings for obvious mistakes.
func (s *Settings) Validate() error {
	if !strings.HasPrefix(s.InstallerURL, "https://") {
		return fmt.Errorf("%w: installer_url must use https: %q", ErrInvalid, s.InstallerURL)
	}
	if len(s.DownstreamCommand) == 0 || strings.TrimSpace(s.DownstreamCommand[0]) == "" {
		return fmt.Errorf("%w: downstream_command is empty", ErrInvalid)
	}
	if s.LargeFileLimit <= 0 {
		return fmt.Errorf("%w: large_file_limit must be positive", ErrInvalid)
	}
	return nil
}

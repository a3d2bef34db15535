package config

import (
	"errors"
	"os/user"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	viper "github.com/spf13/viper"
)

func loadEnv(v *viper.Viper) error {
	err := v.BindEnv("debug", "DEBUG")
	if err != nil {
		return err
	}
	v.SetDefault("debug", false)

	err = v.BindEnv("toolshed_path", "TOOLSHED_PATH")
	if err != nil {
		return err
	}
	homedir, err := homedir()
	if err != nil {
		return err
	}
	v.SetDefault("toolshed_path", filepath.Join(homedir, ".toolshed"))

	err = v.BindEnv("registry_path", "TOOLSHED_REGISTRY_PATH")
	if err != nil {
		return err
	}

	return nil
}

func loadViperConfig() (*viper.Viper, error) {
	v := viper.New()

	err := loadEnv(v)
	if err != nil {
		return nil, err
	}

	v.AddConfigPath(v.GetString("toolshed_path"))
	v.SetConfigType("yml")
	v.SetConfigName("toolshed")

	// The config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return v, nil
}

// EnsuredPackage is a package the config asks to have installed when the
// process starts.
type EnsuredPackage struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// Config wraps the loaded viper instance with typed accessors.
type Config struct {
	viper *viper.Viper
}

func NewConfig() (*Config, error) {
	v, err := loadViperConfig()
	if err != nil {
		return nil, err
	}
	config := &Config{viper: v}

	log.Debug().Msgf("Loaded config: root path: %s registry path: %s", config.RootPath(), config.RegistryPath())

	return config, nil
}

// NewTestConfig returns a Config rooted at the given directory, suitable for
// testing.
func NewTestConfig(rootPath string) *Config {
	v := viper.New()
	v.Set("toolshed_path", rootPath)
	return &Config{viper: v}
}

// Override replaces a config value from a higher-precedence source, e.g. a
// CLI flag. Empty values are ignored.
func (c *Config) Override(key, value string) {
	if value != "" {
		c.viper.Set(key, value)
	}
}

func (c *Config) LogLevel() zerolog.Level {
	if c.viper.GetBool("debug") {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// RootPath is the directory that owns everything toolshed writes to disk.
func (c *Config) RootPath() string {
	return c.viper.GetString("toolshed_path")
}

// RegistryPath is the directory holding package definition files.
func (c *Config) RegistryPath() string {
	path := c.viper.GetString("registry_path")
	if path == "" {
		return filepath.Join(c.RootPath(), "registry")
	}
	return path
}

// InstallDir is the install directory for the named package. It is a
// deterministic function of the package name only.
func (c *Config) InstallDir(pkgName string) string {
	return filepath.Join(c.RootPath(), "packages", pkgName)
}

// BinDir is the shared prefix that installed binaries get linked into.
func (c *Config) BinDir() string {
	return filepath.Join(c.RootPath(), "bin")
}

// IndexPath is the sqlite file backing the installed-package index.
func (c *Config) IndexPath() string {
	return filepath.Join(c.RootPath(), "toolshed.db")
}

// EnsureInstalled lists the packages the config file asks to have installed
// at startup.
func (c *Config) EnsureInstalled() ([]EnsuredPackage, error) {
	var pkgs []EnsuredPackage
	err := c.viper.UnmarshalKey("ensure_installed", &pkgs, viper.DecoderConfigOption(
		func(decoderConfig *mapstructure.DecoderConfig) {
			decoderConfig.TagName = "yaml"
		},
	))
	if err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ensure_installed packages")
		return nil, err
	}
	return pkgs, nil
}

// Helper functions

func homedir() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return usr.HomeDir, nil
}

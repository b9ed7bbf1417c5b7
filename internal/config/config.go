// Package config loads settings from an optional YAML file and UUIDSPACE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bunchhieng/uuidspace/internal/log"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. UUIDSPACE_LOG_LEVEL.
const EnvPrefix = "UUIDSPACE"

// Config is the resolved configuration.
type Config struct {
	Format string       `mapstructure:"format"`
	DBPath string       `mapstructure:"db_path"`
	Log    log.Config   `mapstructure:"log"`
	Search SearchConfig `mapstructure:"search"`
	Browse BrowseConfig `mapstructure:"browse"`
}

// SearchConfig bounds the search engine.
type SearchConfig struct {
	LookAhead int `mapstructure:"look_ahead"`
	LookBack  int `mapstructure:"look_back"`
	Attempts  int `mapstructure:"attempts"`
}

// BrowseConfig configures the terminal browser.
type BrowseConfig struct {
	Page int `mapstructure:"page"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "uuid")
	v.SetDefault("db_path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", false)
	v.SetDefault("search.look_ahead", 32)
	v.SetDefault("search.look_back", 32)
	v.SetDefault("search.attempts", 100)
	v.SetDefault("browse.page", 20)
}

// New returns a viper instance with defaults and environment binding.
// When file is set it is read explicitly; otherwise config.yaml is looked
// up in the working directory, ./config and the user config directory.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "uuidspace"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// Load resolves the configuration.
func Load(file string) (*Config, error) {
	v, err := New(file)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper decodes v into a Config and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine or browser cannot run with.
func (c *Config) Validate() error {
	if c.Search.LookAhead < 0 || c.Search.LookBack < 0 {
		return errors.New("search look-ahead and look-back must not be negative")
	}
	if c.Search.Attempts <= 0 {
		return errors.New("search attempts must be positive")
	}
	if c.Browse.Page <= 0 {
		return errors.New("browse page must be positive")
	}
	return nil
}

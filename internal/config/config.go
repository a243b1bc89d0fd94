// Package config loads CLI settings from an optional YAML file and
// VALMETRICS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "valmetrics"

type Config struct {
	DB              string `mapstructure:"db"`
	LogLevel        string `mapstructure:"log_level"`
	LogFile         string `mapstructure:"log_file"`
	CompetitiveOnly bool   `mapstructure:"competitive_only"`
	Workers         int    `mapstructure:"workers"`
}

// Dir returns the per-user data directory, "~/.valmetrics".
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".valmetrics"
	}
	return filepath.Join(home, ".valmetrics")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", filepath.Join(Dir(), "metrics.db"))
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_file", "")
	v.SetDefault("competitive_only", false)
	v.SetDefault("workers", 4)
}

// Load reads configuration. An empty cfgFile looks for config.yaml in the
// data directory and tolerates its absence; an explicit file must exist.
// Flags that were set on the command line take precedence over both.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for _, name := range []string{"db", "log-level", "log-file", "competitive-only", "workers"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

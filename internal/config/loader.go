package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".bibsift"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for bibsift settings.
const envPrefix = "BIBSIFT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Load loads configuration from file, env vars, and defaults. If
// configPath is non-empty, it is used as the explicit config file
// path. Otherwise, the config file is searched in CWD and $HOME.
// A missing config file is not an error; defaults are used. The merged
// settings are checked against the configuration schema before
// unmarshalling.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	validateErr := ValidateSettings(viperCfg.AllSettings())
	if validateErr != nil {
		return nil, validateErr
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	defaults := Defaults()

	viperCfg.SetDefault("base_path", defaults.BasePath)
	viperCfg.SetDefault("log_path", defaults.LogPath)
	viperCfg.SetDefault("log_every", defaults.LogEvery)
	viperCfg.SetDefault("max_per_file", defaults.MaxPerFile)
	viperCfg.SetDefault("default_format", defaults.DefaultFormat)
	viperCfg.SetDefault("default_limit", defaults.DefaultLimit)
}

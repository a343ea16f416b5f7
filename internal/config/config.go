package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "go-pinyin"

type AppConfig struct {
	TimeLimit    int      `mapstructure:"time_limit"`
	Countdown    int      `mapstructure:"countdown"`
	Level        string   `mapstructure:"level"`
	Decks        []string `mapstructure:"decks"`
	PerfectBonus bool     `mapstructure:"perfect_bonus"`
	Shuffle      bool     `mapstructure:"shuffle"`
	LogLevel     string   `mapstructure:"log_level"`
	LogFile      string   `mapstructure:"log_file"`
}

// Load reads configuration from, lowest to highest priority: built-in
// defaults, a go-pinyin.{yaml,json,toml} file, and PINYIN_* environment
// variables (a .env file in the working directory is loaded first).
// An empty configFile searches . and the user config dir; a missing file is
// fine there, but an explicitly named file must exist.
func Load(configFile string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PINYIN")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(appName)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.TimeLimit < 0 {
		return fmt.Errorf("time_limit must not be negative, got %d", c.TimeLimit)
	}
	if c.Countdown < 0 {
		return fmt.Errorf("countdown must not be negative, got %d", c.Countdown)
	}
	if c.Level == "" && len(c.Decks) == 0 {
		return fmt.Errorf("either level or decks must be set")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("time_limit", 60)
	v.SetDefault("countdown", 3)
	v.SetDefault("level", "easy")
	v.SetDefault("decks", []string{})
	v.SetDefault("perfect_bonus", false)
	v.SetDefault("shuffle", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", DefaultLogFile())
}

// DefaultLogFile places the log under the user cache dir; the terminal is
// taken by the game itself.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, appName+".log")
}

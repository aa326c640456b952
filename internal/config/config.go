package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName         = "codex"
	EnvPrefix       = "CODEX"
	DefaultBaseURL  = "http://localhost:5000"
	DefaultLogLevel = "info"
)

type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Log   LogConfig   `mapstructure:"log"`
	DB    DBConfig    `mapstructure:"db"`
	Theme ThemeConfig `mapstructure:"theme"`
	Auth  AuthConfig  `mapstructure:"auth"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// ThemeConfig.Default applies only until the user toggles the theme once
type ThemeConfig struct {
	Default string `mapstructure:"default"`
}

// AuthConfig feeds the non-interactive subcommands
type AuthConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Dir returns the per-user config directory, same fallback as the sqlite store.
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "."
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, AppName)
}

// Load reads .env, then codex.yaml (explicit path, cwd, or Dir()), then CODEX_* env.
func Load(explicitPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("log.file", filepath.Join(Dir(), "codex.log"))
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("db.path", filepath.Join(Dir(), "codex.db"))
	v.SetDefault("theme.default", "dark")
	v.SetDefault("auth.email", "")
	v.SetDefault("auth.password", "")
}

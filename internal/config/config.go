// Package config loads kda-ledger settings from the environment, an optional
// .env file and an optional accounts.yaml, both read from KDA_CONFIG_DIR.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/obsidiansystems/hw-app-kda/pkg/bip32"
	"github.com/obsidiansystems/hw-app-kda/pkg/log"
)

// Transport selects the library used to reach the device.
type Transport string

const (
	TransportHID    Transport = "hid"
	TransportZondax Transport = "zondax"
)

const (
	configDirPathEnv     = "KDA_CONFIG_DIR"
	defaultConfigDirPath = "."
	historyDirName       = "kda-ledger"
	historyFileName      = "history.db"
)

// Config represents the CLI configuration.
type Config struct {
	ConfigDir    string    `env:"KDA_CONFIG_DIR" env-default:"."`
	Transport    Transport `env:"KDA_TRANSPORT" env-default:"hid" validate:"oneof=hid zondax"`
	DeviceIndex  int       `env:"KDA_DEVICE_INDEX" env-default:"0" validate:"gte=0"`
	ChunkSize    int       `env:"KDA_CHUNK_SIZE" env-default:"230" validate:"min=1,max=255"`
	LenientPaths bool      `env:"KDA_LENIENT_PATHS" env-default:"false"`
	HistoryPath  string    `env:"KDA_HISTORY_PATH"`
	MetricsAddr  string    `env:"KDA_METRICS_ADDR" validate:"omitempty,hostname_port"`
	Log          log.Config

	accounts AccountsConfig
}

// Accounts returns the named accounts loaded from accounts.yaml.
func (c *Config) Accounts() AccountsConfig {
	return c.accounts
}

// Load builds the configuration. Variables already present in the
// environment take precedence over the .env file.
func Load(lg log.Logger) (*Config, error) {
	lg = lg.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	dotEnvPath := filepath.Join(configDirPath, ".env")
	if err := godotenv.Load(dotEnvPath); err != nil {
		lg.Debug(".env file not loaded", "path", dotEnvPath, "error", err)
	} else {
		lg.Info("loaded .env file", "path", dotEnvPath)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := getValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.HistoryPath == "" {
		path, err := defaultHistoryPath()
		if err != nil {
			return nil, err
		}
		cfg.HistoryPath = path
	}

	accounts, err := LoadAccounts(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	cfg.accounts = accounts

	lg.Debug("configuration loaded",
		"transport", cfg.Transport,
		"deviceIndex", cfg.DeviceIndex,
		"chunkSize", cfg.ChunkSize,
		"historyPath", cfg.HistoryPath,
		"accounts", len(accounts.Accounts),
	)
	return &cfg, nil
}

func defaultHistoryPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, historyDirName, historyFileName), nil
}

func getValidator() *validator.Validate {
	validate := validator.New()

	if err := validate.RegisterValidation("bip32path", func(fl validator.FieldLevel) bool {
		_, err := bip32.ParsePath(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("failed to register bip32path validation: %v", err))
	}
	if err := validate.RegisterValidation("account_name", func(fl validator.FieldLevel) bool {
		return accountNameRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register account_name validation: %v", err))
	}
	return validate
}

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

const accountsFileName = "accounts.yaml"

var errDuplicateAccount = errors.New("duplicate account name")

var accountNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// AccountsConfig represents the root of accounts.yaml.
type AccountsConfig struct {
	Accounts []AccountConfig `yaml:"accounts" validate:"dive"`
}

// AccountConfig names a derivation path so it can be used instead of the path.
type AccountConfig struct {
	// Name must be lowercase letters, digits, dashes or underscores
	Name string `yaml:"name" validate:"required,account_name"`
	// Path is a strict derivation path such as 44'/626'/0'/0/0
	Path string `yaml:"path" validate:"required,bip32path"`
}

// LoadAccounts reads <configDirPath>/accounts.yaml. A missing file yields an
// empty configuration.
func LoadAccounts(configDirPath string) (AccountsConfig, error) {
	accountsPath := filepath.Join(configDirPath, accountsFileName)
	f, err := os.Open(accountsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return AccountsConfig{}, nil
	}
	if err != nil {
		return AccountsConfig{}, err
	}
	defer f.Close()

	var cfg AccountsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return AccountsConfig{}, fmt.Errorf("failed to decode %s: %w", accountsPath, err)
	}

	if err := cfg.verifyVariables(); err != nil {
		return AccountsConfig{}, fmt.Errorf("invalid %s: %w", accountsPath, err)
	}
	return cfg, nil
}

func (cfg AccountsConfig) verifyVariables() error {
	if err := getValidator().Struct(cfg); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(cfg.Accounts))
	for i, account := range cfg.Accounts {
		if _, ok := seen[account.Name]; ok {
			return fmt.Errorf("%w %q at accounts[%d]", errDuplicateAccount, account.Name, i)
		}
		seen[account.Name] = struct{}{}
	}
	return nil
}

// Resolve returns the path of the account named nameOrPath, with ok set. When
// no account has that name, nameOrPath is returned unchanged as the path.
func (cfg AccountsConfig) Resolve(nameOrPath string) (path string, ok bool) {
	for _, account := range cfg.Accounts {
		if account.Name == nameOrPath {
			return account.Path, true
		}
	}
	return nameOrPath, false
}

// Names lists the account names in file order.
func (cfg AccountsConfig) Names() []string {
	names := make([]string, 0, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		names = append(names, account.Name)
	}
	return names
}

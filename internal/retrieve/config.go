// Package retrieve fetches transactions from bank Open-Banking APIs and
// maps them into canonical records. The endpoints and payloads here are
// conceptual; real banks wrap them in their own OAuth2 flows, but the
// shape of the client stays the same.
package retrieve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BankConfig describes one bank's API surface and how its response
// fields map onto record fields.
type BankConfig struct {
	BaseURL              string `yaml:"base_url"`
	AuthEndpoint         string `yaml:"auth_endpoint"`
	TransactionsEndpoint string `yaml:"transactions_endpoint"`

	APIKey       string `yaml:"api_key"`
	ClientSecret string `yaml:"client_secret"`
	AccountID    string `yaml:"account_id"`

	AccountKind string `yaml:"account_kind"`
	Currency    string `yaml:"currency"`

	// Mapping translates API response keys to record fields. Values are
	// one of: date, description, currency, amount, note.
	Mapping map[string]string `yaml:"mapping"`
}

// Config holds per-bank API configurations keyed by bank ID.
type Config struct {
	DefaultBank string                `yaml:"default_bank"`
	Banks       map[string]BankConfig `yaml:"banks"`
}

// LoadConfig reads bank API configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read API config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse API config %s: %w", path, err)
	}
	if len(cfg.Banks) == 0 {
		return nil, fmt.Errorf("API config %s declares no banks", path)
	}
	for id, bank := range cfg.Banks {
		if err := bank.validate(); err != nil {
			return nil, fmt.Errorf("bank %s: %w", id, err)
		}
	}
	if cfg.DefaultBank != "" {
		if _, ok := cfg.Banks[cfg.DefaultBank]; !ok {
			return nil, fmt.Errorf("default bank %s not declared", cfg.DefaultBank)
		}
	}
	return &cfg, nil
}

// Bank returns the configuration for bankID, falling back to the
// default bank when bankID is empty.
func (c *Config) Bank(bankID string) (*BankConfig, error) {
	if bankID == "" {
		bankID = c.DefaultBank
	}
	bank, ok := c.Banks[bankID]
	if !ok {
		return nil, fmt.Errorf("no configuration for bank %q", bankID)
	}
	return &bank, nil
}

func (b *BankConfig) validate() error {
	if b.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if b.AuthEndpoint == "" {
		return fmt.Errorf("auth_endpoint is required")
	}
	if b.TransactionsEndpoint == "" {
		return fmt.Errorf("transactions_endpoint is required")
	}
	if b.AccountID == "" {
		return fmt.Errorf("account_id is required")
	}
	if b.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if len(b.Mapping) == 0 {
		return fmt.Errorf("mapping is required")
	}
	hasDate, hasAmount := false, false
	for key, field := range b.Mapping {
		switch field {
		case "date":
			hasDate = true
		case "amount":
			hasAmount = true
		case "description", "currency", "note":
		default:
			return fmt.Errorf("mapping key %s targets unknown field %q", key, field)
		}
	}
	if !hasDate || !hasAmount {
		return fmt.Errorf("mapping must cover date and amount")
	}
	return nil
}

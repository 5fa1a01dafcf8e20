package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// MuteRule silences notifications for matching subscriptions, optionally only
// inside a date window.
type MuteRule struct {
	Pattern string `yaml:"pattern"`
	Before  string `yaml:"before,omitempty"` // Mute only before this date (YYYY-MM-DD)
	After   string `yaml:"after,omitempty"`  // Mute only on or after this date (YYYY-MM-DD)

	// compiled fields
	regex      *regexp.Regexp `yaml:"-"`
	beforeDate Date           `yaml:"-"`
	afterDate  Date           `yaml:"-"`
}

type Config struct {
	// StoreDir holds one YAML file per user
	StoreDir string `yaml:"store_dir,omitempty"`

	// User selects the collection inside StoreDir
	User string `yaml:"user,omitempty"`

	// Currency is the default for new subscriptions. Empty means detect from the system locale.
	Currency string `yaml:"currency,omitempty"`

	// Outbox is where the notify command writes the scheduled reminders
	Outbox string `yaml:"outbox,omitempty"`

	Notifications NotificationRules `yaml:"notifications,omitempty"`

	// Mute is a list of rules (plain patterns or objects with date bounds)
	Mute []yaml.Node `yaml:"mute,omitempty"`

	// compiled mute rules (not serialized)
	muteRules []MuteRule `yaml:"-"`

	// outboxDerived is set when Outbox was filled in from StoreDir
	outboxDerived bool `yaml:"-"`
}

// DefaultConfigDir returns ~/.subscription-reminder
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".subscription-reminder")
}

// DefaultConfigPath returns the default config file path (~/.subscription-reminder/config.yaml)
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// NewDefaultConfig creates a config used when no config file exists.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse mute rules (supports both strings and objects)
	for _, node := range cfg.Mute {
		var rule MuteRule

		if node.Kind == yaml.ScalarNode {
			rule.Pattern = node.Value
		} else if node.Kind == yaml.MappingNode {
			if err := node.Decode(&rule); err != nil {
				return nil, fmt.Errorf("parsing mute rule: %w", err)
			}
		} else {
			return nil, fmt.Errorf("invalid mute rule format")
		}

		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid mute pattern %q: %w", rule.Pattern, err)
		}
		rule.regex = re

		if rule.Before != "" {
			d, err := ParseDate(rule.Before)
			if err != nil {
				return nil, fmt.Errorf("invalid 'before' date in mute rule: %w", err)
			}
			rule.beforeDate = d
		}
		if rule.After != "" {
			d, err := ParseDate(rule.After)
			if err != nil {
				return nil, fmt.Errorf("invalid 'after' date in mute rule: %w", err)
			}
			rule.afterDate = d
		}

		cfg.muteRules = append(cfg.muteRules, rule)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StoreDir == "" {
		if dir := DefaultConfigDir(); dir != "" {
			c.StoreDir = filepath.Join(dir, "store")
		} else {
			c.StoreDir = "store"
		}
	}
	if c.User == "" {
		c.User = "default"
	}
	if c.Outbox == "" {
		c.Outbox = outboxFor(c.StoreDir)
		c.outboxDerived = true
	}
	c.Notifications = c.Notifications.withDefaults()
}

// SetStoreDir points the config at another store directory. An outbox that was
// not configured explicitly moves along with it.
func (c *Config) SetStoreDir(dir string) {
	c.StoreDir = dir
	if c.outboxDerived || c.Outbox == "" {
		c.Outbox = outboxFor(dir)
		c.outboxDerived = true
	}
}

func outboxFor(storeDir string) string {
	return filepath.Join(filepath.Dir(storeDir), "outbox.yaml")
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultCurrency returns the configured currency, the system currency, or USD.
func (c *Config) DefaultCurrency() string {
	if c != nil && c.Currency != "" {
		return GetCurrency(c.Currency).Code
	}
	if code := DetectSystemCurrency(); code != "" {
		return code
	}
	return "USD"
}

// IsMuted reports whether notifications for sub are silenced on the given day.
func (c *Config) IsMuted(sub Subscription, today Date) bool {
	if c == nil {
		return false
	}
	for _, rule := range c.muteRules {
		if !rule.regex.MatchString(sub.Name) {
			continue
		}
		if !rule.beforeDate.IsZero() && !today.Before(rule.beforeDate) {
			continue
		}
		if !rule.afterDate.IsZero() && today.Before(rule.afterDate) {
			continue
		}
		return true
	}
	return false
}

// FilterMuted drops subscriptions whose notifications are silenced today.
func (c *Config) FilterMuted(subs []Subscription, today Date) []Subscription {
	if c == nil || len(c.muteRules) == 0 {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		if !c.IsMuted(sub, today) {
			result = append(result, sub)
		}
	}
	return result
}

// ConfigTemplate is written by init-config.
func ConfigTemplate() *Config {
	cfg := NewDefaultConfig()
	cfg.Currency = "USD"
	return cfg
}

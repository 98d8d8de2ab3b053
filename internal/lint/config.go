package lint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSetting overrides behavior of a single rule.
type RuleSetting struct {
	Enabled  *bool    `yaml:"enabled"`
	Severity Severity `yaml:"severity"`
}

// Config holds per-rule settings loaded from a YAML file. Rules absent from
// the map run with their defaults.
type Config struct {
	Rules map[string]RuleSetting `yaml:"rules"`
}

// DefaultConfig enables every rule at its default severity.
func DefaultConfig() Config {
	return Config{}
}

// LoadConfig reads rule settings from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rules config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse rules config: %w", err)
	}
	for rule, setting := range cfg.Rules {
		switch setting.Severity {
		case "", SeverityError, SeverityWarning, SeverityInfo:
		default:
			return Config{}, fmt.Errorf("rule %s: unknown severity %q", rule, setting.Severity)
		}
	}
	return cfg, nil
}

// Enabled reports whether a rule should run.
func (c Config) Enabled(rule string) bool {
	setting, ok := c.Rules[rule]
	if !ok || setting.Enabled == nil {
		return true
	}
	return *setting.Enabled
}

// Apply drops findings from disabled rules and applies severity overrides.
// Overrides relabel findings but never suppress them.
func (c Config) Apply(findings []Finding) []Finding {
	out := findings[:0]
	for _, f := range findings {
		if !c.Enabled(f.Rule) {
			continue
		}
		if setting, ok := c.Rules[f.Rule]; ok && setting.Severity != "" {
			f.Severity = setting.Severity
		}
		out = append(out, f)
	}
	return out
}

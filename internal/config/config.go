package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/robert-at-pretension-io/rdl-lint/internal/rdl"
)

// Config is the top-level configuration for rdl-lint
type Config struct {
	// Designs is a list of glob patterns for design documents
	Designs []string `json:"designs,omitempty"`

	// Properties declares user-defined properties
	Properties []PropertyDecl `json:"properties,omitempty"`

	// Lint contains diagnostic configuration
	Lint LintConfig `json:"lint,omitempty"`

	// Facts controls fact table output
	Facts FactsConfig `json:"facts,omitempty"`
}

// LintConfig contains linting configuration
type LintConfig struct {
	// Rules maps diagnostic codes to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty"`

	// IgnorePatterns is a list of design file patterns to skip entirely
	IgnorePatterns []string `json:"ignorePatterns,omitempty"`

	// SuggestUnknown adds "did you mean" hints to unknown-property diagnostics
	SuggestUnknown *bool `json:"suggestUnknown,omitempty"`
}

// FactsConfig controls where fact tables are written
type FactsConfig struct {
	// Dir is the output directory (relative to project root if not absolute)
	Dir string `json:"dir,omitempty"`
}

// PropertyDecl declares a user-defined property
type PropertyDecl struct {
	Name string `json:"name"`

	// Bindings lists component kinds, or "all"
	Bindings []string `json:"bindings"`

	// Type is the value kind: boolean, longint unsigned, string, accesstype,
	// a component kind for references, ...
	Type string `json:"type"`

	Default any    `json:"default,omitempty"`
	Dynamic bool   `json:"dynamic,omitempty"`
	Mutex   string `json:"mutex,omitempty"`

	// Policy is a rego file checked against every resolved value
	Policy string `json:"policy,omitempty"`

	Doc string `json:"doc,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Designs: []string{"*.rdl.yaml", "**/*.rdl.yaml"},
		Lint: LintConfig{
			Rules:          map[string]string{},
			IgnorePatterns: []string{},
			SuggestUnknown: boolPtr(true),
		},
		Facts: FactsConfig{
			Dir: ".rdl_lint_facts",
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// Load finds and loads the configuration file
// Search order:
//  1. ./rdl_lint.json (current working directory)
//  2. ./.rdl_lint.json (current working directory)
//  3. <rootPath>/rdl_lint.json (if different from cwd)
//  4. ~/.config/rdl_lint/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	path, ok := Find(rootPath)
	if !ok {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// Find returns the first config file on the search path.
func Find(rootPath string) (string, bool) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "rdl_lint.json"),
		filepath.Join(cwd, ".rdl_lint.json"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "rdl_lint.json"),
				filepath.Join(rootPath, ".rdl_lint.json"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "rdl_lint", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// LoadFile loads configuration from a specific file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Policy paths are relative to the config file
	dir := filepath.Dir(path)
	for i := range cfg.Properties {
		p := cfg.Properties[i].Policy
		if p != "" && !filepath.IsAbs(p) {
			cfg.Properties[i].Policy = filepath.Join(dir, p)
		}
	}

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if len(c.Designs) == 0 {
		c.Designs = def.Designs
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
	if c.Lint.SuggestUnknown == nil {
		c.Lint.SuggestUnknown = boolPtr(true)
	}
	if c.Facts.Dir == "" {
		c.Facts.Dir = def.Facts.Dir
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a diagnostic code, or the default if not configured
func (c *Config) GetRuleSeverity(code string, defaultSeverity string) string {
	if severity, ok := c.Lint.Rules[code]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the code is not set to "off"
func (c *Config) IsRuleEnabled(code string) bool {
	if severity, ok := c.Lint.Rules[code]; ok {
		return severity != "off"
	}
	return true
}

// ShouldSuggest reports whether unknown-property diagnostics carry hints
func (c *Config) ShouldSuggest() bool {
	return c.Lint.SuggestUnknown == nil || *c.Lint.SuggestUnknown
}

// ShouldIgnoreFile checks if a design file should be skipped entirely
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	for _, pattern := range c.Lint.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
	}
	return false
}

// BindableTo parses Bindings.
func (d PropertyDecl) BindableTo() (rdl.KindSet, error) {
	var set rdl.KindSet
	for _, b := range d.Bindings {
		if strings.EqualFold(b, "all") {
			return rdl.AnyKind, nil
		}
		k, err := rdl.ParseComponentKind(b)
		if err != nil {
			return 0, fmt.Errorf("property %s: %w", d.Name, err)
		}
		set |= rdl.Kinds(k)
	}
	if set == 0 {
		return 0, fmt.Errorf("property %s: no bindings", d.Name)
	}
	return set, nil
}

// ValueKind parses Type.
func (d PropertyDecl) ValueKind() (rdl.ValueKind, error) {
	k, err := rdl.ParseValueKind(d.Type)
	if err != nil {
		return rdl.KindInvalid, fmt.Errorf("property %s: %w", d.Name, err)
	}
	return k, nil
}

// DefaultValue converts the JSON default into a value of the declared kind.
// A missing default yields nil.
func (d PropertyDecl) DefaultValue() (rdl.Value, error) {
	if d.Default == nil {
		return nil, nil
	}
	kind, err := d.ValueKind()
	if err != nil {
		return nil, err
	}
	switch v := d.Default.(type) {
	case bool:
		if kind == rdl.KindBool || kind == rdl.KindInt {
			return rdl.Bool(v), nil
		}
	case float64:
		if (kind == rdl.KindInt || kind == rdl.KindBool) && v >= 0 && v == math.Trunc(v) {
			return rdl.Int(uint64(v)), nil
		}
	case string:
		switch {
		case kind == rdl.KindString:
			return rdl.String(v), nil
		case kind >= rdl.KindAccessType && kind <= rdl.KindAddressingType:
			lit, err := rdl.BuiltinEnum(kind, v)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", d.Name, err)
			}
			return lit, nil
		}
	}
	return nil, fmt.Errorf("property %s: default %v is not a valid %s", d.Name, d.Default, kind)
}

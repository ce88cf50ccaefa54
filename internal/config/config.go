package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for jsonsampler
type Config struct {
	Template     TemplateConfig     `yaml:"template"`
	Input        InputConfig        `yaml:"input"`
	Arrays       ArraysConfig       `yaml:"arrays"`
	Placeholders PlaceholdersConfig `yaml:"placeholders"`
	Expansion    ExpansionConfig    `yaml:"expansion"`
	Dev          DevConfig          `yaml:"dev"`
}

// TemplateConfig controls template output
type TemplateConfig struct {
	Name   string `yaml:"name"`
	Indent int    `yaml:"indent"`
}

// InputConfig controls which files are picked up from directories
type InputConfig struct {
	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`
}

// ArraysConfig controls how many elements synthesized arrays get
type ArraysConfig struct {
	DefaultCount int            `yaml:"default_count"`
	MaxCount     int            `yaml:"max_count"` // 0 means unbounded
	Counts       map[string]int `yaml:"counts"`
}

// PlaceholdersConfig holds user placeholder rules, checked before the built-in table
type PlaceholdersConfig struct {
	Rules []PlaceholderRule `yaml:"rules"`
}

// PlaceholderRule maps a path pattern to a placeholder value
type PlaceholderRule struct {
	Pattern string `yaml:"pattern"`
	Value   any    `yaml:"value"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// ExpansionConfig controls the initial tree expansion state
type ExpansionConfig struct {
	// InitialLevel expands every property at or above this level; -1 keeps
	// everything below the root collapsed.
	InitialLevel int `yaml:"initial_level"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Template: TemplateConfig{
			Name:   "template",
			Indent: 2,
		},
		Input: InputConfig{
			Extensions: []string{".json"},
			Recursive:  true,
		},
		Arrays: ArraysConfig{
			DefaultCount: 2,
			MaxCount:     10,
			Counts:       make(map[string]int),
		},
		Placeholders: PlaceholdersConfig{
			Rules: []PlaceholderRule{},
		},
		Expansion: ExpansionConfig{
			InitialLevel: -1,
		},
		Dev: DevConfig{
			Debug:   false,
			Verbose: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compile regex patterns
	if err := cfg.compilePatterns(); err != nil {
		return nil, fmt.Errorf("failed to compile patterns: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings that cannot be clamped into something sensible.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var result error
	if c.Template.Indent < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid template indent %d: must not be negative", c.Template.Indent))
	}
	if c.Arrays.MaxCount < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid arrays max_count %d: must not be negative", c.Arrays.MaxCount))
	}
	for p, n := range c.Arrays.Counts {
		if n < 0 {
			result = multierror.Append(result, fmt.Errorf("invalid count %d for array %q: must not be negative", n, p))
		}
	}
	if c.Arrays.Counts == nil {
		c.Arrays.Counts = make(map[string]int)
	}
	return result
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonsampler.yml", ".jsonsampler.yaml", "jsonsampler.yml", "jsonsampler.yaml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Placeholders.Rules {
		rule := &c.Placeholders.Rules[i]
		regex, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("invalid placeholder pattern '%s': %w", rule.Pattern, err)
		}
		rule.regex = regex
	}
	return nil
}

// MatchesPath checks if this rule matches the given property path. Paths are
// matched in lower case.
func (pr *PlaceholderRule) MatchesPath(path string) bool {
	if pr.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(pr.Pattern)
		if err != nil {
			return false
		}
		pr.regex = regex
	}
	return pr.regex.MatchString(strings.ToLower(path))
}

// FindPlaceholder returns the value of the first rule matching path
func (c *Config) FindPlaceholder(path string) (any, bool) {
	for i := range c.Placeholders.Rules {
		rule := &c.Placeholders.Rules[i]
		if rule.MatchesPath(path) {
			return rule.Value, true
		}
	}
	return nil, false
}

// TemplateFileName derives the output file name from the template name,
// e.g. "Shipment Request" becomes "shipment-request.json".
func (c *Config) TemplateFileName() string {
	name := strcase.ToKebab(strings.TrimSuffix(c.Template.Name, ".json"))
	if name == "" {
		name = "template"
	}
	return name + ".json"
}

// ClampCount bounds an array element count to [1, max_count].
func (c *Config) ClampCount(n int) int {
	if n < 1 {
		n = 1
	}
	if c.Arrays.MaxCount > 0 && n > c.Arrays.MaxCount {
		n = c.Arrays.MaxCount
	}
	return n
}

// ArrayCount returns the configured element count for an array path
func (c *Config) ArrayCount(path string) int {
	if n, ok := c.Arrays.Counts[path]; ok {
		return c.ClampCount(n)
	}
	return c.ClampCount(c.Arrays.DefaultCount)
}

// HasExtension reports whether a file name carries one of the accepted extensions
func (c *Config) HasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range c.Input.Extensions {
		if ext == strings.ToLower(accepted) {
			return true
		}
	}
	return false
}

// MergeConfigs merges CLI overrides into a base config
// Non-empty values from override take precedence over base values
func MergeConfigs(base, override *Config) *Config {
	merged := *base // Start with a copy of base

	if override.Template.Name != "" {
		merged.Template.Name = override.Template.Name
	}
	if override.Template.Indent > 0 {
		merged.Template.Indent = override.Template.Indent
	}
	if override.Arrays.DefaultCount > 0 {
		merged.Arrays.DefaultCount = override.Arrays.DefaultCount
	}
	if len(override.Arrays.Counts) > 0 {
		counts := make(map[string]int, len(base.Arrays.Counts)+len(override.Arrays.Counts))
		for p, n := range base.Arrays.Counts {
			counts[p] = n
		}
		for p, n := range override.Arrays.Counts {
			counts[p] = n
		}
		merged.Arrays.Counts = counts
	}

	// Booleans can only be switched on from the command line
	merged.Dev.Debug = base.Dev.Debug || override.Dev.Debug

	return &merged
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath, cliName string, cliIndent int, cliCounts map[string]int, cliDebug bool) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	// Load config file if provided
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	override := &Config{
		Template: TemplateConfig{Name: cliName, Indent: cliIndent},
		Arrays:   ArraysConfig{Counts: cliCounts},
		Dev:      DevConfig{Debug: cliDebug},
	}
	return MergeConfigs(cfg, override), nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "template", cfg.Template.Name)
	assert.Equal(t, 2, cfg.Template.Indent)
	assert.Equal(t, []string{".json"}, cfg.Input.Extensions)
	assert.True(t, cfg.Input.Recursive)
	assert.Equal(t, 2, cfg.Arrays.DefaultCount)
	assert.Equal(t, 10, cfg.Arrays.MaxCount)
	assert.NotNil(t, cfg.Arrays.Counts)
	assert.Equal(t, -1, cfg.Expansion.InitialLevel)
	assert.False(t, cfg.Dev.Debug)
}

func TestConfig_LoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
template:
  name: "Shipment Request"
  indent: 4
input:
  extensions: [".json", ".har"]
arrays:
  default_count: 3
  max_count: 5
  counts:
    "packages": 4
placeholders:
  rules:
    - pattern: "tracking"
      value: "1Z999AA10123456784"
    - pattern: "^dims$"
      value:
        length: 10
        units: "CM"
expansion:
  initial_level: 1
dev:
  debug: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Shipment Request", cfg.Template.Name)
	assert.Equal(t, 4, cfg.Template.Indent)
	assert.Equal(t, []string{".json", ".har"}, cfg.Input.Extensions)
	assert.True(t, cfg.Input.Recursive, "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Arrays.DefaultCount)
	assert.Equal(t, 5, cfg.Arrays.MaxCount)
	assert.Equal(t, 4, cfg.Arrays.Counts["packages"])
	assert.Equal(t, 1, cfg.Expansion.InitialLevel)
	assert.True(t, cfg.Dev.Debug)

	require.Len(t, cfg.Placeholders.Rules, 2)
	assert.Equal(t, "tracking", cfg.Placeholders.Rules[0].Pattern)
	assert.Equal(t, map[string]any{"length": 10, "units": "CM"}, cfg.Placeholders.Rules[1].Value)
}

func TestConfig_LoadNonExistentFile(t *testing.T) {
	_, err := LoadConfig("/non/existent/config.yml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no such file or directory")
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, `
template:
  name: [unclosed array
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_LoadInvalidValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "template:\n  indent: -1\n"))
	assert.ErrorContains(t, err, "invalid template indent")

	_, err = LoadConfig(writeConfig(t, "arrays:\n  max_count: -3\n"))
	assert.ErrorContains(t, err, "invalid arrays max_count")

	_, err = LoadConfig(writeConfig(t, "template:\n  indent: -1\narrays:\n  max_count: -3\n"))
	assert.ErrorContains(t, err, "invalid template indent")
	assert.ErrorContains(t, err, "invalid arrays max_count", "all problems are reported together")

	_, err = LoadConfig(writeConfig(t, "arrays:\n  counts:\n    items: -2\n"))
	assert.ErrorContains(t, err, `invalid count -2 for array "items"`)

	_, err = LoadConfig(writeConfig(t, "placeholders:\n  rules:\n    - pattern: \"[broken\"\n      value: x\n"))
	assert.ErrorContains(t, err, "invalid placeholder pattern")
}

func TestConfig_FindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	nestedDir := filepath.Join(tmpDir, "project", "subdir")
	require.NoError(t, os.MkdirAll(nestedDir, 0o755))

	configPath := filepath.Join(tmpDir, "project", ".jsonsampler.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(`template: {name: "found"}`), 0o644))

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(nestedDir))

	foundPath := FindConfigFile()
	require.NotEmpty(t, foundPath, "Should find config file")

	foundContent, err := os.ReadFile(foundPath)
	require.NoError(t, err)
	assert.Contains(t, string(foundContent), `name: "found"`)
}

func TestConfig_FindConfigFileNotFound(t *testing.T) {
	tmpDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	assert.Empty(t, FindConfigFile())
}

func TestPlaceholderRule_MatchesPath(t *testing.T) {
	rule := PlaceholderRule{Pattern: "tracking(number|id)$", Value: "TRK"}

	assert.True(t, rule.MatchesPath("packages[0].trackingNumber"), "paths are matched in lower case")
	assert.True(t, rule.MatchesPath("trackingid"))
	assert.False(t, rule.MatchesPath("tracking.url"))
}

func TestPlaceholderRule_InvalidPattern(t *testing.T) {
	rule := PlaceholderRule{Pattern: "[invalid regex", Value: "x"}
	assert.False(t, rule.MatchesPath("anything"))
}

func TestConfig_FindPlaceholder(t *testing.T) {
	cfg := NewConfig()
	cfg.Placeholders.Rules = []PlaceholderRule{
		{Pattern: "email", Value: "qa@example.org"},
		{Pattern: ".*", Value: "fallback"},
	}

	value, found := cfg.FindPlaceholder("contact.Email")
	assert.True(t, found)
	assert.Equal(t, "qa@example.org", value)

	value, found = cfg.FindPlaceholder("anything")
	assert.True(t, found)
	assert.Equal(t, "fallback", value)

	_, found = NewConfig().FindPlaceholder("email")
	assert.False(t, found)
}

func TestConfig_TemplateFileName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Shipment Request", "shipment-request.json"},
		{"shipmentRequest", "shipment-request.json"},
		{"rates.json", "rates.json"},
		{"", "template.json"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Template.Name = tt.name
			assert.Equal(t, tt.expected, cfg.TemplateFileName())
		})
	}
}

func TestConfig_ArrayCount(t *testing.T) {
	cfg := NewConfig()
	cfg.Arrays.Counts = map[string]int{"items": 4, "zero": 0, "huge": 50}

	assert.Equal(t, 4, cfg.ArrayCount("items"))
	assert.Equal(t, 1, cfg.ArrayCount("zero"), "counts are clamped to at least one")
	assert.Equal(t, 10, cfg.ArrayCount("huge"), "counts are clamped to max_count")
	assert.Equal(t, 2, cfg.ArrayCount("unknown"))

	cfg.Arrays.MaxCount = 0
	assert.Equal(t, 50, cfg.ArrayCount("huge"), "zero max_count is unbounded")
}

func TestConfig_HasExtension(t *testing.T) {
	cfg := NewConfig()
	assert.True(t, cfg.HasExtension("a.json"))
	assert.True(t, cfg.HasExtension("A.JSON"))
	assert.False(t, cfg.HasExtension("a.txt"))
	assert.False(t, cfg.HasExtension("json"))
}

func TestConfig_MergeWithCLI(t *testing.T) {
	base := NewConfig()
	base.Template.Name = "rates"
	base.Arrays.Counts = map[string]int{"items": 3, "tags": 2}

	override := &Config{
		Template: TemplateConfig{Indent: 4},
		Arrays:   ArraysConfig{Counts: map[string]int{"items": 5}},
		Dev:      DevConfig{Debug: true},
	}

	merged := MergeConfigs(base, override)
	assert.Equal(t, "rates", merged.Template.Name, "empty override keeps base")
	assert.Equal(t, 4, merged.Template.Indent)
	assert.Equal(t, map[string]int{"items": 5, "tags": 2}, merged.Arrays.Counts)
	assert.True(t, merged.Dev.Debug)
	assert.Equal(t, 3, base.Arrays.Counts["items"], "base is not modified")
}

func TestLoadConfigWithPrecedence(t *testing.T) {
	path := writeConfig(t, `
template:
  name: "from-file"
  indent: 3
arrays:
  default_count: 4
`)

	cfg, err := LoadConfigWithCLI(path, "from-cli", 0, map[string]int{"items": 7}, true)
	require.NoError(t, err)

	assert.Equal(t, "from-cli", cfg.Template.Name)
	assert.Equal(t, 3, cfg.Template.Indent)
	assert.Equal(t, 4, cfg.Arrays.DefaultCount)
	assert.Equal(t, 7, cfg.Arrays.Counts["items"])
	assert.True(t, cfg.Dev.Debug)
}

func TestLoadConfigWithPrecedence_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithCLI("", "", 0, nil, false)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)

	_, err = LoadConfigWithCLI("/missing.yml", "", 0, nil, false)
	assert.Error(t, err)
}

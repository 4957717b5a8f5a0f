package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-mixed-pipeline/internal/config"
	"github.com/askiada/go-mixed-pipeline/internal/logger"
)

func layout(t *testing.T) (string, string) {
	t.Helper()

	root := t.TempDir()
	packages := filepath.Join(root, "packages")
	require.NoError(t, os.Mkdir(packages, 0o755))

	template := filepath.Join(root, "config.template")
	require.NoError(t, os.WriteFile(template, []byte(`{"name": "$config_name"}`), 0o600))

	return packages, template
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	packages, template := layout(t)

	v := viper.New()
	v.Set("packages", packages)
	v.Set("template", template)

	cfg, err := config.Load(v, "", "")
	require.NoError(t, err)
	assert.Equal(t, &config.Config{
		Packages: packages,
		Template: template,
		Output:   "config.json",
		Log: logger.Config{
			Level:     "info",
			Format:    "console",
			Output:    "stderr",
			Timestamp: true,
		},
	}, cfg)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	packages, template := layout(t)
	configFile := filepath.Join(t.TempDir(), "configgen.yaml")
	content := "packages: " + packages + "\n" +
		"template: " + template + "\n" +
		"strict: true\n" +
		"fork_limit: 4\n" +
		"log:\n  level: debug\n  format: json\n"
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o600))

	cfg, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.env"), configFile)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 4, cfg.ForkLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnv(t *testing.T) {
	packages, template := layout(t)

	t.Setenv("CONFIGGEN_PACKAGES", packages)
	t.Setenv("CONFIGGEN_TEMPLATE", template)
	t.Setenv("CONFIGGEN_LOG_LEVEL", "warn")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONFIGGEN_SUMMARY=true\nCONFIGGEN_GRAPH=pipeline.dot\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CONFIGGEN_SUMMARY")
		os.Unsetenv("CONFIGGEN_GRAPH")
	})

	cfg, err := config.Load(viper.New(), envFile, "")
	require.NoError(t, err)
	assert.Equal(t, packages, cfg.Packages)
	assert.True(t, cfg.Summary)
	assert.Equal(t, "pipeline.dot", cfg.Graph)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	packages, template := layout(t)

	tcs := map[string]struct {
		values   map[string]any
		expected string
	}{
		"missing packages": {
			values:   map[string]any{"packages": filepath.Join(packages, "missing"), "template": template},
			expected: "Config.Packages: failed on dir",
		},
		"template is a directory": {
			values:   map[string]any{"packages": packages, "template": packages},
			expected: "Config.Template: failed on file",
		},
		"output with separator": {
			values:   map[string]any{"packages": packages, "template": template, "output": "out/config.json"},
			expected: "Config.Output: failed on excludesall",
		},
		"negative fork limit": {
			values:   map[string]any{"packages": packages, "template": template, "fork_limit": -1},
			expected: "Config.ForkLimit: failed on gte",
		},
		"bad log level": {
			values:   map[string]any{"packages": packages, "template": template, "log.level": "loud"},
			expected: "invalid log level",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v := viper.New()
			for k, val := range tc.values {
				v.Set(k, val)
			}

			_, err := config.Load(v, "", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}

	_, err := config.Load(viper.New(), "", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

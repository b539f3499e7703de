package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"forecast-backend/application/query"
	"forecast-backend/domain/versioning"
	"forecast-backend/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadConfig tests configuration loading from environment variables.
func TestLoadConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("MAX_TOP", "25")
	t.Setenv("ASSUME_DEFAULT_VERSION", "false")
	t.Setenv("FORECAST_SEED", "42")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("ENABLE_TRACING", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.Production, cfg.Environment)
	assert.Equal(t, 25, cfg.Query.MaxTop)
	assert.False(t, cfg.Query.AssumeDefaultVersion)
	assert.Equal(t, int64(42), cfg.Forecast.Seed)
	assert.True(t, cfg.Features.EnableMetrics)
	assert.Len(t, cfg.Versions, 2)
}

func TestLoadConfig_InvalidSeed(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("FORECAST_SEED", "abc")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_FileThenEnvironment(t *testing.T) {
	path := writeFile(t, `
logLevel: debug
query:
  maxTop: 3
versions:
  - version: "1.0"
    variant: standard
    deprecated: true
  - version: "3.1"
    variant: standard
    allowedDirectives: [top, $filter]
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_TOP", "7")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENABLE_TRACING", "")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Query.MaxTop)
	require.Len(t, cfg.Versions, 2)
	assert.True(t, cfg.Versions[0].Deprecated)

	constraints, err := cfg.Constraints()
	require.NoError(t, err)
	v31 := versioning.New(3, 1)
	assert.Equal(t, []query.DirectiveKind{query.DirectiveFilter, query.DirectiveTop}, constraints.AllowedFor(v31))
	assert.Len(t, constraints.AllowedFor(versioning.New(1, 0)), len(query.AllDirectives()))
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeFile(t, "maxTopp: 3\n")
	err := config.LoadFile(path, config.Default())
	assert.Error(t, err)
}

// TestConfigValidation tests the cross-field rules.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{
			name:   "default config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "max top below one",
			mutate:  func(c *config.Config) { c.Query.MaxTop = 0 },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *config.Config) { c.LogLevel = "trace" },
			wantErr: true,
		},
		{
			name:    "default version not declared",
			mutate:  func(c *config.Config) { c.Query.DefaultVersion = "9.0" },
			wantErr: true,
		},
		{
			name: "undeclared default is fine without assume default",
			mutate: func(c *config.Config) {
				c.Query.DefaultVersion = "9.0"
				c.Query.AssumeDefaultVersion = false
			},
		},
		{
			name:    "version declared twice",
			mutate:  func(c *config.Config) { c.Versions[1].Version = "v1" },
			wantErr: true,
		},
		{
			name:    "unknown variant",
			mutate:  func(c *config.Config) { c.Versions[0].Variant = "legacy" },
			wantErr: true,
		},
		{
			name:    "unknown directive",
			mutate:  func(c *config.Config) { c.Versions[0].AllowedDirectives = []string{"top", "expand"} },
			wantErr: true,
		},
		{
			name:    "no versions",
			mutate:  func(c *config.Config) { c.Versions = nil },
			wantErr: true,
		},
		{
			name:    "tracing without endpoint",
			mutate:  func(c *config.Config) { c.Features.EnableTracing = true },
			wantErr: true,
		},
		{
			name: "tracing with endpoint",
			mutate: func(c *config.Config) {
				c.Features.EnableTracing = true
				c.Features.OTLPEndpoint = "localhost:4317"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConstraints_RequiresTop(t *testing.T) {
	cfg := config.Default()
	cfg.Versions[0].AllowedDirectives = []string{"filter"}
	require.NoError(t, cfg.Validate())

	_, err := cfg.Constraints()
	assert.Error(t, err)
}

func TestHandlerDescriptors(t *testing.T) {
	descs, err := config.Default().HandlerDescriptors()
	require.NoError(t, err)
	require.Len(t, descs, 2)

	assert.Equal(t, versioning.New(1, 0), descs[0].Version)
	assert.Equal(t, config.VariantStandard, descs[0].Variant.Name)
	assert.Nil(t, descs[0].Variant.Rewrite)

	v2 := descs[1].Variant
	assert.Equal(t, config.VariantRewrite, v2.Name)
	require.NotNil(t, v2.Rewrite)
	assert.Equal(t, "$filter=x", v2.Rewrite("$top=2&$filter=x&skip=1"))
	assert.Contains(t, v2.UnsupportedKeys, "$expand")
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := writeFile(t, "logLevel: info\n")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENABLE_TRACING", "")

	initial := config.Default()
	require.NoError(t, config.LoadFile(path, initial))

	w, err := config.NewConfigWatcher(initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	var mu sync.Mutex
	var got string
	w.OnChange(func(c *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		got = c.LogLevel
	})

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	w.Reload()
	mu.Lock()
	assert.Equal(t, "debug", got)
	mu.Unlock()
	assert.Equal(t, "debug", w.GetConfig().LogLevel)

	t.Run("Should keep the previous config when the file is invalid", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("logLevel: loud\n"), 0o600))
		w.Reload()
		assert.Equal(t, "debug", w.GetConfig().LogLevel)
	})
}

func TestConfigWatcher_DisabledOutsideDevelopment(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.Production
	cfg.ConfigFile = "unused.yaml"

	w, err := config.NewConfigWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}

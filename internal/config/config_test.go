package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claude-code-mcp/internal/errors"
)

func envOf(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))

	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 300*time.Second, cfg.Timeout)
	require.Equal(t, 10000, cfg.MaxInputLength)
}

func TestFromEnv_AllValues(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		EnvCLIPath:        " /usr/local/bin/claude ",
		EnvExtraArgs:      "--model  sonnet",
		EnvTimeout:        "90",
		EnvMaxInputLength: "2000",
		EnvLogLevel:       "debug",
		EnvLogFormat:      "json",
		EnvSkipVersion:    "true",
	}))

	require.NoError(t, err)
	require.Equal(t, Config{
		CLIPath:          "/usr/local/bin/claude",
		CLIArgs:          []string{"--model", "sonnet"},
		Timeout:          90 * time.Second,
		MaxInputLength:   2000,
		LogLevel:         "debug",
		LogFormat:        "json",
		SkipVersionCheck: true,
	}, cfg)
}

func TestFromEnv_Malformed(t *testing.T) {
	tests := map[string]string{
		EnvTimeout:        "soon",
		EnvMaxInputLength: "lots",
		EnvSkipVersion:    "maybe",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := FromEnv(envOf(map[string]string{key: value}))

			require.Error(t, err)
			require.Contains(t, err.Error(), key)
		})
	}
}

func TestBindFlags_OverrideEnv(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		EnvCLIPath: "/env/claude",
		EnvTimeout: "10s",
	}))
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--cli-path", "/flag/claude",
		"--cli-arg", "--model", "--cli-arg", "opus",
		"--log-level", "warn",
	}))

	require.Equal(t, "/flag/claude", cfg.CLIPath)
	require.Equal(t, []string{"--model", "opus"}, cfg.CLIArgs)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.CLIPath = "/usr/local/bin/claude"
	require.NoError(t, valid.Validate())

	t.Run("missing path", func(t *testing.T) {
		err := Default().Validate()

		require.ErrorIs(t, err, errors.ErrMissingConfig)
		require.Contains(t, err.Error(), EnvCLIPath)
	})

	mutations := map[string]func(*Config){
		"zero timeout":   func(c *Config) { c.Timeout = 0 },
		"zero max input": func(c *Config) { c.MaxInputLength = 0 },
		"bad log level":  func(c *Config) { c.LogLevel = "loud" },
		"bad log format": func(c *Config) { c.LogFormat = "yaml" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)

			require.Error(t, cfg.Validate())
		})
	}
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("300")
	require.NoError(t, err)
	require.Equal(t, 300*time.Second, d)

	d, err = ParseTimeout("1m30s")
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, d)

	_, err = ParseTimeout("later")
	require.Error(t, err)

	d, err = ParseTimeout("9223372036")
	require.NoError(t, err)
	require.Positive(t, d)

	_, err = ParseTimeout("9300000000")
	require.ErrorContains(t, err, "out of range")

	_, err = ParseTimeout("99999999999999999999")
	require.Error(t, err)
}

// Package config holds the server's immutable runtime configuration.
//
// Values come from environment variables and may be overridden by command
// line flags. The resulting Config is built once at startup and passed
// explicitly to the components that need it.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/wagiedev/claude-code-mcp/internal/errors"
	"github.com/wagiedev/claude-code-mcp/internal/logging"
	"github.com/wagiedev/claude-code-mcp/internal/prompt"
	"github.com/wagiedev/claude-code-mcp/internal/subprocess"
)

// Environment variables read by FromEnv.
const (
	EnvCLIPath        = "CLAUDE_CLI_PATH"
	EnvExtraArgs      = "CLAUDE_EXTRA_ARGS"
	EnvTimeout        = "CLAUDE_TIMEOUT"
	EnvMaxInputLength = "MAX_INPUT_LENGTH"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvSkipVersion    = "CLAUDE_SKIP_VERSION_CHECK"
)

// Config is the server configuration.
type Config struct {
	// CLIPath is the absolute path to the Claude CLI binary. Required.
	CLIPath string
	// CLIArgs are extra arguments appended after the print-mode flag.
	CLIArgs []string
	// Timeout bounds a single CLI run.
	Timeout time.Duration
	// MaxInputLength is the per-argument character limit for prompts.
	MaxInputLength int
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is text or json.
	LogFormat string
	// SkipVersionCheck disables the startup `claude -v` probe.
	SkipVersionCheck bool
}

// Default returns a Config with every optional field at its default.
func Default() Config {
	return Config{
		Timeout:        subprocess.DefaultTimeout,
		MaxInputLength: prompt.DefaultMaxInputLength,
		LogLevel:       "info",
		LogFormat:      string(logging.FormatText),
	}
}

// FromEnv builds a Config from the environment using getenv (os.Getenv in
// production). Malformed values are errors; absent values keep defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.CLIPath = strings.TrimSpace(getenv(EnvCLIPath))

	if v := getenv(EnvExtraArgs); v != "" {
		cfg.CLIArgs = strings.Fields(v)
	}

	if v := getenv(EnvTimeout); v != "" {
		d, err := ParseTimeout(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTimeout, err)
		}

		cfg.Timeout = d
	}

	if v := getenv(EnvMaxInputLength); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMaxInputLength, err)
		}

		cfg.MaxInputLength = n
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}

	if v := getenv(EnvSkipVersion); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvSkipVersion, err)
		}

		cfg.SkipVersionCheck = skip
	}

	return cfg, nil
}

// BindFlags registers flags on fs that override the fields of cfg. The
// current values of cfg become the flag defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.CLIPath, "cli-path", c.CLIPath,
		"absolute path to the Claude CLI binary (env "+EnvCLIPath+")")
	fs.StringSliceVar(&c.CLIArgs, "cli-arg", c.CLIArgs,
		"extra argument passed to the CLI after --print, repeatable (env "+EnvExtraArgs+")")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout,
		"maximum duration of a single CLI run (env "+EnvTimeout+")")
	fs.IntVar(&c.MaxInputLength, "max-input-length", c.MaxInputLength,
		"per-argument character limit before truncation (env "+EnvMaxInputLength+")")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel,
		"log level: debug, info, warn, error (env "+EnvLogLevel+")")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat,
		"log format: text or json (env "+EnvLogFormat+")")
	fs.BoolVar(&c.SkipVersionCheck, "skip-version-check", c.SkipVersionCheck,
		"skip the startup CLI version probe (env "+EnvSkipVersion+")")
}

// Validate reports configuration that would prevent the server from starting.
func (c Config) Validate() error {
	if c.CLIPath == "" {
		return fmt.Errorf("%w: %s (or --cli-path) must be set", errors.ErrMissingConfig, EnvCLIPath)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.MaxInputLength <= 0 {
		return fmt.Errorf("max input length must be positive, got %d", c.MaxInputLength)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}

	return nil
}

// ParseTimeout accepts a Go duration ("90s", "5m") or a bare number of seconds.
func ParseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)

	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs > math.MaxInt64/int64(time.Second) || secs < math.MinInt64/int64(time.Second) {
			return 0, fmt.Errorf("invalid timeout %q: out of range", v)
		}

		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", v, err)
	}

	return d, nil
}

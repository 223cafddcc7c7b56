package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/claude-code-mcp/internal/errors"
)

const (
	// MinimumVersion is the minimum supported Claude CLI version.
	MinimumVersion = "1.0.0"

	// VersionCheckTimeout is the timeout for the CLI version check command.
	VersionCheckTimeout = 2 * time.Second
)

var versionPattern = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)`)

// Config holds configuration for CLI discovery.
type Config struct {
	// CliPath is the absolute path to the Claude CLI binary. Required.
	CliPath string

	// SkipVersionCheck skips the `-v` probe during discovery.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	// If nil, output is discarded.
	Logger *slog.Logger
}

// Discoverer resolves and validates the Claude CLI binary.
type Discoverer interface {
	// Discover validates the configured CLI binary and returns its path.
	Discover(ctx context.Context) (string, error)
}

type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new CLI discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "cli_discovery"),
	}
}

// Discover validates the configured CLI path and probes its version.
//
// The path must be absolute and point at an executable regular file;
// anything else yields a CLINotFoundError. There is no PATH fallback.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	d.log.Debug("Resolving Claude CLI binary", "cli_path", d.cfg.CliPath)

	cliPath, err := d.resolve()
	if err != nil {
		d.log.Error("Failed to resolve Claude CLI", "error", err)

		return "", err
	}

	d.checkVersion(ctx, cliPath)

	return cliPath, nil
}

func (d *discoverer) resolve() (string, error) {
	path := d.cfg.CliPath

	if path == "" {
		return "", &errors.CLINotFoundError{Reason: "no path configured"}
	}

	if !filepath.IsAbs(path) {
		return "", &errors.CLINotFoundError{Path: path, Reason: "path must be absolute"}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &errors.CLINotFoundError{Path: path, Reason: err.Error()}
	}

	if !info.Mode().IsRegular() {
		return "", &errors.CLINotFoundError{Path: path, Reason: "not a regular file"}
	}

	if info.Mode().Perm()&0o111 == 0 {
		return "", &errors.CLINotFoundError{Path: path, Reason: "not executable"}
	}

	return filepath.Clean(path), nil
}

// checkVersion logs a warning if the CLI reports a version below
// MinimumVersion. Probe errors are logged at debug level and otherwise ignored.
func (d *discoverer) checkVersion(ctx context.Context, cliPath string) {
	if d.cfg.SkipVersionCheck {
		d.log.Debug("Skipping CLI version check (configured)")

		return
	}

	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	//nolint:gosec // G204: the binary path comes from operator configuration
	output, err := exec.CommandContext(ctx, cliPath, "-v").Output()
	if err != nil {
		d.log.Debug("CLI version check failed", "error", err)

		return
	}

	version, ok := ParseVersion(string(output))
	if !ok {
		d.log.Debug("Could not parse CLI version", "output", strings.TrimSpace(string(output)))

		return
	}

	if compareVersions(version, MinimumVersion) < 0 {
		d.log.Warn("Claude CLI version is older than supported",
			"version", version,
			"minimum_required", MinimumVersion,
		)

		return
	}

	d.log.Debug("CLI version check passed", "version", version, "minimum", MinimumVersion)
}

// ParseVersion extracts the leading "X.Y.Z" from `claude -v` output.
func ParseVersion(output string) (string, bool) {
	match := versionPattern.FindStringSubmatch(strings.TrimSpace(output))
	if match == nil {
		return "", false
	}

	return match[1], true
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum != bNum {
			if aNum < bNum {
				return -1
			}

			return 1
		}
	}

	return 0
}


// Package cli resolves the Claude Code CLI binary and builds its command line.
//
// # CLI Discovery
//
// The Discoverer validates the configured binary path once at startup:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    CliPath: "/usr/local/bin/claude", // required, absolute
//	    Logger:  slog.Default(),
//	})
//	cliPath, err := discoverer.Discover(ctx)
//
// The path must be absolute and executable. A missing path is a fatal
// startup error; there is no search of PATH or common install locations.
//
// # Version Validation
//
// During discovery the CLI is probed with `-v` and a warning is logged if it
// reports a version below MinimumVersion. The probe can be skipped with
// Config.SkipVersionCheck.
//
// # Command Building
//
//	args := cli.BuildArgs(extraArgs) // ["--print", extraArgs...]
package cli

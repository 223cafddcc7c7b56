package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/wagiedev/claude-code-mcp/internal/cli"
	"github.com/wagiedev/claude-code-mcp/internal/config"
	"github.com/wagiedev/claude-code-mcp/internal/logging"
	mcpserver "github.com/wagiedev/claude-code-mcp/internal/mcp"
	"github.com/wagiedev/claude-code-mcp/internal/prompt"
	"github.com/wagiedev/claude-code-mcp/internal/subprocess"
	"github.com/wagiedev/claude-code-mcp/internal/tools"
)

const serverName = "claude-code-mcp"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const instructions = "Tools in this server delegate to the Claude Code CLI. " +
	"Pass source code verbatim in the `code` argument; long inputs are truncated."

func newRootCmd(getenv func(string) string) *cobra.Command {
	cfg, envErr := config.FromEnv(getenv)

	root := &cobra.Command{
		Use:           serverName,
		Short:         "Serve Claude Code as MCP tools over stdio",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}

			return serve(cmd, cfg)
		},
	}

	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "Print the tool table as JSON and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printTools(cmd)
		},
	})

	return root
}

// serve is the composition root: it resolves the CLI once, wires the
// dispatcher and blocks serving MCP until stdin closes or a signal arrives.
func serve(cmd *cobra.Command, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	log := logging.New(cmd.ErrOrStderr(), level, format).With("server", serverName)

	ctx := cmd.Context()

	cliPath, err := cli.NewDiscoverer(&cli.Config{
		CliPath:          cfg.CLIPath,
		SkipVersionCheck: cfg.SkipVersionCheck,
		Logger:           log,
	}).Discover(ctx)
	if err != nil {
		return fmt.Errorf("resolve claude CLI: %w", err)
	}

	dispatcher := tools.NewDispatcher(tools.DispatcherConfig{
		CLIPath: cliPath,
		CLIArgs: cfg.CLIArgs,
		Timeout: cfg.Timeout,
		Builder: prompt.NewBuilder(cfg.MaxInputLength),
		Runner:  subprocess.NewRunner(log),
		Logger:  log,
	})

	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Error("Failed to close dispatcher", "error", err)
		}

		log.Info("Server stopped")
	}()

	log.Info("Starting server",
		slog.String("version", version),
		slog.String("cli_path", cliPath),
		slog.Duration("timeout", cfg.Timeout),
		slog.Int("max_input_length", cfg.MaxInputLength),
	)

	server := mcpserver.NewServer(mcpserver.Info{
		Name:         serverName,
		Version:      version,
		Instructions: instructions,
	}, dispatcher, log)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func printTools(cmd *cobra.Command) error {
	type toolJSON struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		InputSchema any    `json:"inputSchema"`
	}

	defs := tools.Definitions()
	out := make([]toolJSON, 0, len(defs))

	for _, def := range defs {
		out = append(out, toolJSON{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema(),
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode tools: %w", err)
	}

	return nil
}

package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wagiedev/claude-code-mcp/internal/cli"
	"github.com/wagiedev/claude-code-mcp/internal/errors"
	"github.com/wagiedev/claude-code-mcp/internal/prompt"
	"github.com/wagiedev/claude-code-mcp/internal/subprocess"
)

// Runner executes one CLI invocation. *subprocess.Runner implements it.
type Runner interface {
	Run(ctx context.Context, inv subprocess.Invocation) (string, error)
	Close() error
}

// Compile-time verification that the process runner satisfies Runner.
var _ Runner = (*subprocess.Runner)(nil)

// Request is one inbound tool call.
type Request struct {
	Name      string
	Arguments map[string]string
}

// DispatcherConfig holds the dispatcher's dependencies.
type DispatcherConfig struct {
	// CLIPath is the resolved Claude CLI binary.
	CLIPath string
	// CLIArgs are extra arguments after the print-mode flag.
	CLIArgs []string
	// Timeout bounds each CLI run.
	Timeout time.Duration
	// Builder renders prompts. Defaults to prompt.NewBuilder(0).
	Builder *prompt.Builder
	// Runner executes the CLI. Required.
	Runner Runner
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Dispatcher routes tool calls to the prompt builder and the CLI runner.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	cliPath string
	args    []string
	timeout time.Duration
	builder *prompt.Builder
	runner  Runner
	log     *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	builder := cfg.Builder
	if builder == nil {
		builder = prompt.NewBuilder(0)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Dispatcher{
		cliPath: cfg.CLIPath,
		args:    cli.BuildArgs(cfg.CLIArgs),
		timeout: cfg.Timeout,
		builder: builder,
		runner:  cfg.Runner,
		log:     log.With("component", "dispatcher"),
	}
}

// Definitions returns the tool table served by tools/list.
func (d *Dispatcher) Definitions() []Definition {
	return Definitions()
}

// Call runs one tool request and returns the CLI's trimmed output.
//
// Every error is a *errors.ToolError: CodeNotFound for an unknown tool
// (nothing is spawned), CodeInternal for anything else, wrapping the cause.
func (d *Dispatcher) Call(ctx context.Context, req Request) (string, error) {
	log := d.log.With("tool", req.Name)

	def, ok := Lookup(req.Name)
	if !ok {
		log.Warn("Unknown tool requested")

		return "", errors.NotFound(req.Name)
	}

	text, err := d.buildPrompt(def, req.Arguments)
	if err != nil {
		log.Error("Failed to build prompt", "error", err)

		return "", errors.Internal(req.Name, err)
	}

	inv := subprocess.Invocation{
		ID:      subprocess.NewInvocationID(),
		Path:    d.cliPath,
		Args:    d.args,
		Stdin:   text,
		Timeout: d.timeout,
	}

	log = log.With("invocation_id", inv.ID)
	log.Info("Invoking Claude CLI", "prompt_len", len(text))

	start := time.Now()

	out, err := d.runner.Run(ctx, inv)
	if err != nil {
		log.Error("Tool execution failed", "error", err, "duration", time.Since(start))

		return "", errors.Internal(req.Name, err)
	}

	log.Info("Tool execution finished", "output_len", len(out), "duration", time.Since(start))

	return out, nil
}

// Close releases the runner, killing any in-flight CLI processes.
func (d *Dispatcher) Close() error {
	return d.runner.Close()
}

func (d *Dispatcher) buildPrompt(def Definition, args map[string]string) (string, error) {
	for _, name := range def.Required() {
		if strings.TrimSpace(args[name]) == "" {
			return "", &errors.MissingArgumentError{Tool: def.Name, Argument: name}
		}
	}

	return d.builder.Build(def.Name, args)
}

package tools

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claude-code-mcp/internal/codec"
	"github.com/wagiedev/claude-code-mcp/internal/errors"
	"github.com/wagiedev/claude-code-mcp/internal/logging"
	"github.com/wagiedev/claude-code-mcp/internal/prompt"
	"github.com/wagiedev/claude-code-mcp/internal/subprocess"
)

// countingRunner records every invocation instead of spawning a process.
type countingRunner struct {
	mu     sync.Mutex
	calls  []subprocess.Invocation
	out    string
	err    error
	closed int
}

func (r *countingRunner) Run(_ context.Context, inv subprocess.Invocation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, inv)

	return r.out, r.err
}

func (r *countingRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed++

	return nil
}

func (r *countingRunner) spawned() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

func newDispatcher(runner Runner) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		CLIPath: "/usr/local/bin/claude",
		CLIArgs: []string{"--model", "sonnet"},
		Timeout: time.Minute,
		Runner:  runner,
		Logger:  logging.Nop(),
	})
}

func TestDefinitions_Table(t *testing.T) {
	want := map[string][]string{
		ExplainCode:     {"code"},
		ReviewCode:      {"code"},
		FixCode:         {"code", "issue_description"},
		EditCode:        {"code", "instructions"},
		TestCode:        {"code"},
		SimulateCommand: {"command"},
		YourOwnQuery:    {"query"},
	}

	defs := Definitions()
	require.Len(t, defs, len(want))

	for _, def := range defs {
		required, ok := want[def.Name]
		require.True(t, ok, "unexpected tool %s", def.Name)
		require.Equal(t, required, def.Required())
		require.NotEmpty(t, def.Description)
		require.True(t, prompt.Has(def.Name), "tool %s has no prompt template", def.Name)
	}
}

func TestDefinitions_ReturnsCopy(t *testing.T) {
	defs := Definitions()
	defs[0].Name = "mutated"
	defs[0].Arguments[0].Name = "mutated"

	def, ok := Lookup(ExplainCode)
	require.True(t, ok)
	require.Equal(t, "code", def.Arguments[0].Name)
}

func TestDefinition_InputSchema(t *testing.T) {
	def, ok := Lookup(TestCode)
	require.True(t, ok)

	schema := def.InputSchema()
	require.Equal(t, "object", schema.Type)
	require.Equal(t, []string{"code"}, schema.Required)
	require.Equal(t, "string", schema.Properties["code"].Type)
	require.JSONEq(t, `"`+prompt.DefaultTestFramework+`"`, string(schema.Properties["test_framework"].Default))
	require.Nil(t, schema.Properties["code"].Default)
}

func TestCall_UnknownToolSpawnsNothing(t *testing.T) {
	runner := &countingRunner{}

	_, err := newDispatcher(runner).Call(context.Background(), Request{
		Name:      "delete_everything",
		Arguments: map[string]string{"code": "rm -rf /"},
	})

	toolErr, ok := stderrors.AsType[*errors.ToolError](err)
	require.True(t, ok)
	require.Equal(t, errors.CodeNotFound, toolErr.Code)
	require.Contains(t, toolErr.Message, "delete_everything")
	require.Zero(t, runner.spawned())
}

func TestCall_MissingRequiredArgument(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		missing string
	}{
		{
			name:    "absent",
			req:     Request{Name: FixCode, Arguments: map[string]string{"code": "x"}},
			missing: "issue_description",
		},
		{
			name:    "blank",
			req:     Request{Name: ExplainCode, Arguments: map[string]string{"code": "  \n"}},
			missing: "code",
		},
		{
			name:    "nil arguments",
			req:     Request{Name: YourOwnQuery},
			missing: "query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &countingRunner{}

			_, err := newDispatcher(runner).Call(context.Background(), tt.req)

			toolErr, ok := stderrors.AsType[*errors.ToolError](err)
			require.True(t, ok)
			require.Equal(t, errors.CodeInternal, toolErr.Code)
			require.Contains(t, toolErr.Message, tt.missing)

			missingErr, ok := stderrors.AsType[*errors.MissingArgumentError](err)
			require.True(t, ok)
			require.Equal(t, tt.missing, missingErr.Argument)
			require.Zero(t, runner.spawned())
		})
	}
}

func TestCall_InvokesRunner(t *testing.T) {
	runner := &countingRunner{out: "This function adds two numbers."}
	code := "func add(a, b int) int { return a + b }"

	out, err := newDispatcher(runner).Call(context.Background(), Request{
		Name:      ExplainCode,
		Arguments: map[string]string{"code": code},
	})

	require.NoError(t, err)
	require.Equal(t, "This function adds two numbers.", out)
	require.Equal(t, 1, runner.spawned())

	inv := runner.calls[0]
	require.Equal(t, "/usr/local/bin/claude", inv.Path)
	require.Equal(t, []string{"--print", "--model", "sonnet"}, inv.Args)
	require.Equal(t, time.Minute, inv.Timeout)
	require.NotEmpty(t, inv.ID)
	require.Contains(t, inv.Stdin, "Explain the following code")
	require.Contains(t, inv.Stdin, codec.Encode(code))
}

func TestCall_RunnerFailureIsInternal(t *testing.T) {
	cause := &errors.ProcessError{ExitCode: 2, Stderr: "boom"}
	runner := &countingRunner{err: cause}

	_, err := newDispatcher(runner).Call(context.Background(), Request{
		Name:      YourOwnQuery,
		Arguments: map[string]string{"query": "hi"},
	})

	toolErr, ok := stderrors.AsType[*errors.ToolError](err)
	require.True(t, ok)
	require.Equal(t, errors.CodeInternal, toolErr.Code)
	require.Contains(t, toolErr.Message, "boom")
	require.ErrorIs(t, err, cause)
	require.Equal(t, 1, runner.spawned())
}

func TestDispatcher_Close(t *testing.T) {
	runner := &countingRunner{}
	d := newDispatcher(runner)

	require.NoError(t, d.Close())
	require.Equal(t, 1, runner.closed)
	require.Len(t, d.Definitions(), 7)
}

// TestCall_EndToEnd drives a real process that echoes the prompt it receives.
func TestCall_EndToEnd(t *testing.T) {
	script := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"mode: $1\"\ncat\n"), 0o755))

	runner := subprocess.NewRunner(logging.Nop())
	d := NewDispatcher(DispatcherConfig{
		CLIPath: script,
		Timeout: 5 * time.Second,
		Runner:  runner,
	})
	t.Cleanup(func() { _ = d.Close() })

	out, err := d.Call(context.Background(), Request{
		Name:      SimulateCommand,
		Arguments: map[string]string{"command": "echo hi"},
	})

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "mode: --print\n"))
	require.Contains(t, out, "Command:\necho hi")

	t.Run("non-zero exit surfaces code and stderr", func(t *testing.T) {
		failing := filepath.Join(t.TempDir(), "claude")
		require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho boom >&2\nexit 2\n"), 0o755))

		d := NewDispatcher(DispatcherConfig{CLIPath: failing, Timeout: 5 * time.Second, Runner: runner})

		_, err := d.Call(context.Background(), Request{
			Name:      YourOwnQuery,
			Arguments: map[string]string{"query": "hi"},
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "exit 2")
		require.Contains(t, err.Error(), "boom")
	})
}

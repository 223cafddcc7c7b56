// Command claude-code-mcp serves Claude Code as a set of MCP tools over stdio.
//
// Each tool call is rendered into a prompt and piped to `claude --print`;
// the CLI's standard output becomes the tool result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := newRootCmd(os.Getenv)

	err := cmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

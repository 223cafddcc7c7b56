// Package subprocess runs one Claude CLI invocation to completion.
//
// A Runner spawns the CLI with the inherited environment, writes the prompt to
// its stdin and closes it, captures stdout and stderr, and enforces a
// wall-clock timeout armed at spawn time. The child runs in its own process
// group, which is killed as a whole on timeout or cancellation. Every call
// owns its own process; nothing is retried.
package subprocess

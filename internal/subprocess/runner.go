package subprocess

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/claude-code-mcp/internal/errors"
)

const (
	// DefaultTimeout bounds a single CLI run when the invocation sets none.
	DefaultTimeout = 300 * time.Second

	// maxStdoutBufferSize caps captured stdout. Reading continues past the
	// limit so the child never blocks on a full pipe.
	maxStdoutBufferSize = 64 * 1024 * 1024 // 64MB
	// maxStderrBufferSize caps captured stderr.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

	// waitDelay bounds how long Wait keeps reading stdout and stderr after
	// the CLI has exited.
	waitDelay = 500 * time.Millisecond
)

// Invocation describes one CLI run.
type Invocation struct {
	// ID correlates log lines. Generated when empty.
	ID string
	// Path is the executable to run.
	Path string
	// Args are passed to the executable verbatim.
	Args []string
	// Stdin is written to the child and then closed. Empty means no input.
	Stdin string
	// Timeout bounds the run. Zero selects DefaultTimeout.
	Timeout time.Duration
}

// Runner spawns and supervises CLI processes. It is safe for concurrent use;
// each Run call owns an independent child.
type Runner struct {
	log *slog.Logger

	mu       sync.Mutex
	closed   bool
	shutdown chan struct{}
	running  sync.WaitGroup
	inflight int
}

// NewRunner creates a Runner.
func NewRunner(log *slog.Logger) *Runner {
	return &Runner{
		log:      log.With("component", "process_runner"),
		shutdown: make(chan struct{}),
	}
}

// NewInvocationID returns a fresh, sortable invocation identifier.
func NewInvocationID() string {
	return ulid.Make().String()
}

// Run executes inv and returns its stdout with trailing whitespace removed.
//
// Errors:
//   - *errors.CLIConnectionError when the process cannot be spawned
//   - *errors.TimeoutError when the timeout expires (the child is killed)
//   - *errors.ProcessError on a non-zero exit, carrying code and stderr
//   - the context error when ctx is cancelled (the child is killed)
//   - errors.ErrRunnerClosed after Close
//
// The outcome follows the child's exit, not its output streams: if a
// background helper keeps stdout or stderr open, Run gives up reading
// shortly after the child exits and returns what it captured.
func (r *Runner) Run(ctx context.Context, inv Invocation) (string, error) {
	if r.isClosed() {
		return "", errors.ErrRunnerClosed
	}

	if inv.ID == "" {
		inv.ID = NewInvocationID()
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := r.log.With("invocation_id", inv.ID)

	//nolint:gosec // G204: the binary path comes from operator configuration
	cmd := exec.Command(inv.Path, inv.Args...)

	// The child leads its own process group so a kill also reaches any
	// helpers it spawned.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = waitDelay

	outBuf := &cappedBuffer{limit: maxStdoutBufferSize}
	errBuf := &cappedBuffer{limit: maxStderrBufferSize}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", &errors.CLIConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	if err := r.start(cmd); err != nil {
		if stderrors.Is(err, errors.ErrRunnerClosed) {
			return "", err
		}

		log.Error("Failed to start CLI process", "path", inv.Path, "error", err)

		return "", &errors.CLIConnectionError{Err: err}
	}
	defer r.finish()

	// The timer is armed only once the process exists.
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	log.Debug("CLI process started",
		"pid", cmd.Process.Pid,
		"args", inv.Args,
		"stdin_len", len(inv.Stdin),
		"timeout", timeout,
	)

	var g errgroup.Group

	g.Go(func() error {
		return writeInput(stdin, inv.Stdin)
	})

	done := make(chan error, 1)

	go func() {
		// Wait returns at most waitDelay after the child exits, even if a
		// grandchild still holds stdout or stderr open.
		waitErr := cmd.Wait()

		if err := g.Wait(); err != nil {
			log.Debug("CLI stdin error", "error", err)
		}

		done <- waitErr
	}()

	terminate := func() {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			log.Debug("Kill CLI process group", "pid", cmd.Process.Pid, "error", err)
			_ = cmd.Process.Kill()
		}

		<-done
	}

	var waitErr error

	select {
	case waitErr = <-done:
	case <-timer.C:
		// A process that exited at the same instant is not a timeout.
		select {
		case waitErr = <-done:
		default:
			log.Warn("CLI process timed out, killing", "pid", cmd.Process.Pid, "timeout", timeout)
			terminate()

			return "", &errors.TimeoutError{Timeout: timeout}
		}
	case <-ctx.Done():
		log.Debug("Context cancelled, killing CLI process", "pid", cmd.Process.Pid, "error", ctx.Err())
		terminate()

		return "", fmt.Errorf("CLI process cancelled: %w", ctx.Err())
	case <-r.shutdown:
		log.Debug("Runner closing, killing CLI process", "pid", cmd.Process.Pid)
		terminate()

		return "", errors.ErrRunnerClosed
	}

	if stderrors.Is(waitErr, exec.ErrWaitDelay) {
		log.Warn("CLI exited but its output streams stayed open; using output read so far")

		waitErr = nil
	}

	if waitErr != nil {
		exitCode := -1
		if exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr); ok {
			exitCode = exitErr.ExitCode()
		}

		stderrText := strings.TrimSpace(errBuf.String())
		log.Error("CLI process exited with error", "exit_code", exitCode, "stderr", stderrText)

		return "", &errors.ProcessError{
			ExitCode: exitCode,
			Stderr:   stderrText,
			Err:      waitErr,
		}
	}

	log.Debug("CLI process exited successfully", "stdout_len", outBuf.Len())

	return strings.TrimRightFunc(outBuf.String(), unicode.IsSpace), nil
}

// Close kills every in-flight process and waits for their Run calls to
// return. Subsequent Run calls fail with errors.ErrRunnerClosed. Safe to call
// more than once.
func (r *Runner) Close() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		return nil
	}

	r.closed = true
	close(r.shutdown)
	r.mu.Unlock()

	r.running.Wait()
	r.log.Debug("Process runner closed")

	return nil
}

// InFlight returns the number of running processes.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.inflight
}

func (r *Runner) start(cmd *exec.Cmd) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.ErrRunnerClosed
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	r.inflight++
	r.running.Add(1)

	return nil
}

func (r *Runner) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

func (r *Runner) finish() {
	r.mu.Lock()
	r.inflight--
	r.mu.Unlock()

	r.running.Done()
}

// writeInput delivers payload and closes stdin. A child that exits without
// reading its input is not an error here; its exit status decides the outcome.
func writeInput(stdin io.WriteCloser, payload string) error {
	if payload != "" {
		if _, err := io.WriteString(stdin, payload); err != nil && !ignorableInputError(err) {
			_ = stdin.Close()

			return fmt.Errorf("write stdin: %w", err)
		}
	}

	if err := stdin.Close(); err != nil && !ignorableInputError(err) {
		return fmt.Errorf("close stdin: %w", err)
	}

	return nil
}

// ignorableInputError reports errors caused by the child going away first:
// a broken pipe, or Wait having already closed our end.
func ignorableInputError(err error) bool {
	return stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, os.ErrClosed)
}

// cappedBuffer accumulates up to limit bytes and silently discards the rest.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}

	return len(p), nil
}

func (b *cappedBuffer) Len() int { return b.buf.Len() }

func (b *cappedBuffer) String() string { return b.buf.String() }

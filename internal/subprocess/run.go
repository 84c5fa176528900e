// Package subprocess spawns OS processes with a timeout and bounded captured
// output (C1). Grounded on internal/agent/tools/process_registry.go's
// timeout/output-cap handling from the teacher repo.
package subprocess

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/deskstratum/agent/internal/envelope"
)

// DefaultMaxOutputBytes bounds stdout/stderr capture when the caller doesn't
// specify one.
const DefaultMaxOutputBytes = 1 << 20 // 1 MiB

// Request describes a process to spawn.
type Request struct {
	Path          string
	Args          []string
	Stdin         []byte
	Timeout       time.Duration
	MaxOutputBytes int
	Env           []string // nil means inherit os.Environ()
	Dir           string
}

// Result is the captured outcome of a Run call.
type Result struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	Truncated  bool
}

// capWriter is a bytes.Buffer that stops accepting bytes past a limit but
// never errors — exec.Cmd would otherwise abort the whole command.
type capWriter struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (w *capWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

// Run spawns req.Path with req.Args, enforcing the timeout and output cap.
// It never raises on a non-zero exit code — that is reported as-is in
// Result.ExitCode. On timeout it returns a *envelope.StratumError of kind
// Timeout after terminating the process.
func Run(ctx context.Context, req Request) (Result, error) {
	maxOut := req.MaxOutputBytes
	if maxOut <= 0 {
		maxOut = DefaultMaxOutputBytes
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, req.Path, req.Args...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	if req.Env != nil {
		cmd.Env = req.Env
	}
	if len(req.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}

	var stdout, stderr capWriter
	stdout.limit = maxOut
	stderr.limit = maxOut
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return Result{}, envelope.New(envelope.KindTimeout,
			"process %s timed out after %s", req.Path, timeout)
	}

	result := Result{
		Stdout:    stdout.buf.String(),
		Stderr:    stderr.buf.String(),
		Truncated: stdout.truncated || stderr.truncated,
	}
	if err == nil {
		result.ExitCode = 0
		return result, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return Result{}, envelope.Wrap(envelope.KindScriptFailed, err, "failed to start %s", req.Path)
}

// Package scripting implements the OS-scripting bridge (C4): writes a
// script to a uniquely named temp file, runs it through the host's
// scripting interpreter with a timeout and output cap, and classifies
// failures. Grounded on calendar_darwin.go's execAppleScript/escapeAS from
// the teacher repo, hardened per spec §4.C4 (temp file instead of -e,
// universal escaping, stderr-based error classification).
package scripting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/subprocess"
)

// ErrNoWindow is returned by callers that parse a bounds/position query
// when the target application has no window to report one for.
var ErrNoWindow = errors.New("no window available")

const (
	// Timeout is the fixed script execution timeout (§5: "script bridge 15s").
	Timeout = 15 * time.Second
	// MaxOutputBytes caps captured stdout/stderr.
	MaxOutputBytes = 10 << 20 // 10 MiB
)

var counter int64

// nextTempName builds a unique temp file name from the process pid and a
// monotonically increasing counter, per §5's "OS-scripting temp files" shared
// resource note.
func nextTempName() string {
	n := atomic.AddInt64(&counter, 1)
	return filepath.Join(os.TempDir(), "deskstratum-"+strconv.Itoa(os.Getpid())+"-"+strconv.FormatInt(n, 10)+".scpt")
}

// Escape escapes every string interpolated into a script: backslash, double
// quote, newline, tab. No caller string may reach a generated script
// unescaped (§4.C4 string embedding rule).
func Escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

// Run writes script to a unique temp file, executes it through the host
// scripting interpreter, and returns trimmed stdout. The temp file is
// removed on every exit path.
func Run(ctx context.Context, script string) (string, error) {
	path := nextTempName()
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		return "", envelope.Wrap(envelope.KindScriptFailed, err, "failed to write script file")
	}
	defer os.Remove(path)

	res, err := subprocess.Run(ctx, subprocess.Request{
		Path:           interpreterPath(),
		Args:           interpreterArgs(path),
		Timeout:        Timeout,
		MaxOutputBytes: MaxOutputBytes,
	})
	if err != nil {
		if serr, ok := err.(*envelope.StratumError); ok && serr.Kind == envelope.KindTimeout {
			return "", serr
		}
		return "", envelope.Wrap(envelope.KindScriptFailed, err, "failed to run script")
	}

	if res.ExitCode != 0 {
		return "", classifyError(res.Stderr)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// classifyError discriminates the OS-scripting interpreter's stderr into the
// spec's three error kinds.
func classifyError(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "assistive access"):
		return envelope.New(envelope.KindPermissionDenied,
			"Accessibility/automation permission is required. Grant it in System Settings > Privacy & Security > Accessibility, then retry.")
	case strings.Contains(lower, "process not running"), strings.Contains(lower, "not found"), strings.Contains(lower, "can't get application"):
		return envelope.New(envelope.KindAppNotFound, "Target application is not running: %s", strings.TrimSpace(stderr))
	default:
		return envelope.New(envelope.KindScriptFailed, "%s", strings.TrimSpace(stderr))
	}
}

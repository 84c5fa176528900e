// Package shell implements the shell stratum (C2): exec, launch_app,
// switch_app, close_app, list_apps, minimize_window. Grounded on
// internal/agent/tools/shell_tool.go (sanitizedEnv, timeout/output handling)
// and app_darwin.go/window_darwin.go's AppleScript one-liners, here routed
// through the C4 scripting bridge instead of calling osascript directly.
package shell

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/params"
	"github.com/deskstratum/agent/internal/stratum"
	"github.com/deskstratum/agent/internal/stratum/scripting"
	"github.com/deskstratum/agent/internal/subprocess"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxOutput = 50000 // chars, matching the teacher's shell_tool.go cap
)

// Stratum implements the shell stratum.
type Stratum struct{}

func New() *Stratum { return &Stratum{} }

var _ stratum.Stratum = (*Stratum)(nil)

func (s *Stratum) Handle(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
	switch action {
	case "exec":
		return s.exec(ctx, p)
	case "launch_app":
		return s.launchApp(ctx, p)
	case "switch_app":
		return s.switchApp(ctx, p)
	case "close_app":
		return s.closeApp(ctx, p)
	case "list_apps":
		return s.listApps(ctx)
	case "minimize_window":
		return s.minimizeWindow(ctx, p)
	default:
		return nil, envelope.New(envelope.KindUnknownAction, "Unknown shell action %q", action)
	}
}

func (s *Stratum) exec(ctx context.Context, p map[string]any) (map[string]any, error) {
	command, err := params.String(p, "command")
	if err != nil {
		return nil, params.MissingParamError("command", "shell exec")
	}
	timeout := defaultTimeout
	if t := params.OptInt(p, "timeout_ms", 0); t > 0 {
		timeout = time.Duration(t) * time.Millisecond
	}

	shellPath, shellArgs := shellCommand(command)
	res, err := subprocess.Run(ctx, subprocess.Request{
		Path:    shellPath,
		Args:    shellArgs,
		Timeout: timeout,
		Env:     sanitizedEnv(),
	})
	if err != nil {
		return nil, err
	}

	stdout := res.Stdout
	if len(stdout) > defaultMaxOutput {
		stdout = stdout[:defaultMaxOutput] + "\n... (truncated)"
	}
	return map[string]any{
		"stdout":    stdout,
		"stderr":    res.Stderr,
		"exitCode":  res.ExitCode,
		"truncated": res.Truncated,
	}, nil
}

func (s *Stratum) launchApp(ctx context.Context, p map[string]any) (map[string]any, error) {
	name, err := params.String(p, "name")
	if err != nil {
		return nil, params.MissingParamError("name", "shell launch_app")
	}
	if _, err := subprocess.Run(ctx, subprocess.Request{Path: "open", Args: []string{"-a", name}, Timeout: defaultTimeout}); err != nil {
		return nil, err
	}
	return map[string]any{"launched": name}, nil
}

func (s *Stratum) switchApp(ctx context.Context, p map[string]any) (map[string]any, error) {
	name, err := params.String(p, "name")
	if err != nil {
		return nil, params.MissingParamError("name", "shell switch_app")
	}
	script := `tell application "` + scripting.Escape(name) + `" to activate`
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"activated": name}, nil
}

func (s *Stratum) closeApp(ctx context.Context, p map[string]any) (map[string]any, error) {
	name, err := params.String(p, "name")
	if err != nil {
		return nil, params.MissingParamError("name", "shell close_app")
	}
	script := `tell application "` + scripting.Escape(name) + `" to quit`
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"closed": name}, nil
}

func (s *Stratum) listApps(ctx context.Context) (map[string]any, error) {
	script := `tell application "System Events"
		set appNames to name of every process whose background only is false
	end tell
	return appNames`
	out, err := scripting.Run(ctx, script)
	if err != nil {
		return nil, err
	}
	names := strings.Split(out, ", ")
	return map[string]any{"apps": names}, nil
}

func (s *Stratum) minimizeWindow(ctx context.Context, p map[string]any) (map[string]any, error) {
	name, err := params.String(p, "name")
	if err != nil {
		return nil, params.MissingParamError("name", "shell minimize_window")
	}
	script := `tell application "` + scripting.Escape(name) + `" to activate
	tell application "System Events"
		tell process "` + scripting.Escape(name) + `"
			if (count of windows) > 0 then
				set value of attribute "AXMinimized" of window 1 to true
			end if
		end tell
	end tell`
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"minimized": name}, nil
}

// dangerousEnvVars strips environment variables that can hijack dynamic
// linking or shell startup behavior, preventing injection through a
// dispatched shell command. Grounded verbatim on shell_tool.go's
// sanitizedEnv/dangerousEnvVars list from the teacher repo.
var dangerousEnvVars = map[string]bool{
	"LD_PRELOAD": true, "LD_LIBRARY_PATH": true, "LD_AUDIT": true,
	"DYLD_INSERT_LIBRARIES": true, "DYLD_LIBRARY_PATH": true,
	"DYLD_FRAMEWORK_PATH": true, "DYLD_FALLBACK_LIBRARY_PATH": true,
	"IFS": true, "CDPATH": true, "BASH_ENV": true, "ENV": true,
	"PROMPT_COMMAND": true, "SHELLOPTS": true, "BASHOPTS": true,
	"GLOBIGNORE": true, "BASH_XTRACEFD": true, "LOCALDOMAIN": true,
	"HOSTALIASES": true, "RESOLV_HOST_CONF": true, "PYTHONSTARTUP": true,
	"PYTHONPATH": true, "RUBYOPT": true, "RUBYLIB": true, "PERL5OPT": true,
	"PERL5LIB": true, "PERL5DB": true, "NODE_OPTIONS": true,
}

var dangerousPrefixes = []string{"BASH_FUNC_", "LD_", "DYLD_"}

func sanitizedEnv() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if dangerousEnvVars[key] {
			continue
		}
		skip := false
		for _, prefix := range dangerousPrefixes {
			if strings.HasPrefix(key, prefix) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		out = append(out, kv)
	}
	return out
}

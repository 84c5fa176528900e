package vision

import (
	"context"
	"strconv"
	"strings"

	"github.com/deskstratum/agent/internal/stratum/scripting"
)

// Bounds is a window's screen-space rectangle.
type Bounds struct {
	X, Y, Width, Height int
}

// frontmostApp returns the name of the frontmost application.
func frontmostApp(ctx context.Context) (string, error) {
	out, err := scripting.Run(ctx, `tell application "System Events" to get name of first process whose frontmost is true`)
	if err != nil {
		return "", err
	}
	return out, nil
}

// windowTitle returns the title of a window (1-based index) of app, or the
// frontmost window's title if app is empty.
func windowTitle(ctx context.Context, app string) (string, error) {
	if app == "" {
		var err error
		app, err = frontmostApp(ctx)
		if err != nil {
			return "", err
		}
	}
	script := `tell application "System Events"
		tell process "` + scripting.Escape(app) + `"
			if (count of windows) > 0 then
				return name of window 1
			end if
		end tell
	end tell
	return ""`
	return scripting.Run(ctx, script)
}

// windowBounds queries a window's on-screen rectangle via the OS-scripting
// bridge. Used by capture mode "window" and by the vision context
// collector's windowBounds field.
func windowBounds(ctx context.Context, app string) (Bounds, error) {
	if app == "" {
		var err error
		app, err = frontmostApp(ctx)
		if err != nil {
			return Bounds{}, err
		}
	}
	script := `tell application "System Events"
		tell process "` + scripting.Escape(app) + `"
			if (count of windows) > 0 then
				set p to position of window 1
				set s to size of window 1
				return ((item 1 of p) as string) & "," & ((item 2 of p) as string) & "," & ((item 1 of s) as string) & "," & ((item 2 of s) as string)
			end if
		end tell
	end tell
	return ""`
	out, err := scripting.Run(ctx, script)
	if err != nil {
		return Bounds{}, err
	}
	parts := strings.Split(out, ",")
	if len(parts) != 4 {
		return Bounds{}, scripting.ErrNoWindow
	}
	x, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
	w, _ := strconv.Atoi(strings.TrimSpace(parts[2]))
	h, _ := strconv.Atoi(strings.TrimSpace(parts[3]))
	return Bounds{X: x, Y: y, Width: w, Height: h}, nil
}

// menuBarItems lists the top-level menu bar item labels of app (or the
// frontmost app if empty). Queried independently of the interactive
// accessibility snapshot so it still succeeds when the full AX walk times
// out (§4.C6).
func menuBarItems(ctx context.Context, app string) ([]string, error) {
	if app == "" {
		var err error
		app, err = frontmostApp(ctx)
		if err != nil {
			return nil, err
		}
	}
	script := `tell application "System Events"
		tell process "` + scripting.Escape(app) + `"
			return name of every menu bar item of menu bar 1
		end tell
	end tell`
	out, err := scripting.Run(ctx, script)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	items := strings.Split(out, ", ")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items, nil
}

package vision

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum/scripting"
	"github.com/deskstratum/agent/internal/subprocess"
)

// imageSpaceWidth is the fixed width callers express coordinates in;
// coordinates are rescaled (aspect-preserved) to the host's logical screen
// size before injection (§4.C6).
const imageSpaceWidth = 1280

var hasCliclick = func() bool {
	_, err := exec.LookPath("cliclick")
	return err == nil
}()

// scalePoint maps an image-space (x, y) — expressed against a width-1280,
// aspect-preserved image — onto host logical screen coordinates.
func scalePoint(x, y int) (int, int) {
	screenW, _ := screenSize()
	return scalePointWith(screenW, x, y)
}

// scalePointWith is the pure scaling computation factored out of scalePoint
// so the §8 S6 coordinate-scaling property (2560x1440 screen, 1280 image
// space) can be exercised without a real display attached.
func scalePointWith(screenW, x, y int) (int, int) {
	scale := float64(screenW) / float64(imageSpaceWidth)
	return int(float64(x) * scale), int(float64(y) * scale)
}

func (s *Stratum) clickCoordinates(ctx context.Context, imgX, imgY int, button string, count int) error {
	x, y := scalePoint(imgX, imgY)
	if hasCliclick {
		var cmd string
		switch {
		case button == "right":
			cmd = "rc"
		case count == 2:
			cmd = "dc"
		default:
			cmd = "c"
		}
		_, err := subprocess.Run(ctx, subprocess.Request{
			Path: "cliclick", Args: []string{fmt.Sprintf("%s:%d,%d", cmd, x, y)}, Timeout: 5 * time.Second,
		})
		return err
	}
	script := fmt.Sprintf(`tell application "System Events" to click at {%d, %d}`, x, y)
	_, err := scripting.Run(ctx, script)
	return err
}

// dragCoordinates requires cliclick; plain AppleScript/System Events has no
// mouse-down/mouse-up primitive to express a drag with, matching
// desktop_darwin.go's own drag/scroll/move constraint.
func (s *Stratum) dragCoordinates(ctx context.Context, fromX, fromY, toX, toY int) error {
	if !hasCliclick {
		return envelope.New(envelope.KindScriptFailed, "drag requires cliclick (brew install cliclick)")
	}
	x1, y1 := scalePoint(fromX, fromY)
	x2, y2 := scalePoint(toX, toY)
	_, err := subprocess.Run(ctx, subprocess.Request{
		Path:    "cliclick",
		Args:    []string{fmt.Sprintf("dd:%d,%d", x1, y1), fmt.Sprintf("du:%d,%d", x2, y2)},
		Timeout: 5 * time.Second,
	})
	return err
}

func (s *Stratum) scrollAt(ctx context.Context, imgX, imgY, deltaY int) error {
	x, y := scalePoint(imgX, imgY)
	if hasCliclick {
		_, err := subprocess.Run(ctx, subprocess.Request{
			Path: "cliclick", Args: []string{fmt.Sprintf("m:%d,%d", x, y), fmt.Sprintf("scroll:0,%d", -deltaY)}, Timeout: 5 * time.Second,
		})
		return err
	}
	return envelope.New(envelope.KindScriptFailed, "scroll requires cliclick (brew install cliclick)")
}

func (s *Stratum) typeTextAction(ctx context.Context, text string) error {
	if hasCliclick {
		_, err := subprocess.Run(ctx, subprocess.Request{
			Path: "cliclick", Args: []string{"t:" + text}, Timeout: 10 * time.Second,
		})
		return err
	}
	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, scripting.Escape(text))
	_, err := scripting.Run(ctx, script)
	return err
}

// keyCombo issues a modifier+key press via the OS-scripting bridge. Special
// keys (tab, return, ...) are sent by key code; printable keys are sent as
// a keystroke with the modifier set applied.
func (s *Stratum) keyCombo(ctx context.Context, combo string) error {
	parsed, err := parseKeyCombo(combo)
	if err != nil {
		return envelope.Wrap(envelope.KindValidationError, err, "invalid key_combo %q", combo)
	}

	var script string
	if parsed.KeyCode != 0 {
		if len(parsed.Modifiers) > 0 {
			script = fmt.Sprintf(`tell application "System Events" to key code %d using {%s}`,
				parsed.KeyCode, strings.Join(parsed.Modifiers, ", "))
		} else {
			script = fmt.Sprintf(`tell application "System Events" to key code %d`, parsed.KeyCode)
		}
	} else if len(parsed.Modifiers) > 0 {
		script = fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
			scripting.Escape(parsed.MainKey), strings.Join(parsed.Modifiers, ", "))
	} else {
		script = fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, scripting.Escape(parsed.MainKey))
	}

	_, err = scripting.Run(ctx, script)
	return err
}

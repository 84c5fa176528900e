// Package vision implements the vision stratum (C6): screenshot capture,
// hybrid context collection, and coordinate/keyboard actions with
// coordinate scaling. Grounded on desktop_darwin.go (cliclick-preferred,
// AppleScript-fallback coordinate actions, hotkey modifier parsing) and
// screenshot.go (executeSee's capture -> AX -> annotate pipeline, window
// capture) from the teacher repo.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"

	"github.com/deskstratum/agent/internal/envelope"
)

// captureScreenshot implements the three capture modes: fullscreen, region,
// window. "window" falls back to fullscreen when bounds cannot be obtained
// via C4 (§9 open question: callers cannot distinguish the modes except via
// captureType).
func captureScreenshot(ctx context.Context, mode string, app string, region Bounds) (img image.Image, captureType string, err error) {
	switch mode {
	case "region":
		rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
		im, cerr := screenshot.CaptureRect(rect)
		if cerr != nil {
			return nil, "", envelope.Wrap(envelope.KindScriptFailed, cerr, "region capture failed")
		}
		return im, "region", nil
	case "window":
		bounds, berr := windowBounds(ctx, app)
		if berr != nil {
			return fullscreenCapture()
		}
		rect := image.Rect(bounds.X, bounds.Y, bounds.X+bounds.Width, bounds.Y+bounds.Height)
		im, cerr := screenshot.CaptureRect(rect)
		if cerr != nil {
			return fullscreenCapture()
		}
		return im, "window", nil
	default:
		im, captureTy, cerr := fullscreenCapture()
		return im, captureTy, cerr
	}
}

func fullscreenCapture() (image.Image, string, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, "", envelope.New(envelope.KindScriptFailed, "no active displays found")
	}
	rect := screenshot.GetDisplayBounds(0)
	im, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, "", envelope.Wrap(envelope.KindScriptFailed, err, "fullscreen capture failed")
	}
	return im, "fullscreen", nil
}

func encodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// screenSize returns the logical size of the primary display, used as the
// scale target for image-space coordinates (§4.C6).
func screenSize() (w, h int) {
	rect := screenshot.GetDisplayBounds(0)
	return rect.Dx(), rect.Dy()
}

// Debug overlay rendering (D4): draws an operator-facing label strip over a
// captured screenshot. Grounded on internal/agent/tools/snapshot_renderer.go's
// RenderAnnotations/drawLabelPill from the teacher repo, adapted from
// per-element bounding boxes (which need element screen coordinates the
// accessibility stratum's Element type doesn't carry in this spec's data
// model — its ref table stores {appName, windowIndex, flatIndex}, not
// bounds) to a single metadata strip summarizing capture context.
package vision

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// overlayLabel builds the debug strip text for a context_collect capture.
func overlayLabel(frontmostApp, captureType string) string {
	if frontmostApp == "" {
		return captureType
	}
	return frontmostApp + " (" + captureType + ")"
}

var (
	overlayPillBG   = color.NRGBA{R: 30, G: 30, B: 30, A: 220}
	overlayPillText = color.White
)

const (
	overlayPadX = 6.0
	overlayPadY = 4.0
)

// renderDebugOverlay draws a single label pill in the top-left corner of
// img showing label (overlayLabel: frontmost app and capture type).
// Returns a new image; img is not modified.
func renderDebugOverlay(img image.Image, label string) image.Image {
	if label == "" {
		return img
	}
	bounds := img.Bounds()
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(img, 0, 0)

	textW, textH := dc.MeasureString(label)
	pillW := textW + overlayPadX*2
	pillH := textH + overlayPadY*2

	dc.SetColor(overlayPillBG)
	dc.DrawRoundedRectangle(8, 8, pillW, pillH, 4)
	dc.Fill()

	dc.SetColor(overlayPillText)
	dc.DrawString(label, 8+overlayPadX, 8+overlayPadY+textH*0.85)

	return dc.Image()
}

package vision

import (
	"context"
	"time"

	"github.com/deskstratum/agent/internal/stratum/accessibility"
)

// partialAccessTimeout bounds the best-effort interactive-element
// collection folded into a vision context (§4.C6, §5 "Partial-accessibility
// collection (C6) races against a 3s timer").
const partialAccessTimeout = 3 * time.Second

// TaskContext is the optional struct a caller can attach to a
// context-collection request (§4.C6).
type TaskContext struct {
	CurrentStep     string `json:"currentStep,omitempty"`
	ExpectedOutcome string `json:"expectedOutcome,omitempty"`
	WorkflowName    string `json:"workflowName,omitempty"`
}

// CollectedContext is the composite result of a single context_collect
// action.
type CollectedContext struct {
	Screenshot       string                     `json:"screenshot"`
	CaptureType      string                     `json:"captureType"`
	FrontmostApp     string                     `json:"frontmostApp"`
	WindowTitle      string                     `json:"windowTitle"`
	WindowBounds     *Bounds                    `json:"windowBounds,omitempty"`
	ScreenWidth      int                        `json:"screenWidth"`
	ScreenHeight     int                        `json:"screenHeight"`
	MenuBarItems     []string                   `json:"menuBarItems,omitempty"`
	AccessibilityOK  bool                       `json:"accessibilityAvailable"`
	DesktopElements  []accessibility.Element    `json:"desktopElements,omitempty"`
	RecentActions    []ActionRecord             `json:"recentActions,omitempty"`
	Task             *TaskContext               `json:"task,omitempty"`
}

// collectContext assembles the hybrid observation described in §4.C6: a
// screenshot, frontmost-app/title/bounds/screen metadata, a best-effort
// partial accessibility pass raced against a hard timeout, menu bar items
// fetched independently of that race, recent actions, and optional task
// context.
func (s *Stratum) collectContext(ctx context.Context, app string, task *TaskContext, debug bool) (*CollectedContext, error) {
	img, captureType, err := captureScreenshot(ctx, "window", app, Bounds{})
	if err != nil {
		return nil, err
	}

	frontmost, _ := frontmostApp(ctx)
	if debug {
		img = renderDebugOverlay(img, overlayLabel(frontmost, captureType))
	}

	b64, err := encodeBase64PNG(img)
	if err != nil {
		return nil, err
	}

	result := &CollectedContext{
		Screenshot:    b64,
		CaptureType:   captureType,
		RecentActions: s.history.Recent(5),
		Task:          task,
	}
	result.ScreenWidth, result.ScreenHeight = screenSize()
	result.FrontmostApp = frontmost

	if title, terr := windowTitle(ctx, app); terr == nil {
		result.WindowTitle = title
	}
	if bounds, berr := windowBounds(ctx, app); berr == nil {
		result.WindowBounds = &bounds
	}
	// Menu bar items are fetched independently of the accessibility race
	// below so they are still returned even when the full AX walk times
	// out (§4.C6).
	if items, merr := menuBarItems(ctx, app); merr == nil {
		result.MenuBarItems = items
	}

	elements, ok := s.partialAccessibility(ctx, app)
	result.AccessibilityOK = ok
	result.DesktopElements = elements

	return result, nil
}

// partialAccessibility races a fresh accessibility snapshot against a hard
// timer. On timeout the stratum still reports (available=false) with
// whatever it already gathered independently (menu bar items, above).
// snapshotAccessibility is platform-specific (darwin only, per §1's
// non-goal of cross-platform parity); off darwin it returns immediately
// with available=false so the rest of the vision stratum stays buildable.
func (s *Stratum) partialAccessibility(ctx context.Context, app string) ([]accessibility.Element, bool) {
	type result struct {
		elements []accessibility.Element
		err      error
	}
	done := make(chan result, 1)

	go func() {
		elems, err := snapshotAccessibility(ctx, app)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{elements: elems}
	}()

	timer := time.NewTimer(partialAccessTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, false
		}
		return r.elements, true
	case <-timer.C:
		return nil, false
	}
}

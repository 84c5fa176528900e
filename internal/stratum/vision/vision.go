package vision

import (
	"context"
	"strconv"
	"time"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/params"
	"github.com/deskstratum/agent/internal/stratum"
)

// Stratum implements the vision stratum.
type Stratum struct {
	history *ringBuffer
}

func New() *Stratum {
	return &Stratum{history: newRingBuffer(10)}
}

var _ stratum.Stratum = (*Stratum)(nil)

func (s *Stratum) Handle(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
	switch action {
	case "screenshot":
		return s.screenshot(ctx, p)
	case "context_collect":
		return s.contextCollect(ctx, p)
	case "click_coordinates":
		return s.clickAction(ctx, p, "left", 1)
	case "double_click":
		return s.clickAction(ctx, p, "left", 2)
	case "right_click":
		return s.clickAction(ctx, p, "right", 1)
	case "drag":
		return s.drag(ctx, p)
	case "scroll":
		return s.scroll(ctx, p)
	case "type_text":
		return s.typeText(ctx, p)
	case "key_combo":
		return s.keyComboAction(ctx, p)
	default:
		return nil, envelope.New(envelope.KindUnknownAction, "Unknown vision action %q", action)
	}
}

func (s *Stratum) screenshot(ctx context.Context, p map[string]any) (map[string]any, error) {
	mode := params.OptString(p, "mode", "fullscreen")
	app := params.OptString(p, "app", "")
	region := Bounds{
		X:      params.OptInt(p, "x", 0),
		Y:      params.OptInt(p, "y", 0),
		Width:  params.OptInt(p, "width", 0),
		Height: params.OptInt(p, "height", 0),
	}

	img, captureType, err := captureScreenshot(ctx, mode, app, region)
	if err != nil {
		return nil, err
	}
	b64, err := encodeBase64PNG(img)
	if err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "failed to encode screenshot")
	}
	w, h := screenSize()
	return map[string]any{
		"image":       b64,
		"captureType": captureType,
		"width":       w,
		"height":      h,
	}, nil
}

func (s *Stratum) contextCollect(ctx context.Context, p map[string]any) (map[string]any, error) {
	app := params.OptString(p, "app", "")
	var task *TaskContext
	if raw, ok := p["task"].(map[string]any); ok {
		task = &TaskContext{
			CurrentStep:     params.OptString(raw, "currentStep", ""),
			ExpectedOutcome: params.OptString(raw, "expectedOutcome", ""),
			WorkflowName:    params.OptString(raw, "workflowName", ""),
		}
	}

	debug := params.OptBool(p, "debug", false)
	collected, err := s.collectContext(ctx, app, task, debug)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"screenshot":       collected.Screenshot,
		"captureType":      collected.CaptureType,
		"frontmostApp":     collected.FrontmostApp,
		"windowTitle":      collected.WindowTitle,
		"windowBounds":     collected.WindowBounds,
		"screenWidth":      collected.ScreenWidth,
		"screenHeight":     collected.ScreenHeight,
		"menuBarItems":     collected.MenuBarItems,
		"accessibilityAvailable": collected.AccessibilityOK,
		"desktopElements":  collected.DesktopElements,
		"recentActions":    collected.RecentActions,
		"task":             collected.Task,
	}, nil
}

// verificationDelay is the fixed wait before an optional post-action
// verification screenshot (§4.C6).
const verificationDelay = 500 * time.Millisecond

func (s *Stratum) clickAction(ctx context.Context, p map[string]any, button string, count int) (map[string]any, error) {
	x, err := params.Int(p, "x")
	if err != nil {
		return nil, params.MissingParamError("x", "vision click")
	}
	y, err := params.Int(p, "y")
	if err != nil {
		return nil, params.MissingParamError("y", "vision click")
	}
	if err := s.clickCoordinates(ctx, x, y, button, count); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "click failed")
	}
	actionName := "click_coordinates"
	if count == 2 {
		actionName = "double_click"
	} else if button == "right" {
		actionName = "right_click"
	}
	s.history.Push(ActionRecord{Action: actionName, X: x, Y: y})
	return s.withOptionalVerification(ctx, p, map[string]any{"action": actionName, "x": x, "y": y})
}

func (s *Stratum) drag(ctx context.Context, p map[string]any) (map[string]any, error) {
	fromX, err := params.Int(p, "x")
	if err != nil {
		return nil, params.MissingParamError("x", "vision drag")
	}
	fromY, err := params.Int(p, "y")
	if err != nil {
		return nil, params.MissingParamError("y", "vision drag")
	}
	toX, err := params.Int(p, "to_x")
	if err != nil {
		return nil, params.MissingParamError("to_x", "vision drag")
	}
	toY, err := params.Int(p, "to_y")
	if err != nil {
		return nil, params.MissingParamError("to_y", "vision drag")
	}
	if err := s.dragCoordinates(ctx, fromX, fromY, toX, toY); err != nil {
		return nil, err
	}
	s.history.Push(ActionRecord{Action: "drag", X: toX, Y: toY, Detail: "from " + strconv.Itoa(fromX) + "," + strconv.Itoa(fromY)})
	return s.withOptionalVerification(ctx, p, map[string]any{"action": "drag", "toX": toX, "toY": toY})
}

func (s *Stratum) scroll(ctx context.Context, p map[string]any) (map[string]any, error) {
	x, err := params.Int(p, "x")
	if err != nil {
		return nil, params.MissingParamError("x", "vision scroll")
	}
	y, err := params.Int(p, "y")
	if err != nil {
		return nil, params.MissingParamError("y", "vision scroll")
	}
	deltaY, err := params.Int(p, "delta_y")
	if err != nil {
		return nil, params.MissingParamError("delta_y", "vision scroll")
	}
	if err := s.scrollAt(ctx, x, y, deltaY); err != nil {
		return nil, err
	}
	s.history.Push(ActionRecord{Action: "scroll", X: x, Y: y, Detail: strconv.Itoa(deltaY)})
	return s.withOptionalVerification(ctx, p, map[string]any{"action": "scroll", "deltaY": deltaY})
}

func (s *Stratum) typeText(ctx context.Context, p map[string]any) (map[string]any, error) {
	text, err := params.String(p, "text")
	if err != nil {
		return nil, params.MissingParamError("text", "vision type_text")
	}
	if err := s.typeTextAction(ctx, text); err != nil {
		return nil, envelope.Wrap(envelope.KindScriptFailed, err, "type_text failed")
	}
	s.history.Push(ActionRecord{Action: "type_text", Detail: text})
	return s.withOptionalVerification(ctx, p, map[string]any{"action": "type_text"})
}

func (s *Stratum) keyComboAction(ctx context.Context, p map[string]any) (map[string]any, error) {
	combo, err := params.String(p, "keys")
	if err != nil {
		return nil, params.MissingParamError("keys", "vision key_combo")
	}
	if err := s.keyCombo(ctx, combo); err != nil {
		return nil, err
	}
	s.history.Push(ActionRecord{Action: "key_combo", Detail: combo})
	return s.withOptionalVerification(ctx, p, map[string]any{"action": "key_combo", "keys": combo})
}

// withOptionalVerification, if requested, waits verificationDelay then
// captures and attaches a verification screenshot (§4.C6); otherwise it
// returns base at once.
func (s *Stratum) withOptionalVerification(ctx context.Context, p map[string]any, base map[string]any) (map[string]any, error) {
	if !params.OptBool(p, "verify", false) {
		return base, nil
	}
	select {
	case <-time.After(verificationDelay):
	case <-ctx.Done():
		return base, nil
	}
	img, captureType, err := captureScreenshot(ctx, "fullscreen", "", Bounds{})
	if err != nil {
		return base, nil
	}
	b64, err := encodeBase64PNG(img)
	if err != nil {
		return base, nil
	}
	base["verificationScreenshot"] = b64
	base["verificationCaptureType"] = captureType
	return base, nil
}

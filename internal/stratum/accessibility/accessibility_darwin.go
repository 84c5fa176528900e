//go:build darwin

// Package accessibility implements the accessibility stratum (C5): display
// tree walk, flat interactive-element enumeration with a ref table, and
// ref-based actions. Grounded on accessibility_darwin.go and
// snapshot_accessibility_darwin.go from the teacher repo.
package accessibility

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/params"
	"github.com/deskstratum/agent/internal/stratum"
	"github.com/deskstratum/agent/internal/stratum/scripting"
)

const (
	defaultMaxDepth     = 3
	maxChildrenPerNode  = 100
	maxSnapshotElements = 200
)

// Stratum implements the accessibility stratum. The ref table is a
// process-wide single current snapshot, mutated only by Snapshot (§5).
type Stratum struct {
	refs *RefTable
}

func New() *Stratum {
	return &Stratum{refs: NewRefTable()}
}

var _ stratum.Stratum = (*Stratum)(nil)

func (s *Stratum) Handle(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
	switch action {
	case "get_tree":
		return s.getTree(ctx, p)
	case "snapshot":
		return s.snapshot(ctx, p)
	case "press_button":
		return s.pressButton(ctx, p)
	case "set_value":
		return s.setValue(ctx, p)
	case "get_value":
		return s.getValue(ctx, p)
	case "focus":
		return s.focus(ctx, p)
	case "menu_click":
		return s.menuClick(ctx, p)
	case "find_element":
		return s.findElement(ctx, p)
	default:
		return nil, envelope.New(envelope.KindUnknownAction, "Unknown accessibility action %q", action)
	}
}

// rawElement mirrors one pipe-delimited line emitted by the AppleScript
// flat-enumeration handler: role|title|desc|value|enabled|window|flatIndex.
type rawElement struct {
	Role        string
	Title       string
	Description string
	Value       string
	Enabled     bool
	WindowIndex int
	FlatIndex   int
}

func parseRawElements(out string) []rawElement {
	var elems []rawElement
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|||")
		if len(parts) < 7 {
			continue
		}
		win, _ := strconv.Atoi(parts[5])
		flat, _ := strconv.Atoi(parts[6])
		elems = append(elems, rawElement{
			Role:        parts[0],
			Title:       parts[1],
			Description: parts[2],
			Value:       parts[3],
			Enabled:     parts[4] == "true",
			WindowIndex: win,
			FlatIndex:   flat,
		})
	}
	return elems
}

// enumerateScript builds the AppleScript that walks every window of appName
// and emits one pipe-delimited line per element of window.entireContents().
func enumerateScript(appName string) string {
	app := scripting.Escape(appName)
	return `tell application "System Events"
		set out to ""
		tell process "` + app + `"
			set winIdx to 0
			repeat with win in windows
				set winIdx to winIdx + 1
				set flatIdx to 0
				repeat with elem in (entire contents of win)
					set flatIdx to flatIdx + 1
					try
						set r to (role of elem as string)
						set t to ""
						try
							set t to (title of elem as string)
						end try
						set d to ""
						try
							set d to (description of elem as string)
						end try
						set v to ""
						try
							set v to (value of elem as string)
						end try
						set en to "true"
						try
							if not (enabled of elem) then set en to "false"
						end try
						set out to out & r & "|||" & t & "|||" & d & "|||" & v & "|||" & en & "|||" & winIdx & "|||" & flatIdx & "
"
					end try
				end repeat
			end repeat
		end tell
	end tell
	return out`
}

func (s *Stratum) getTree(ctx context.Context, p map[string]any) (map[string]any, error) {
	appName, err := params.String(p, "app")
	if err != nil {
		return nil, params.MissingParamError("app", "accessibility get_tree")
	}
	maxDepth := params.OptInt(p, "max_depth", defaultMaxDepth)
	_ = maxDepth // depth is enforced by entire-contents cap below, matching teacher's flattened approach

	out, err := scripting.Run(ctx, enumerateScript(appName))
	if err != nil {
		return nil, err
	}
	raw := parseRawElements(out)

	nodes := make([]TreeNode, 0, len(raw))
	for i, r := range raw {
		if i >= maxChildrenPerNode*maxDepth {
			break
		}
		nodes = append(nodes, TreeNode{
			DisplayID: fmt.Sprintf("ax_%d", i+1),
			Role:      normalizeRole(r.Role),
			Label:     label(r.Title, r.Description, "", 100),
			Value:     r.Value,
			Enabled:   r.Enabled,
		})
	}
	return map[string]any{"tree": nodes}, nil
}

func (s *Stratum) snapshot(ctx context.Context, p map[string]any) (map[string]any, error) {
	appName, err := params.String(p, "app")
	if err != nil {
		return nil, params.MissingParamError("app", "accessibility snapshot")
	}

	out, err := scripting.Run(ctx, enumerateScript(appName))
	if err != nil {
		return nil, err
	}
	raw := parseRawElements(out)

	s.refs.Clear()
	elements := make([]Element, 0, maxSnapshotElements)
	for _, r := range raw {
		if !isInteractive(r.Role) {
			continue
		}
		if len(elements) >= maxSnapshotElements {
			break
		}
		ref := s.refs.Assign(Locator{AppName: appName, WindowIndex: r.WindowIndex, FlatIndex: r.FlatIndex})
		elements = append(elements, Element{
			Ref:   ref,
			Role:  normalizeRole(r.Role),
			Label: label(r.Title, r.Description, "", 100),
			Value: r.Value,
		})
	}
	return map[string]any{"elements": elements}, nil
}

// resolve re-fetches window.entireContents() for loc.AppName and returns the
// element at loc.FlatIndex, or an UnknownRef-compatible error if the app's
// windows have changed shape since the snapshot.
func (s *Stratum) resolve(ctx context.Context, ref string) (Locator, rawElement, error) {
	loc, ok := s.refs.Get(ref)
	if !ok {
		return Locator{}, rawElement{}, envelope.UnknownRef(ref)
	}
	out, err := scripting.Run(ctx, enumerateScript(loc.AppName))
	if err != nil {
		return Locator{}, rawElement{}, err
	}
	for _, r := range parseRawElements(out) {
		if r.WindowIndex == loc.WindowIndex && r.FlatIndex == loc.FlatIndex {
			return loc, r, nil
		}
	}
	return Locator{}, rawElement{}, envelope.UnknownRef(ref)
}

func (s *Stratum) pressButton(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "accessibility press_button")
	}
	loc, _, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`tell application "System Events"
		tell process "%s"
			set elem to item %d of (entire contents of window %d)
			try
				perform action "AXPress" of elem
			on error
				click elem
			end try
		end tell
	end tell`, scripting.Escape(loc.AppName), loc.FlatIndex, loc.WindowIndex)
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"pressed": ref}, nil
}

func (s *Stratum) setValue(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "accessibility set_value")
	}
	value, err := params.String(p, "value")
	if err != nil {
		return nil, params.MissingParamError("value", "accessibility set_value")
	}
	loc, _, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`tell application "System Events"
		tell process "%s"
			set elem to item %d of (entire contents of window %d)
			try
				set value of elem to "%s"
			on error
				set focused of elem to true
				keystroke "a" using {command down}
				keystroke "%s"
			end try
		end tell
	end tell`, scripting.Escape(loc.AppName), loc.FlatIndex, loc.WindowIndex, scripting.Escape(value), scripting.Escape(value))
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"ref": ref, "value": value}, nil
}

func (s *Stratum) getValue(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "accessibility get_value")
	}
	_, elem, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ref": ref, "value": elem.Value}, nil
}

func (s *Stratum) focus(ctx context.Context, p map[string]any) (map[string]any, error) {
	ref, err := params.String(p, "ref")
	if err != nil {
		return nil, params.MissingParamError("ref", "accessibility focus")
	}
	loc, _, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`tell application "System Events"
		tell process "%s"
			set elem to item %d of (entire contents of window %d)
			set focused of elem to true
		end tell
	end tell`, scripting.Escape(loc.AppName), loc.FlatIndex, loc.WindowIndex)
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"focused": ref}, nil
}

func (s *Stratum) menuClick(ctx context.Context, p map[string]any) (map[string]any, error) {
	appName, err := params.String(p, "app")
	if err != nil {
		return nil, params.MissingParamError("app", "accessibility menu_click")
	}
	menuPath, err := params.String(p, "menu_path")
	if err != nil {
		return nil, params.MissingParamError("menu_path", "accessibility menu_click")
	}
	parts := strings.Split(menuPath, ">")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return nil, envelope.New(envelope.KindValidationError, "menu_path must have a menu and an item, e.g. 'File > New'")
	}
	app := scripting.Escape(appName)
	script := `tell application "` + app + `" to activate
	delay 0.2
	tell application "System Events"
		tell process "` + app + `"
			click menu item "` + scripting.Escape(parts[len(parts)-1]) + `" of menu 1 of menu bar item "` + scripting.Escape(parts[0]) + `" of menu bar 1
		end tell
	end tell`
	if _, err := scripting.Run(ctx, script); err != nil {
		return nil, err
	}
	return map[string]any{"clicked": menuPath}, nil
}

func (s *Stratum) findElement(ctx context.Context, p map[string]any) (map[string]any, error) {
	appName, err := params.String(p, "app")
	if err != nil {
		return nil, params.MissingParamError("app", "accessibility find_element")
	}
	query := strings.ToLower(params.OptString(p, "query", ""))
	wantRole := params.OptString(p, "role", "")

	out, err := scripting.Run(ctx, enumerateScript(appName))
	if err != nil {
		return nil, err
	}
	raw := parseRawElements(out)

	s.refs.Clear()
	var matches []Element
	for _, r := range raw {
		if wantRole != "" && !matchesRole(r.Role, wantRole) {
			continue
		}
		lbl := label(r.Title, r.Description, "", 100)
		if query != "" &&
			!strings.Contains(strings.ToLower(lbl), query) &&
			!strings.Contains(strings.ToLower(r.Value), query) {
			continue
		}
		ref := s.refs.Assign(Locator{AppName: appName, WindowIndex: r.WindowIndex, FlatIndex: r.FlatIndex})
		matches = append(matches, Element{Ref: ref, Role: normalizeRole(r.Role), Label: lbl, Value: r.Value})
	}
	return map[string]any{"elements": matches}, nil
}

package agentloop

import (
	"fmt"
	"strings"
)

// systemPrompt is the fixed command catalog and reply-grammar text sent as
// every oracle request's system block (§6). Grounded on the layout of the
// teacher's DefaultSystemPrompt tool catalog (runner/runner.go), retargeted
// from the STRAP resource/action listing to this spec's layer/action set.
const systemPrompt = `You control a desktop by issuing one command per step through a layered execution engine. You do not have a general-purpose shell agent's freedom — your ONLY commands are the ones listed below, addressed by layer and action.

## Layers and actions

### shell
- exec(command, timeout_ms?) — run a shell command, returns stdout/stderr/exitCode
- launch_app(name) — launch an application by name
- switch_app(name) — bring an application to the foreground
- close_app(name) — quit an application
- list_apps() — list running applications
- minimize_window(name) — minimize an application's frontmost window

### browser
- launch() — open the managed browser context
- close() — close the managed browser context
- navigate(url)
- snapshot(interactive?) — enumerate interactive elements, returns refs like e1, e2
- click(ref)
- type(ref, text)
- select(ref, value)
- screenshot()
- page_info() — current URL and title
- new_tab(url?)
- close_tab() — close the active tab
- list_tabs()

### accessibility
- get_tree(app) — full accessibility tree
- snapshot(app) — flat list of interactive elements, returns refs like ax_1, ax_2
- press_button(ref)
- set_value(ref, value)
- get_value(ref)
- focus(ref)
- menu_click(app, menu_path)
- find_element(app, role?, query?)

### vision
- screenshot(mode?, app?, x?, y?, width?, height?)
- context_collect(app?, task?)
- click_coordinates(x, y, verify?)
- double_click(x, y, verify?)
- right_click(x, y, verify?)
- drag(x, y, to_x, to_y, verify?)
- scroll(x, y, delta_y, verify?)
- type_text(text, verify?)
- key_combo(keys, verify?)

Refs from a snapshot become stale the moment you take a new snapshot, switch the frontmost app, or navigate. If a command fails with UnknownRef or StaleSnapshot, take a fresh snapshot before retrying.

## Reply grammar

Reply with exactly one JSON object, no prose, no markdown code fence, one of:

{"thinking": "...", "action": {"layer": "...", "action": "...", "params": {...}}}
{"thinking": "...", "status": "complete", "summary": "..."}
{"thinking": "...", "status": "needs_help", "question": "..."}

Use "complete" once the goal is achieved. Use "needs_help" only when you are stuck and a human must intervene — explain exactly what you need. Otherwise always reply with an "action".`

// buildStepPrompt renders the per-step user text block: goal, step index,
// window context, structured element list, menu bar, and recent actions
// (§6). The screenshot travels as a separate image block (oracle.go).
func buildStepPrompt(goal string, step int, obs *Observation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Step: %d\n", step)
	if obs.FrontmostApp != "" {
		fmt.Fprintf(&b, "Frontmost app: %s\n", obs.FrontmostApp)
	}
	if obs.WindowTitle != "" {
		fmt.Fprintf(&b, "Window title: %s\n", obs.WindowTitle)
	}
	fmt.Fprintf(&b, "Screen: %dx%d\n", obs.Width, obs.Height)
	if len(obs.MenuBarItems) > 0 {
		fmt.Fprintf(&b, "Menu bar: %s\n", strings.Join(obs.MenuBarItems, ", "))
	}
	fmt.Fprintf(&b, "Available layer: %s\n", obs.AvailableLayer)

	switch {
	case obs.BrowserElements != nil:
		fmt.Fprintf(&b, "Page: %s (%s)\n", obs.BrowserElements.PageTitle, obs.BrowserElements.PageURL)
		b.WriteString("Elements:\n")
		for _, el := range obs.BrowserElements.Elements {
			fmt.Fprintf(&b, "  [%v] %v %q\n", el["ref"], el["role"], el["label"])
		}
	case obs.DesktopElements != nil:
		b.WriteString("Elements:\n")
		for _, el := range obs.DesktopElements {
			fmt.Fprintf(&b, "  [%v] %v %q\n", el["ref"], el["role"], el["label"])
		}
	}

	if len(obs.RecentActions) > 0 {
		b.WriteString("Recent actions:\n")
		for _, a := range obs.RecentActions {
			fmt.Fprintf(&b, "  %s/%s -> %s\n", a.Layer, a.Action, a.Outcome)
		}
	}

	return b.String()
}

package agentloop

import (
	"context"

	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum/accessibility"
)

// Observer composes an Observation by issuing a sequence of self-commands
// through the dispatcher (§4.C8). Every step is independently guarded: a
// failure degrades the observation rather than failing it outright, except
// for the mandatory screenshot step.
type Observer struct {
	dispatcher *dispatch.Dispatcher
}

func NewObserver(d *dispatch.Dispatcher) *Observer {
	return &Observer{dispatcher: d}
}

// Observe builds one Observation. browserActive selects whether element
// data comes from the browser stratum (snapshot + page_info) or the
// accessibility stratum (snapshot against the frontmost app).
func (o *Observer) Observe(ctx context.Context, id string, browserActive bool, recent []ActionSummary) (*Observation, error) {
	shot := o.dispatcher.Dispatch(ctx, envelope.Command{
		ID: id, Layer: envelope.LayerVision, Action: "screenshot",
		Params: map[string]any{"mode": "fullscreen"},
	})
	if shot.Status == envelope.StatusError {
		return nil, envelope.New(envelope.KindObservationFailure, "screenshot failed: %v", shot.Data["error"])
	}

	obs := &Observation{
		Screenshot:    asString(shot.Data["image"]),
		RecentActions: truncateActions(recent, 5),
	}
	if w, ok := shot.Data["width"].(int); ok {
		obs.Width = w
	}
	if h, ok := shot.Data["height"].(int); ok {
		obs.Height = h
	}

	ctxResult := o.dispatcher.Dispatch(ctx, envelope.Command{
		ID: id, Layer: envelope.LayerVision, Action: "context_collect", Params: map[string]any{},
	})
	if ctxResult.Status == envelope.StatusSuccess {
		obs.FrontmostApp = asString(ctxResult.Data["frontmostApp"])
		obs.WindowTitle = asString(ctxResult.Data["windowTitle"])
		if items, ok := ctxResult.Data["menuBarItems"].([]string); ok {
			obs.MenuBarItems = items
		}
	}

	if browserActive {
		o.attachBrowserElements(ctx, id, obs)
	} else {
		o.attachDesktopElements(ctx, id, obs)
	}

	switch {
	case obs.BrowserElements != nil:
		obs.AvailableLayer = LayerBrowser
	case obs.DesktopElements != nil:
		obs.AvailableLayer = LayerAccessibility
	default:
		obs.AvailableLayer = LayerVisionOnly
	}

	return obs, nil
}

func (o *Observer) attachBrowserElements(ctx context.Context, id string, obs *Observation) {
	snap := o.dispatcher.Dispatch(ctx, envelope.Command{
		ID: id, Layer: envelope.LayerBrowser, Action: "snapshot", Params: map[string]any{"interactive": true},
	})
	if snap.Status != envelope.StatusSuccess {
		return
	}
	elements, _ := snap.Data["elements"].([]map[string]any)
	obs.BrowserElements = &BrowserElements{
		PageURL:   asString(snap.Data["pageUrl"]),
		PageTitle: asString(snap.Data["pageTitle"]),
		Elements:  elements,
	}
}

func (o *Observer) attachDesktopElements(ctx context.Context, id string, obs *Observation) {
	if obs.FrontmostApp == "" {
		return
	}
	snap := o.dispatcher.Dispatch(ctx, envelope.Command{
		ID: id, Layer: envelope.LayerAccessibility, Action: "snapshot", Params: map[string]any{"app": obs.FrontmostApp},
	})
	if snap.Status != envelope.StatusSuccess {
		return
	}
	elements, _ := snap.Data["elements"].([]accessibility.Element)
	out := make([]map[string]any, 0, len(elements))
	for _, el := range elements {
		out = append(out, map[string]any{
			"ref":   el.Ref,
			"role":  el.Role,
			"label": el.Label,
			"value": el.Value,
		})
	}
	obs.DesktopElements = out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func truncateActions(recent []ActionSummary, n int) []ActionSummary {
	if len(recent) <= n {
		return recent
	}
	return recent[len(recent)-n:]
}

//go:build darwin

package vision

import (
	"context"

	"github.com/deskstratum/agent/internal/stratum/accessibility"
)

// snapshotAccessibility takes a fresh accessibility snapshot of app for the
// vision stratum's hybrid context collection (§4.C6).
func snapshotAccessibility(ctx context.Context, app string) ([]accessibility.Element, error) {
	ax := accessibility.New()
	data, err := ax.Handle(ctx, "snapshot", map[string]any{"app": app})
	if err != nil {
		return nil, err
	}
	elems, _ := data["elements"].([]accessibility.Element)
	return elems, nil
}

//go:build !darwin

package vision

import (
	"context"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum/accessibility"
)

// snapshotAccessibility has no accessibility stratum to call off darwin;
// it always fails fast so partialAccessibility's race degrades immediately
// to available=false.
func snapshotAccessibility(ctx context.Context, app string) ([]accessibility.Element, error) {
	return nil, envelope.New(envelope.KindPermissionDenied, "accessibility stratum unavailable on this platform")
}

// Package dispatch implements the Layer Router (C7): a pure function from
// Command to Result. Grounded on the STRAP dispatch discipline in
// internal/agent/tools/domain.go (ValidateResourceAction-style typed
// extraction, never-raises translation), retargeted from STRAP's
// resource/action shape to this spec's layer/action shape.
package dispatch

import (
	"context"
	"fmt"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum"
)

// Dispatcher routes a Command to the Stratum registered for its Layer.
type Dispatcher struct {
	strata map[envelope.Layer]stratum.Stratum
}

// New builds a Dispatcher with no strata registered.
func New() *Dispatcher {
	return &Dispatcher{strata: make(map[envelope.Layer]stratum.Stratum)}
}

// Register binds a stratum implementation to a layer. Call before Dispatch.
func (d *Dispatcher) Register(layer envelope.Layer, s stratum.Stratum) {
	d.strata[layer] = s
}

// Dispatch routes cmd to its stratum and always returns a Result — it never
// panics upward; any escape from a stratum (including a real panic) is
// recovered and translated into an error result, per §4.C7.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd envelope.Command) (result envelope.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = envelope.NewErrorResult(cmd.ID, fmt.Errorf("panic in stratum: %v", r))
		}
	}()

	s, ok := d.strata[cmd.Layer]
	if !ok {
		return envelope.NewErrorResult(cmd.ID,
			envelope.New(envelope.KindUnknownLayer, "Unknown layer %q", cmd.Layer))
	}

	data, err := s.Handle(ctx, cmd.Action, cmd.Params)
	if err != nil {
		return envelope.NewErrorResult(cmd.ID, err)
	}
	return envelope.NewResult(cmd.ID, data)
}

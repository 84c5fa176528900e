//go:build darwin

package main

import (
	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum/accessibility"
)

func registerAccessibility(d *dispatch.Dispatcher) {
	d.Register(envelope.LayerAccessibility, accessibility.New())
}

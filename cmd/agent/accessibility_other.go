//go:build !darwin

package main

import "github.com/deskstratum/agent/internal/dispatch"

// registerAccessibility is a no-op off darwin: the accessibility stratum is
// built against the darwin scripting bridge only (§1 non-goal: no
// cross-platform parity).
func registerAccessibility(d *dispatch.Dispatcher) {}

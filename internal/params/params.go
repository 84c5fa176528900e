// Package params implements the "dynamic params → typed extraction" design
// note from spec §9: every stratum action pulls typed values out of the
// untyped params map, reporting a ValidationError rather than panicking on a
// missing or ill-typed field.
package params

import (
	"fmt"

	"github.com/deskstratum/agent/internal/envelope"
)

// String extracts a required string field.
func String(p map[string]any, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", envelope.New(envelope.KindValidationError, "Missing %q parameter", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", envelope.New(envelope.KindValidationError, "%q must be a string, got %T", key, v)
	}
	return s, nil
}

// OptString extracts an optional string field, returning def when absent.
func OptString(p map[string]any, key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Int extracts a required integer field. JSON numbers decode as float64.
func Int(p map[string]any, key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, envelope.New(envelope.KindValidationError, "Missing %q parameter", key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, envelope.New(envelope.KindValidationError, "%q must be a number, got %T", key, v)
	}
}

// OptInt extracts an optional integer field, returning def when absent or
// the wrong type.
func OptInt(p map[string]any, key string, def int) int {
	n, err := Int(p, key)
	if err != nil {
		return def
	}
	return n
}

// OptBool extracts an optional bool field, returning def when absent.
func OptBool(p map[string]any, key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// MissingParamError formats spec §8 scenario S1's exact error text shape for
// a missing required parameter on a named action.
func MissingParamError(paramName, action string) error {
	return envelope.New(envelope.KindValidationError,
		"Missing %s parameter for %s", fmt.Sprintf("%q", paramName), action)
}

package envelope

import "fmt"

// Kind is the error taxonomy surfaced in a Result's data.kind field (§7).
type Kind string

const (
	KindValidationError      Kind = "ValidationError"
	KindUnknownRef           Kind = "UnknownRef"
	KindStaleSnapshot        Kind = "StaleSnapshot"
	KindPermissionDenied     Kind = "PermissionDenied"
	KindAppNotFound          Kind = "AppNotFound"
	KindScriptFailed         Kind = "ScriptFailed"
	KindTimeout              Kind = "Timeout"
	KindParseError           Kind = "ParseError"
	KindObservationFailure   Kind = "ObservationFailure"
	KindOracleFailure        Kind = "OracleFailure"
	KindUnknownLayer         Kind = "UnknownLayer"
	KindUnknownAction        Kind = "UnknownAction"
)

// StratumError is the common error type every stratum returns instead of
// raising; NewErrorResult copies its Kind field into data.kind, and
// Recoverable() classifies it as recoverable or terminal.
type StratumError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *StratumError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.PlainMessage())
}

// PlainMessage is e's message with any wrapped underlying error detail
// appended, but without the Kind taxonomy tag Error() prefixes — this is
// what a Result's data.error field surfaces (§7, §8 scenario S1); the tag
// itself goes in the separate data.kind field.
func (e *StratumError) PlainMessage() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StratumError) Unwrap() error { return e.Err }

// New builds a StratumError of the given kind.
func New(kind Kind, format string, args ...any) *StratumError {
	return &StratumError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a StratumError of the given kind around an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *StratumError {
	return &StratumError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// UnknownRef builds the standard "take a new snapshot" error (§3 invariant 2).
func UnknownRef(ref string) *StratumError {
	return New(KindUnknownRef, "Unknown reference %q. Take a new snapshot.", ref)
}

// Recoverable reports whether the agent loop should feed this error back to
// the oracle as context (true) or treat it as terminal (false), per §7.
func (e *StratumError) Recoverable() bool {
	switch e.Kind {
	case KindObservationFailure, KindOracleFailure:
		return false
	default:
		return true
	}
}

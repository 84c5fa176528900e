// Package credential resolves the two secrets this agent recognizes
// (§6: ANTHROPIC_API_KEY, OPENAI_API_KEY), preferring the OS keychain over
// plain environment variables. Grounded on internal/keyring/keyring.go's
// zalando/go-keyring usage from the teacher repo; rewritten for this spec's
// two named secrets instead of a single master encryption key.
package credential

import (
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const serviceName = "deskstratum"

// Name identifies one of the secrets this agent reads.
type Name string

const (
	Anthropic Name = "ANTHROPIC_API_KEY"
	OpenAI    Name = "OPENAI_API_KEY"
)

// Get returns the secret's value: the OS keychain entry if present, else the
// like-named environment variable, else "" with ok=false.
func Get(name Name) (value string, ok bool) {
	if v, err := zkr.Get(serviceName, string(name)); err == nil && v != "" {
		return v, true
	}
	if v := os.Getenv(string(name)); v != "" {
		return v, true
	}
	return "", false
}

// Set stores the secret in the OS keychain.
func Set(name Name, value string) error {
	if err := zkr.Set(serviceName, string(name), value); err != nil {
		return fmt.Errorf("keychain set %s: %w", name, err)
	}
	return nil
}

// Available probes whether the OS keychain is usable, mirroring the
// teacher's probe-with-a-throwaway-entry approach. Returns false when
// DESKSTRATUM_KEYRING_DISABLED=1 is set (headless/CI/Docker opt-out).
func Available() bool {
	if os.Getenv("DESKSTRATUM_KEYRING_DISABLED") == "1" {
		return false
	}
	const probeService, probeAccount = "deskstratum-keyring-probe", "probe"
	if err := zkr.Set(probeService, probeAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(probeService, probeAccount)
	return true
}

package credential

import "testing"

func TestGet_FallsBackToEnvWhenKeychainEmpty(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-env-value")

	v, ok := Get(Anthropic)
	if !ok {
		t.Fatalf("expected ok=true with env var set")
	}
	if v != "sk-test-env-value" {
		t.Fatalf("got %q, want env fallback value", v)
	}
}

func TestGet_NotFoundReturnsFalse(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, ok := Get(OpenAI); ok {
		t.Fatalf("expected ok=false with no keychain entry and empty env")
	}
}

func TestAvailable_DisabledViaEnv(t *testing.T) {
	t.Setenv("DESKSTRATUM_KEYRING_DISABLED", "1")
	if Available() {
		t.Fatalf("expected Available()=false when disabled via env")
	}
}

package app

import (
	"strings"
	"testing"

	"vigil/cmd/security/token"
)

func TestValidateSecurityConfigPolicyOff(t *testing.T) {
	t.Setenv(token.HMACEnvKey, "")

	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: false}); err != nil {
		t.Fatalf("policy off must not require a key: %v", err)
	}
}

func TestValidateSecurityConfigMissingKey(t *testing.T) {
	t.Setenv(token.HMACEnvKey, "")

	err := ValidateSecurityConfig(Config{RequireTokenHMAC: true})
	if err == nil {
		t.Fatalf("expected startup refusal without a key")
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSecurityConfigShortKey(t *testing.T) {
	t.Setenv(token.HMACEnvKey, "sixteen-bytes!!!")

	err := ValidateSecurityConfig(Config{RequireTokenHMAC: true})
	if err == nil {
		t.Fatalf("expected startup refusal for a short key")
	}
	if !strings.Contains(err.Error(), "too short") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSecurityConfigStrongKey(t *testing.T) {
	t.Setenv(token.HMACEnvKey, "0123456789abcdef0123456789abcdef")

	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err != nil {
		t.Fatalf("32-byte key must satisfy the policy: %v", err)
	}
	if !token.HMACEnabled() {
		t.Fatalf("hasher should report HMAC mode with the key set")
	}
}

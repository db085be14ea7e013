package app

import (
	"errors"

	"vigil/cmd/security/token"
)

// ValidateSecurityConfig enforces the token-hashing policy at startup.
// Fail-fast is intentional: silently falling back to weaker crypto in
// production is unacceptable, so when the policy is on the process refuses
// to boot without a strong key. Enforcement goes through the same module
// that performs the hashing (security/token).
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Minimum 32 bytes for an HMAC-SHA256 secret, measured in bytes
	// (not runes) because the key is used raw.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: VIGIL_REQUIRE_TOKEN_HMAC=true but VIGIL_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: VIGIL_REQUIRE_TOKEN_HMAC=true but VIGIL_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	// Hard assertion that the hasher really is in HMAC mode, guarding
	// against a future change that reintroduces the SHA fallback under policy.
	if !token.HMACEnabled() {
		return errors.New("security policy: VIGIL_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}

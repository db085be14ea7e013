package token

import (
	"errors"
	"testing"
)

func TestNewTokensAreUniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := New(DefaultBytes)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if len(tok) < 40 {
			t.Fatalf("token too short: %q", tok)
		}
		for _, r := range tok {
			if r == '+' || r == '/' || r == '=' {
				t.Fatalf("token not URL-safe: %q", tok)
			}
		}
		if seen[tok] {
			t.Fatalf("duplicate token")
		}
		seen[tok] = true
	}
}

func TestNewEnforcesMinimumEntropy(t *testing.T) {
	tok, err := New(4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// 32 bytes raw-url encodes to 43 chars.
	if len(tok) != 43 {
		t.Fatalf("undersized request not bumped to the floor: len=%d", len(tok))
	}
}

func TestHashTokenHexFallsBackToSHA256(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if got := HashTokenHex("abc"); got != HashSHA256Hex("abc") {
		t.Fatalf("expected plain SHA-256 fallback, got %q", got)
	}
}

func TestHashTokenHexUsesHMACWhenKeyed(t *testing.T) {
	t.Setenv(HMACEnvKey, "0123456789abcdef0123456789abcdef")
	got := HashTokenHex("abc")
	if got == HashSHA256Hex("abc") {
		t.Fatalf("keyed hash must differ from plain SHA-256")
	}
	if got != HashHMACSHA256Hex("abc", []byte("0123456789abcdef0123456789abcdef")) {
		t.Fatalf("hmac mismatch")
	}
}

func TestHMACKeyFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(16); !errors.Is(err, ErrHMACKeyMissing) {
		t.Fatalf("missing key: err = %v", err)
	}

	t.Setenv(HMACEnvKey, "tooshort")
	if _, err := HMACKeyFromEnv(16); !errors.Is(err, ErrHMACKeyTooShort) {
		t.Fatalf("short key: err = %v", err)
	}

	t.Setenv(HMACEnvKey, "  0123456789abcdef  ")
	key, err := HMACKeyFromEnv(16)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if string(key) != "0123456789abcdef" {
		t.Fatalf("key not trimmed: %q", key)
	}
}

func TestLogRefIsShortAndStable(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	a := LogRef("some-token")
	b := LogRef("some-token")
	if a != b {
		t.Fatalf("log ref not stable: %q vs %q", a, b)
	}
	if len(a) != 8 {
		t.Fatalf("log ref length = %d", len(a))
	}
	if a == "some-tok" {
		t.Fatalf("log ref leaks the raw token")
	}
}

package token

import "errors"

var (
	// ErrHMACKeyMissing indicates the HMAC env var is not set (or blank).
	ErrHMACKeyMissing = errors.New("token: HMAC key missing")
	// ErrHMACKeyTooShort indicates the HMAC key does not meet the minimum byte length.
	ErrHMACKeyTooShort = errors.New("token: HMAC key too short")
)

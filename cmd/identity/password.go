package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. RFC 9106 second recommended option; the same
// balance the rest of the ecosystem ships for interactive logins.
const (
	argonMemoryKiB  = 64 * 1024
	argonIterations = 3
	argonThreads    = 2
	argonSaltLen    = 16
	argonKeyLen     = 32

	minPasswordLen = 8
)

var errMalformedHash = errors.New("identity: malformed password hash")

// HashPassword returns a PHC-style argon2id hash string.
func HashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLen {
		return "", errors.New("identity: password too short")
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plain), salt, argonIterations, argonMemoryKiB, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemoryKiB, argonIterations, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks plain against a PHC-style argon2id string.
// Returns nil on match, ErrBadCredentials on mismatch.
func VerifyPassword(plain, phc string) error {
	salt, key, memory, iterations, threads, err := decodePHC(phc)
	if err != nil {
		return err
	}

	got := argon2.IDKey([]byte(plain), salt, iterations, memory, threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(got, key) != 1 {
		return ErrBadCredentials
	}
	return nil
}

func decodePHC(phc string) (salt, key []byte, memory, iterations uint32, threads uint8, err error) {
	parts := strings.Split(phc, "$")
	// "", "argon2id", "v=19", "m=...,t=...,p=...", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	// Anti-DoS bounds: refuse hashes demanding absurd work.
	if memory == 0 || memory > 1<<21 || iterations == 0 || iterations > 16 || threads == 0 {
		return nil, nil, 0, 0, 0, errMalformedHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, 0, 0, 0, errMalformedHash
	}
	return salt, key, memory, iterations, threads, nil
}

// dummyHash is compared against when the username does not exist, keeping
// the failure path's timing independent of user existence.
var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("vigil-dummy-password")
	if err != nil {
		return ""
	}
	return h
})()

// Package token provides the opaque session-token primitives used by vigil.
//
// Tokens are unguessable random strings; the server never derives meaning
// from their contents. Hashing helpers exist so logs and shared stores can
// reference a token without holding the plain value.
package token

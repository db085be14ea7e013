// Package session is the authoritative in-memory registry of live logins.
//
// It enforces the single-session-per-user policy, tracks last-activity
// timestamps for presence, and keeps short-lived kick marks so an
// administratively revoked user cannot re-establish presence through a
// stale in-flight request.
//
// Exactly one Registry exists per server process. Scaling beyond one
// process means replacing the maps with a shared store behind the same
// evict-then-insert contract; the KickCache interface is the first seam
// for that.
package session

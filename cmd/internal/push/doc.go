// Package push delivers forced-logout and liveness events to connected
// clients in real time.
//
// The Hub keeps an index of live connections per user and fans one logical
// event out to all of them. Two transports feed it: a line-oriented SSE
// stream (the primary channel) and a WebSocket gateway carrying the same
// envelopes. Dead connections are pruned the moment a write to them fails;
// there is no separate reaper.
package push

// Package regen wires the page cache into the request path. Fresh entries
// are served straight from disk; misses and stale entries are rendered by
// the origin, returned to the client, and regenerated on disk in the
// background without delaying the response.
package regen

// Package cache implements the on-disk page store behind static render
// regeneration. Each entry is a single file at <root>/<sanitized identifier>
// holding the raw rendered body; freshness is derived from the file mtime and
// a caller supplied TTL. Identifiers are reduced to [A-Za-z0-9_-] before they
// reach the filesystem, and Read refuses any path that resolves outside the
// root. Lookup failures of every kind surface as a cache miss; only identifier
// validation errors escape to callers. Writes are fire-and-forget so the
// regen handler never waits on the disk before answering a request.
package cache

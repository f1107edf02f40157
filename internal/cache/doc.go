// Package cache stores advisory responses on disk.
//
// Entries are keyed by a SHA-256 hash of provider, model and the redacted
// source, and expire after a TTL. Fetch collapses concurrent misses for the
// same key into one upstream call. The default directory is
// $XDG_CACHE_HOME/critic or the OS equivalent.
package cache

// Package settings holds the user's indexing preferences.
//
// A Store keeps the current snapshot behind an atomic pointer so scans and
// queries read it without locking. Save validates, persists and swaps in a new
// snapshot with an incremented version, then notifies subscribers. Scan roots
// are derived from a snapshot with ResolveRoots, which expands "~" and locates
// local sync folders for enabled cloud services.
package settings

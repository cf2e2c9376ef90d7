// Package indexing keeps the file index in step with the filesystem.
//
// A Scanner walks the configured roots, compares each file's size and
// modification time with its stored record and submits new or changed files
// to a Pipeline. The pipeline runs extraction, embedding and the index upsert
// on a bounded worker pool, with at most one job per path and a wall-clock
// budget per job. Records whose file disappeared, whose type was disabled or
// whose root is no longer configured are deleted.
//
// A Scheduler triggers scans on start, on settings changes, periodically and,
// when a Watcher is attached, shortly after filesystem events.
package indexing

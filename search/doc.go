// Package search answers free-text queries against the file index.
//
// A query is embedded into every space that accepts text, each space is
// queried for its nearest records, and the hits are merged by similarity.
// Spaces are never compared with each other directly; merging by score is the
// only cross-space step. Failures inside a search degrade to an empty result
// set and are logged rather than returned.
package search

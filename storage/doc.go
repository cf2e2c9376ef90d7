// Package storage provides the storage abstraction layer for FileSeekr.
//
// This package defines repository interfaces that decouple the file index from
// the indexing and search logic. The only production backend is BadgerDB
// (storage/badger), which also offers an in-memory mode for tests.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interfaces declared here:
//
//	files, err := badger.NewFileRepository(backend)  // returns storage.FileRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - FileRepository: path -> FileRecord, plus per-space vector entries and exact kNN queries
//   - SettingsRepository: the singleton user configuration
//
// # Serialization
//
// Records are encoded with mus-go. Every encoded value starts with a format
// version so that older databases are detected rather than misread.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Long scans (List, Query)
// check it between items.
package storage

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/UBH-Fall-2024/FileSeekr/storage"
	"github.com/dgraph-io/badger/v4"
)

// ctxCheckInterval is how many iterated items pass between context checks.
const ctxCheckInterval = 256

// FileRepository implements storage.FileRepository for BadgerDB.
type FileRepository struct {
	backend    *Backend
	dimensions map[core.SpaceID]int
	logger     *slog.Logger
}

var _ storage.FileRepository = (*FileRepository)(nil)

// FileOption configures a FileRepository.
type FileOption func(*FileRepository) error

// WithDimension declares the vector dimension of a space.
// Upserts and queries with a different length are rejected with core.ErrDimensionMismatch.
func WithDimension(space core.SpaceID, dimension int) FileOption {
	return func(r *FileRepository) error {
		if dimension < 1 {
			return fmt.Errorf("%w: dimension %d for space %s", core.ErrValidation, dimension, space)
		}
		r.dimensions[space] = dimension
		return nil
	}
}

// WithFileLogger sets a custom logger.
// Default is the backend's logger.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(r *FileRepository) error {
		if logger != nil {
			r.logger = logger.With("component", "file-index")
		}
		return nil
	}
}

// NewFileRepository creates a new FileRepository.
//
// Returns storage.FileRepository interface to enforce abstraction.
func NewFileRepository(backend *Backend, opts ...FileOption) (storage.FileRepository, error) {
	return newFileRepository(backend, opts...)
}

func newFileRepository(backend *Backend, opts ...FileOption) (*FileRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	r := &FileRepository{
		backend:    backend,
		dimensions: make(map[core.SpaceID]int),
		logger:     backend.logger.With("component", "file-index"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *FileRepository) Close() error {
	return nil
}

// Upsert inserts or replaces the record for record.Path.
func (r *FileRepository) Upsert(ctx context.Context, record *core.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.checkOpen(); err != nil {
		return err
	}
	if record != nil {
		record.Path = filepath.Clean(record.Path)
	}
	if err := core.ValidateFileRecord(record, r.dimensions[spaceOf(record)]); err != nil {
		return err
	}

	stored := record.Clone()
	stored.Embedding = nil

	return r.backend.Update(func(tx *badger.Txn) error {
		previous, err := readFileRecord(tx, makeFileKey(record.Path))
		if err != nil {
			return err
		}
		if previous != nil && previous.Space != "" && previous.Space != record.Space {
			if err := tx.Delete(makeVectorKey(previous.Space, record.Path)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeFileKey(record.Path), storage.MarshalFileRecord(stored)); err != nil {
			return err
		}

		if record.Status == core.StatusIndexed {
			entry := &storage.VectorEntry{IndexedAt: record.IndexedAt, Vector: record.Embedding}
			return tx.Set(makeVectorKey(record.Space, record.Path), storage.MarshalVectorEntry(entry))
		}
		if record.Space != "" {
			return tx.Delete(makeVectorKey(record.Space, record.Path))
		}
		return nil
	})
}

// Delete removes records and their vector entries. Absent paths are ignored.
func (r *FileRepository) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.checkOpen(); err != nil {
		return err
	}

	return r.backend.Update(func(tx *badger.Txn) error {
		for _, path := range paths {
			key := makeFileKey(filepath.Clean(path))
			record, err := readFileRecord(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if record.Space != "" {
				if err := tx.Delete(makeVectorKey(record.Space, record.Path)); err != nil {
					return err
				}
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get retrieves a record by path, with its embedding when one is stored.
func (r *FileRepository) Get(ctx context.Context, path string) (*core.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	var result *core.FileRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readFullRecord(tx, filepath.Clean(path))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// List returns records at or below root. An empty root lists everything.
func (r *FileRepository) List(ctx context.Context, root string) ([]*core.FileRecord, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	prefix := []byte(fileRecordPrefix)
	var cleanRoot string
	if root != "" {
		cleanRoot = filepath.Clean(root)
		prefix = makeFileKey(cleanRoot)
	}

	var records []*core.FileRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		n := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if n++; n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			path := pathFromKey(iter.Item().Key(), []byte(fileRecordPrefix))
			if cleanRoot != "" && !core.IsUnder(path, cleanRoot) {
				continue
			}
			var record *core.FileRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalFileRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return ctx.Err()
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Query returns the k nearest records in space using an exact scan of the
// space's vector entries. The scan and the record lookups share one read
// transaction, so concurrent upserts are either fully visible or not at all.
func (r *FileRepository) Query(ctx context.Context, space core.SpaceID, metric core.Metric, vector []float32, k int) ([]core.Hit, error) {
	if k < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if dim, ok := r.dimensions[space]; ok && len(vector) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, space %s has %d",
			core.ErrDimensionMismatch, len(vector), space, dim)
	}
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	var hits []core.Hit
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeVectorSpacePrefix(space)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		queue := newCandidateQueue(k)
		skipped := 0
		n := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if n++; n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			item := iter.Item()
			var entry *storage.VectorEntry
			err := item.Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalVectorEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(entry.Vector) != len(vector) {
				skipped++
				continue
			}
			dist, sim := distance(metric, vector, entry.Vector)
			queue.offer(&candidate{
				path:       pathFromKey(item.Key(), prefix),
				distance:   dist,
				similarity: sim,
				indexedAt:  entry.IndexedAt,
			})
		}
		if skipped > 0 {
			r.logger.Debug("skipped vectors with mismatched dimension", "space", space, "count", skipped)
		}

		for _, c := range queue.sorted() {
			record, err := readFileRecord(tx, makeFileKey(c.path))
			if err != nil {
				return err
			}
			if record == nil || record.Status != core.StatusIndexed {
				continue
			}
			hits = append(hits, core.Hit{Record: record, Distance: c.distance, Similarity: c.similarity})
		}
		return ctx.Err()
	}, false)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Count returns the number of records and the number of vector entries.
func (r *FileRepository) Count(ctx context.Context) (total int, indexed int, err error) {
	if err := r.checkOpen(); err != nil {
		return 0, 0, err
	}
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		total = countPrefix(tx, []byte(fileRecordPrefix))
		indexed = countPrefix(tx, []byte(vectorPrefix))
		return ctx.Err()
	}, false)
	return total, indexed, err
}

func (r *FileRepository) checkOpen() error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

func countPrefix(tx *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	n := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		n++
	}
	return n
}

// readFileRecord returns nil, nil when the key is absent.
func readFileRecord(tx *badger.Txn, key []byte) (*core.FileRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var record *core.FileRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalFileRecord(val)
		return err
	})
	return record, err
}

// readFullRecord reads a record and attaches its stored embedding.
func readFullRecord(tx *badger.Txn, path string) (*core.FileRecord, error) {
	record, err := readFileRecord(tx, makeFileKey(path))
	if err != nil || record == nil || record.Space == "" {
		return record, err
	}
	item, err := tx.Get(makeVectorKey(record.Space, path))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return record, nil
		}
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		entry, err := storage.UnmarshalVectorEntry(val)
		if err != nil {
			return err
		}
		record.Embedding = entry.Vector
		return nil
	})
	return record, err
}

func spaceOf(record *core.FileRecord) core.SpaceID {
	if record == nil {
		return ""
	}
	return record.Space
}

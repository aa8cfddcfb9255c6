package badger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Each repository is bound to one collection inside the backend.
type ChunkRepository struct {
	backend    *Backend
	collection string
	prefix     []byte
	closed     atomic.Bool
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository opens the named collection, creating it if it does
// not exist yet.
func NewChunkRepository(backend *Backend, collection string) (*ChunkRepository, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}

	marker := makeCollectionKey(collection)
	err := backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(marker)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		created := []byte(time.Now().UTC().Format(time.RFC3339))
		if err := tx.Set(marker, created); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}

	return &ChunkRepository{
		backend:    backend,
		collection: collection,
		prefix:     makeChunkPrefix(collection),
	}, nil
}

// Close detaches the repository. The backend stays open.
func (r *ChunkRepository) Close() error {
	r.closed.Store(true)
	return nil
}

// Collection returns the collection name.
func (r *ChunkRepository) Collection() string {
	return r.collection
}

func (r *ChunkRepository) checkOpen(ctx context.Context) error {
	if r.closed.Load() || r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return ctx.Err()
}

// UpsertChunks writes chunks keyed by ChunkID, replacing existing entries.
// The whole batch is validated before anything is written.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks ...core.Chunk) error {
	if err := r.checkOpen(ctx); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	entries := make([]entry, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		value, err := storage.MarshalChunk(chunk)
		if err != nil {
			return err
		}
		entries = append(entries, entry{
			key:   makeChunkKey(r.collection, chunk.ChunkID),
			value: value,
		})
	}

	return r.backend.setAll(entries)
}

// Count returns the number of chunks in the collection.
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	if err := r.checkOpen(ctx); err != nil {
		return 0, err
	}
	return r.backend.countKeys(r.prefix)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id string) (*core.Chunk, error) {
	if err := r.checkOpen(ctx); err != nil {
		return nil, err
	}
	value, err := r.backend.get(makeChunkKey(r.collection, id))
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalChunk(id, value)
}

// ChunkIDs returns the IDs of every chunk in the collection in key order.
func (r *ChunkRepository) ChunkIDs(ctx context.Context) ([]string, error) {
	if err := r.checkOpen(ctx); err != nil {
		return nil, err
	}
	return r.backend.keys(r.prefix)
}

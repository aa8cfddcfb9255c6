// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package studyops ingests local notes and documents into a persistent,
// idempotent chunk store.
package studyops

import (
	"context"
	"log/slog"

	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/ingestion"
	"github.com/poiesic/studyops/storage"
	"github.com/poiesic/studyops/storage/badger"
)

type Database struct {
	backend   *badger.Backend
	chunkRepo *badger.ChunkRepository
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger   *slog.Logger
	inMemory bool
}

// WithDatabaseLogger sets the logger used for lifecycle messages.
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// InMemory keeps the store in memory. PersistDir is ignored.
func InMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// Open opens the collection described by cfg, creating the persistence
// directory and the collection as needed.
func Open(cfg storage.Config, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	if options.inMemory {
		if err := storage.ValidateCollection(cfg.Collection); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(cfg.PersistDir, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend, cfg.Collection)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		chunkRepo: chunkRepo,
		logger:    options.logger.With("component", "database"),
	}, nil
}

func (db *Database) Close() error {
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

// Collections lists every collection stored alongside this one.
func (db *Database) Collections() ([]string, error) {
	return db.backend.Collections()
}

func (db *Database) NewIngestionPipeline(cfg core.ChunkConfig, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.chunkRepo, cfg, opts...)
}

// IngestPath loads every supported file under path into the collection
// described by storeCfg. The chunk configuration is validated before the
// store is opened.
func IngestPath(ctx context.Context, path string, storeCfg storage.Config, chunkCfg core.ChunkConfig, opts ...ingestion.Option) (core.IngestResult, error) {
	if err := core.ValidateChunkConfig(chunkCfg); err != nil {
		return core.IngestResult{}, err
	}

	db, err := Open(storeCfg)
	if err != nil {
		return core.IngestResult{}, err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(chunkCfg, opts...)
	if err != nil {
		return core.IngestResult{}, err
	}
	defer pipeline.Release()

	return pipeline.Ingest(ctx, path)
}

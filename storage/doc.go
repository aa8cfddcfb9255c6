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


// Package storage provides the storage abstraction layer for studyops.
//
// This package defines repository interfaces that decouple the ingestion
// pipeline from the storage engine. The BadgerDB implementation lives in
// storage/badger.
//
// # Collections
//
// A persistence directory holds any number of named collections. Each
// collection is an independent key space of chunks keyed by chunk id.
// Opening a collection that already exists reuses it.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/store", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewChunkRepository(backend, "notes")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Idempotence
//
// UpsertChunks replaces entries with the same id, so writing the same chunk
// twice leaves the collection unchanged. Concurrent writers may upsert the
// same id; the last committed write wins.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage

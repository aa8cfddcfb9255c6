// Package ingestion provides pipeline orchestration for loading documents
// into a chunk store.
//
// The Pipeline type manages the ingestion workflow for a filesystem root:
//   - Discovering supported files under the root
//   - Loading each file into a Document
//   - Chunking the text and upserting the chunks
//
// Every file is processed independently. A file that cannot be loaded,
// chunked or stored is counted as skipped and never aborts the run; only an
// invalid chunk configuration or an inaccessible root is fatal.
//
// Files are processed one at a time by default. WithWorkers enables a worker
// pool; chunk ids are deterministic, so overlapping writes of the same chunk
// converge on the same stored value.
package ingestion

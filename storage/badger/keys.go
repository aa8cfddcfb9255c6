package badger

import "fmt"

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chunk"
	collectionPrefix  = "coll"
)

// makeChunkPrefix generates the key prefix shared by every chunk in a collection.
// Format: prefix:collection:
func makeChunkPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkRecordPrefix, collection))
}

// makeChunkKey generates a key for a chunk by collection and ID.
// Format: prefix:collection:id
func makeChunkKey(collection, id string) []byte {
	prefix := makeChunkPrefix(collection)
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], id)
	return buf
}

// makeCollectionKey generates the marker key recording that a collection exists.
func makeCollectionKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, collection))
}

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


package storage

import (
	"errors"
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/studyops/core"
)

// Metadata value tags. Integers of every width are stored as int64.
const (
	tagString byte = iota + 1
	tagInt
	tagFloat
	tagBool
)

var (
	errShortValue    = errors.New("metadata value is empty")
	errUnknownTag    = errors.New("unknown metadata value tag")
	errTrailingBytes = errors.New("trailing bytes after chunk record")
	chunkRecordMUS   = chunkRecordSer{}
	metadataValueMUS = metadataValueSer{}
	metadataMUS      = ord.NewMapSer[string, any](ord.String, metadataValueMUS)
)

// chunkRecord is the stored form of a chunk. The id lives in the key.
type chunkRecord struct {
	DocID    string
	Text     string
	Metadata map[string]any
}

type chunkRecordSer struct{}

func (chunkRecordSer) Marshal(v chunkRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocID, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	return n + metadataMUS.Marshal(v.Metadata, bs[n:])
}

func (chunkRecordSer) Unmarshal(bs []byte) (v chunkRecord, n int, err error) {
	v.DocID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkRecordSer) Size(v chunkRecord) (size int) {
	size = ord.String.Size(v.DocID)
	size += ord.String.Size(v.Text)
	return size + metadataMUS.Size(v.Metadata)
}

func (s chunkRecordSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// metadataValueSer writes a one-byte tag followed by the value. Values must
// be normalized first; see normalizeMetadata.
type metadataValueSer struct{}

func (metadataValueSer) Marshal(v any, bs []byte) (n int) {
	switch t := v.(type) {
	case string:
		bs[0] = tagString
		return 1 + ord.String.Marshal(t, bs[1:])
	case int64:
		bs[0] = tagInt
		return 1 + varint.Int64.Marshal(t, bs[1:])
	case float64:
		bs[0] = tagFloat
		return 1 + raw.Float64.Marshal(t, bs[1:])
	case bool:
		bs[0] = tagBool
		return 1 + ord.Bool.Marshal(t, bs[1:])
	}
	panic(fmt.Sprintf("unnormalized metadata value of type %T", v))
}

func (metadataValueSer) Unmarshal(bs []byte) (v any, n int, err error) {
	if len(bs) == 0 {
		return nil, 0, errShortValue
	}
	switch bs[0] {
	case tagString:
		v, n, err = ord.String.Unmarshal(bs[1:])
	case tagInt:
		v, n, err = varint.Int64.Unmarshal(bs[1:])
	case tagFloat:
		v, n, err = raw.Float64.Unmarshal(bs[1:])
	case tagBool:
		v, n, err = ord.Bool.Unmarshal(bs[1:])
	default:
		return nil, 1, fmt.Errorf("%w: %d", errUnknownTag, bs[0])
	}
	return v, n + 1, err
}

func (metadataValueSer) Size(v any) (size int) {
	switch t := v.(type) {
	case string:
		return 1 + ord.String.Size(t)
	case int64:
		return 1 + varint.Int64.Size(t)
	case float64:
		return 1 + raw.Float64.Size(t)
	case bool:
		return 1 + ord.Bool.Size(t)
	}
	panic(fmt.Sprintf("unnormalized metadata value of type %T", v))
}

func (s metadataValueSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// normalizeMetadata copies metadata, widening integers to int64 and floats to
// float64. Any other value type is rejected.
func normalizeMetadata(metadata map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch t := v.(type) {
		case string, int64, float64, bool:
			out[k] = t
		case int:
			out[k] = int64(t)
		case int32:
			out[k] = int64(t)
		case int16:
			out[k] = int64(t)
		case int8:
			out[k] = int64(t)
		case uint32:
			out[k] = int64(t)
		case uint16:
			out[k] = int64(t)
		case uint8:
			out[k] = int64(t)
		case float32:
			out[k] = float64(t)
		default:
			return nil, fmt.Errorf("%w: metadata %q has unsupported type %T", ErrSerializationFailed, k, v)
		}
	}
	return out, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) ([]byte, error) {
	metadata, err := normalizeMetadata(chunk.Metadata)
	if err != nil {
		return nil, err
	}
	rec := chunkRecord{DocID: chunk.DocID, Text: chunk.Text, Metadata: metadata}
	buf := make([]byte, chunkRecordMUS.Size(rec))
	chunkRecordMUS.Marshal(rec, buf)
	return buf, nil
}

// UnmarshalChunk deserializes a Chunk stored under id.
// Integer metadata values come back as int64.
func UnmarshalChunk(id string, data []byte) (*core.Chunk, error) {
	rec, n, err := chunkRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, errTrailingBytes)
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	return &core.Chunk{
		ChunkID:  id,
		DocID:    rec.DocID,
		Text:     rec.Text,
		Metadata: rec.Metadata,
	}, nil
}

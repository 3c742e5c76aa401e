// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Chunk is one typed field of a frame payload.
//
// Value holds the Go representation of the wire value:
//
//	TypeNone                     nil
//	TypeI8 .. TypeF64            int8, uint8, int16, uint16, int32, uint32, float32, float64
//	TypeString, TypeU8Array      []byte
//	TypeI8Array .. TypeF64Array  []int8, []int16, []uint16, []int32, []uint32, []float32, []float64
//	TypeCardUID                  CardUID
//	TypeCardUIDArray             []CardUID
//	TypeCardRange                Range
//
// A nil Value is the zero-size placeholder for any type. Empty slices encode
// to a zero-size value as well and therefore decode as nil.
type Chunk struct {
	ID    uint8
	Type  DataType
	Value interface{}
}

// NewChunk creates a chunk; the value is checked when encoded
func NewChunk(id uint8, t DataType, value interface{}) Chunk {
	return Chunk{ID: id, Type: t, Value: value}
}

// NoneChunk creates a zero-size placeholder chunk.
func NoneChunk(id uint8) Chunk {
	return Chunk{ID: id, Type: TypeNone}
}

// RangeChunk creates a CARD_RANGE chunk for paginated reads
func RangeChunk(id uint8, offset, count uint8) Chunk {
	return Chunk{ID: id, Type: TypeCardRange, Value: Range{Offset: offset, Count: count}}
}

// Size returns the encoded size of the value in bytes.
func (c Chunk) Size() int {
	switch v := c.Value.(type) {
	case nil:
		return 0
	case []byte:
		return len(v)
	case []int8:
		return len(v)
	case []int16:
		return 2 * len(v)
	case []uint16:
		return 2 * len(v)
	case []int32:
		return 4 * len(v)
	case []uint32:
		return 4 * len(v)
	case []float32:
		return 4 * len(v)
	case []float64:
		return 8 * len(v)
	case []CardUID:
		return CardUIDSize * len(v)
	}
	return c.Type.Width()
}

// DecodeChunks parses a payload into its chunks, in order.
//
// A chunk whose type tag is unknown or whose size does not fit its type is
// skipped; a chunk running past the end of data stops decoding. Each such
// failure is reported as a *ChunkError in the joined error, while every
// chunk that did decode is still returned.
func DecodeChunks(data []byte) ([]Chunk, error) {
	var chunks []Chunk
	var errs []error

	for start, index := 0, 0; start < len(data); index++ {
		if len(data)-start < ChunkHeaderSize {
			errs = append(errs, &ChunkError{Index: index, Err: ErrTruncatedChunk})
			break
		}
		id := data[start]
		t := DataType(data[start+1])
		size := binary.LittleEndian.Uint16(data[start+2 : start+4])
		start += ChunkHeaderSize

		if len(data)-start < int(size) {
			errs = append(errs, &ChunkError{Index: index, ID: id, Type: t, Size: size,
				Err: fmt.Errorf("%w: %d bytes left", ErrTruncatedChunk, len(data)-start)})
			break
		}
		raw := data[start : start+int(size)]
		start += int(size)

		value, err := decodeValue(t, raw)
		if err != nil {
			errs = append(errs, &ChunkError{Index: index, ID: id, Type: t, Size: size, Err: err})
			continue
		}
		chunks = append(chunks, Chunk{ID: id, Type: t, Value: value})
	}

	return chunks, errors.Join(errs...)
}

// EncodeChunks serializes chunks into a payload
func EncodeChunks(chunks ...Chunk) ([]byte, error) {
	var out []byte
	for i, c := range chunks {
		value, err := encodeValue(c.Type, c.Value)
		if err != nil {
			return nil, &ChunkError{Index: i, ID: c.ID, Type: c.Type, Err: err}
		}
		if len(value) > MaxPayloadSize {
			return nil, &ChunkError{Index: i, ID: c.ID, Type: c.Type,
				Err: fmt.Errorf("%w: value of %d bytes", ErrPayloadTooLarge, len(value))}
		}
		out = append(out, c.ID, uint8(c.Type))
		out = binary.LittleEndian.AppendUint16(out, uint16(len(value)))
		out = append(out, value...)
	}
	if len(out) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(out))
	}
	return out, nil
}

func decodeValue(t DataType, raw []byte) (interface{}, error) {
	if err := t.checkSize(len(raw)); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	le := binary.LittleEndian
	n := 0
	if t.IsArray() {
		n = len(raw) / t.Width()
	}

	switch t {
	case TypeI8:
		return int8(raw[0]), nil
	case TypeU8:
		return raw[0], nil
	case TypeI16:
		return int16(le.Uint16(raw)), nil
	case TypeU16:
		return le.Uint16(raw), nil
	case TypeI32:
		return int32(le.Uint32(raw)), nil
	case TypeU32:
		return le.Uint32(raw), nil
	case TypeF32:
		return math.Float32frombits(le.Uint32(raw)), nil
	case TypeF64:
		return math.Float64frombits(le.Uint64(raw)), nil
	case TypeString, TypeU8Array:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case TypeI8Array:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out, nil
	case TypeI16Array:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(le.Uint16(raw[2*i:]))
		}
		return out, nil
	case TypeU16Array:
		out := make([]uint16, n)
		for i := range out {
			out[i] = le.Uint16(raw[2*i:])
		}
		return out, nil
	case TypeI32Array:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(le.Uint32(raw[4*i:]))
		}
		return out, nil
	case TypeU32Array:
		out := make([]uint32, n)
		for i := range out {
			out[i] = le.Uint32(raw[4*i:])
		}
		return out, nil
	case TypeF32Array:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(raw[4*i:]))
		}
		return out, nil
	case TypeF64Array:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(raw[8*i:]))
		}
		return out, nil
	case TypeCardUID:
		var c CardUID
		copy(c[:], raw)
		return c, nil
	case TypeCardUIDArray:
		out := make([]CardUID, n)
		for i := range out {
			copy(out[i][:], raw[CardUIDSize*i:])
		}
		return out, nil
	case TypeCardRange:
		return Range{Offset: raw[0], Count: raw[1]}, nil
	}
	return nil, ErrUnknownDataType
}

func encodeValue(t DataType, value interface{}) ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnknownDataType
	}
	if value == nil {
		return nil, nil
	}

	le := binary.LittleEndian
	var out []byte

	switch v := value.(type) {
	case int8:
		if t == TypeI8 {
			return []byte{byte(v)}, nil
		}
	case uint8:
		if t == TypeU8 {
			return []byte{v}, nil
		}
	case int16:
		if t == TypeI16 {
			return le.AppendUint16(out, uint16(v)), nil
		}
	case uint16:
		if t == TypeU16 {
			return le.AppendUint16(out, v), nil
		}
	case int32:
		if t == TypeI32 {
			return le.AppendUint32(out, uint32(v)), nil
		}
	case uint32:
		if t == TypeU32 {
			return le.AppendUint32(out, v), nil
		}
	case float32:
		if t == TypeF32 {
			return le.AppendUint32(out, math.Float32bits(v)), nil
		}
	case float64:
		if t == TypeF64 {
			return le.AppendUint64(out, math.Float64bits(v)), nil
		}
	case []byte:
		if t == TypeString || t == TypeU8Array {
			return append(out, v...), nil
		}
	case []int8:
		if t == TypeI8Array {
			for _, e := range v {
				out = append(out, byte(e))
			}
			return out, nil
		}
	case []int16:
		if t == TypeI16Array {
			for _, e := range v {
				out = le.AppendUint16(out, uint16(e))
			}
			return out, nil
		}
	case []uint16:
		if t == TypeU16Array {
			for _, e := range v {
				out = le.AppendUint16(out, e)
			}
			return out, nil
		}
	case []int32:
		if t == TypeI32Array {
			for _, e := range v {
				out = le.AppendUint32(out, uint32(e))
			}
			return out, nil
		}
	case []uint32:
		if t == TypeU32Array {
			for _, e := range v {
				out = le.AppendUint32(out, e)
			}
			return out, nil
		}
	case []float32:
		if t == TypeF32Array {
			for _, e := range v {
				out = le.AppendUint32(out, math.Float32bits(e))
			}
			return out, nil
		}
	case []float64:
		if t == TypeF64Array {
			for _, e := range v {
				out = le.AppendUint64(out, math.Float64bits(e))
			}
			return out, nil
		}
	case CardUID:
		if t == TypeCardUID {
			return append(out, v[:]...), nil
		}
	case []CardUID:
		if t == TypeCardUIDArray {
			for _, e := range v {
				out = append(out, e[:]...)
			}
			return out, nil
		}
	case Range:
		if t == TypeCardRange {
			return []byte{v.Offset, v.Count}, nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s", ErrValueType, value, t)
}

// Value accessors

// Float returns any numeric scalar value as float64
func (c Chunk) Float() (float64, bool) {
	switch v := c.Value.(type) {
	case int8:
		return float64(v), true
	case uint8:
		return float64(v), true
	case int16:
		return float64(v), true
	case uint16:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint32:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Uint returns an integer scalar value as uint64. Negative values are rejected.
func (c Chunk) Uint() (uint64, bool) {
	switch v := c.Value.(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case int8:
		if v >= 0 {
			return uint64(v), true
		}
	case int16:
		if v >= 0 {
			return uint64(v), true
		}
	case int32:
		if v >= 0 {
			return uint64(v), true
		}
	}
	return 0, false
}

// Int returns an integer scalar value as int64
func (c Chunk) Int() (int64, bool) {
	switch v := c.Value.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	}
	return 0, false
}

// Flag decodes a boolean word (FlagTrue = 0x00FF).
func (c Chunk) Flag() (bool, bool) {
	u, ok := c.Uint()
	if !ok {
		return false, false
	}
	return u == FlagTrue, true
}

// Bytes returns string and U8 array values
func (c Chunk) Bytes() ([]byte, bool) {
	v, ok := c.Value.([]byte)
	return v, ok
}

// Card returns a CARD_UID value. Eight-byte U8 arrays are accepted too.
func (c Chunk) Card() (CardUID, bool) {
	switch v := c.Value.(type) {
	case CardUID:
		return v, true
	case []byte:
		if len(v) == CardUIDSize {
			var card CardUID
			copy(card[:], v)
			return card, true
		}
	}
	return CardUID{}, false
}

// Cards returns a CARD_UID_ARR value
func (c Chunk) Cards() ([]CardUID, bool) {
	v, ok := c.Value.([]CardUID)
	return v, ok
}

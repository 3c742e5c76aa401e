// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DataType is the wire tag selecting how a chunk value is encoded
type DataType uint8

// Data type tags (18 is reserved)
const (
	TypeNone         DataType = 0
	TypeI8           DataType = 1
	TypeU8           DataType = 2
	TypeI16          DataType = 3
	TypeU16          DataType = 4
	TypeI32          DataType = 5
	TypeU32          DataType = 6
	TypeF32          DataType = 7
	TypeF64          DataType = 8
	TypeString       DataType = 9
	TypeI8Array      DataType = 10
	TypeU8Array      DataType = 11
	TypeI16Array     DataType = 12
	TypeU16Array     DataType = 13
	TypeI32Array     DataType = 14
	TypeU32Array     DataType = 15
	TypeF32Array     DataType = 16
	TypeF64Array     DataType = 17
	TypeCardUID      DataType = 19
	TypeCardUIDArray DataType = 20
	TypeCardRange    DataType = 21
)

// CardUIDSize is the wire width of a card identifier: eight separate bytes.
const CardUIDSize = 8

// CardUID identifies an access card
type CardUID [CardUIDSize]byte

func (c CardUID) String() string {
	return strings.ToUpper(hex.EncodeToString(c[:]))
}

// ParseCardUID parses a card id written as 16 hex digits. Colons, dashes
// and spaces between digits are ignored.
func ParseCardUID(s string) (CardUID, error) {
	var c CardUID
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(s)
	if len(clean) != 2*CardUIDSize {
		return c, fmt.Errorf("card id %q: need %d hex digits", s, 2*CardUIDSize)
	}
	if _, err := hex.Decode(c[:], []byte(clean)); err != nil {
		return c, fmt.Errorf("card id %q: %w", s, err)
	}
	return c, nil
}

// IsZero reports whether no card is recorded.
func (c CardUID) IsZero() bool {
	return c == CardUID{}
}

// Range selects a page of records for paginated reads
type Range struct {
	Offset uint8
	Count  uint8
}

func (r Range) String() string {
	return fmt.Sprintf("[%d+%d]", r.Offset, r.Count)
}

type typeInfo struct {
	name  string
	width int  // scalar width or element width
	array bool // value is a sequence of width-sized elements
}

var typeTable = map[DataType]typeInfo{
	TypeNone:         {"NONE", 0, false},
	TypeI8:           {"I8", 1, false},
	TypeU8:           {"U8", 1, false},
	TypeI16:          {"I16", 2, false},
	TypeU16:          {"U16", 2, false},
	TypeI32:          {"I32", 4, false},
	TypeU32:          {"U32", 4, false},
	TypeF32:          {"F32", 4, false},
	TypeF64:          {"F64", 8, false},
	TypeString:       {"STR", 1, true},
	TypeI8Array:      {"I8_ARR", 1, true},
	TypeU8Array:      {"U8_ARR", 1, true},
	TypeI16Array:     {"I16_ARR", 2, true},
	TypeU16Array:     {"U16_ARR", 2, true},
	TypeI32Array:     {"I32_ARR", 4, true},
	TypeU32Array:     {"U32_ARR", 4, true},
	TypeF32Array:     {"F32_ARR", 4, true},
	TypeF64Array:     {"F64_ARR", 8, true},
	TypeCardUID:      {"CARD_UID", CardUIDSize, false},
	TypeCardUIDArray: {"CARD_UID_ARR", CardUIDSize, true},
	TypeCardRange:    {"CARD_RANGE", 2, false},
}

// Valid reports whether t has a defined wire width
func (t DataType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// Width returns the scalar width, or the element width for sequences.
func (t DataType) Width() int {
	return typeTable[t].width
}

// IsArray reports whether the value is a sequence of Width-sized elements
func (t DataType) IsArray() bool {
	return typeTable[t].array
}

func (t DataType) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("TYPE_%d", uint8(t))
}

// checkSize validates a wire size against the type's width. Zero is always
// accepted as a placeholder.
func (t DataType) checkSize(size int) error {
	info, ok := typeTable[t]
	if !ok {
		return ErrUnknownDataType
	}
	if size == 0 {
		return nil
	}
	if info.array {
		if size%info.width != 0 {
			return fmt.Errorf("%w: %d is not a multiple of %d", ErrChunkSize, size, info.width)
		}
		return nil
	}
	if size != info.width {
		return fmt.Errorf("%w: %d, want %d", ErrChunkSize, size, info.width)
	}
	return nil
}

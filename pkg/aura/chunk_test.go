// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// ============================================================
// Round trips
// ============================================================

func TestChunks_RoundTripEveryType(t *testing.T) {
	card := CardUID{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}

	tests := []struct {
		name  string
		chunk Chunk
		size  int
	}{
		{"none", NoneChunk(0x0A), 0},
		{"i8", NewChunk(1, TypeI8, int8(-5)), 1},
		{"u8", NewChunk(1, TypeU8, uint8(200)), 1},
		{"i16", NewChunk(1, TypeI16, int16(-1234)), 2},
		{"u16", NewChunk(1, TypeU16, uint16(0x00FF)), 2},
		{"i32", NewChunk(1, TypeI32, int32(-100000)), 4},
		{"u32", NewChunk(1, TypeU32, uint32(3600)), 4},
		{"f32", NewChunk(0x04, TypeF32, float32(23.5)), 4},
		{"f64", NewChunk(0x06, TypeF64, 101325.25), 8},
		{"string", NewChunk(2, TypeString, []byte("handle-01")), 9},
		{"i8 array", NewChunk(3, TypeI8Array, []int8{-1, 0, 1}), 3},
		{"u8 array", NewChunk(3, TypeU8Array, []byte{1, 2, 3, 4, 5}), 5},
		{"i16 array", NewChunk(3, TypeI16Array, []int16{-300, 300}), 4},
		{"u16 array", NewChunk(3, TypeU16Array, []uint16{1, 2, 3, 0xFFFF}), 8},
		{"i32 array", NewChunk(3, TypeI32Array, []int32{-7, 7}), 8},
		{"u32 array", NewChunk(3, TypeU32Array, []uint32{0xCAFEBABE}), 4},
		{"f32 array", NewChunk(3, TypeF32Array, []float32{1.5, -2.25}), 8},
		{"f64 array", NewChunk(3, TypeF64Array, []float64{0.125}), 8},
		{"card uid", NewChunk(5, TypeCardUID, card), 8},
		{"card uid array", NewChunk(7, TypeCardUIDArray, []CardUID{card, {1}}), 16},
		{"card range", RangeChunk(8, 4, 10), 2},
		{"empty array placeholder", NewChunk(7, TypeCardUIDArray, nil), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}

			encoded, err := EncodeChunks(tt.chunk)
			if err != nil {
				t.Fatalf("EncodeChunks failed: %v", err)
			}
			if len(encoded) != ChunkHeaderSize+tt.size {
				t.Fatalf("encoded %d bytes, want %d", len(encoded), ChunkHeaderSize+tt.size)
			}

			decoded, err := DecodeChunks(encoded)
			if err != nil {
				t.Fatalf("DecodeChunks failed: %v", err)
			}
			if len(decoded) != 1 {
				t.Fatalf("decoded %d chunks, want 1", len(decoded))
			}
			if !reflect.DeepEqual(decoded[0], tt.chunk) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", decoded[0], tt.chunk)
			}
		})
	}
}

func TestEncodeChunks_WireLayout(t *testing.T) {
	encoded, err := EncodeChunks(
		NewChunk(0x04, TypeU16, uint16(0x1234)),
		RangeChunk(0x08, 0, 4),
	)
	if err != nil {
		t.Fatalf("EncodeChunks failed: %v", err)
	}
	expected := []byte{
		0x04, 0x04, 0x02, 0x00, 0x34, 0x12,
		0x08, 0x15, 0x02, 0x00, 0x00, 0x04,
	}
	if !bytes.Equal(encoded, expected) {
		t.Errorf("got %s, want %s", HexString(encoded), HexString(expected))
	}
}

func TestEncodeChunks_Empty(t *testing.T) {
	encoded, err := EncodeChunks()
	if err != nil || len(encoded) != 0 {
		t.Errorf("EncodeChunks() = %v, %v; want empty", encoded, err)
	}
	chunks, err := DecodeChunks(nil)
	if err != nil || len(chunks) != 0 {
		t.Errorf("DecodeChunks(nil) = %v, %v; want empty", chunks, err)
	}
}

func TestEncodeChunks_ValueTypeMismatch(t *testing.T) {
	_, err := EncodeChunks(NewChunk(1, TypeU16, int32(5)))
	if !errors.Is(err, ErrValueType) {
		t.Errorf("expected ErrValueType, got %v", err)
	}

	_, err = EncodeChunks(NewChunk(1, DataType(18), uint8(5)))
	if !errors.Is(err, ErrUnknownDataType) {
		t.Errorf("expected ErrUnknownDataType, got %v", err)
	}

	// Strings travel as []byte so the decoded chunk matches the encoded one
	_, err = EncodeChunks(NewChunk(1, TypeString, "handle-01"))
	if !errors.Is(err, ErrValueType) {
		t.Errorf("expected ErrValueType for Go string, got %v", err)
	}
}

func TestChunks_EmptySliceDecodesNil(t *testing.T) {
	for _, c := range []Chunk{
		NewChunk(1, TypeU16Array, []uint16{}),
		NewChunk(2, TypeCardUIDArray, []CardUID{}),
		NewChunk(3, TypeString, []byte{}),
	} {
		data, err := EncodeChunks(c)
		if err != nil {
			t.Fatalf("EncodeChunks(%v) failed: %v", c.Type, err)
		}
		if !bytes.Equal(data[2:4], []byte{0, 0}) {
			t.Errorf("%v: size field = % X, want 00 00", c.Type, data[2:4])
		}

		chunks, err := DecodeChunks(data)
		if err != nil || len(chunks) != 1 {
			t.Fatalf("%v: decoded %v, %v", c.Type, chunks, err)
		}
		if chunks[0].Value != nil || chunks[0].Type != c.Type {
			t.Errorf("%v: decoded %#v, want nil value", c.Type, chunks[0])
		}
	}
}

// ============================================================
// Decode failures
// ============================================================

func TestDecodeChunks_UnknownTypeSkipped(t *testing.T) {
	data := []byte{
		0x04, 0x02, 0x01, 0x00, 0x2A, // U8 42
		0x09, 0x12, 0x03, 0x00, 0xAA, 0xBB, 0xCC, // reserved tag 18, 3 bytes
		0x05, 0x04, 0x02, 0x00, 0x37, 0x00, // U16 55
	}

	chunks, err := DecodeChunks(data)
	if len(chunks) != 2 {
		t.Fatalf("decoded %d chunks, want 2", len(chunks))
	}
	if chunks[0].Value != uint8(42) || chunks[1].Value != uint16(55) {
		t.Errorf("unexpected values: %v, %v", chunks[0].Value, chunks[1].Value)
	}

	if !errors.Is(err, ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}
	errs := ChunkErrors(err)
	if len(errs) != 1 {
		t.Fatalf("expected 1 chunk error, got %d", len(errs))
	}
	if errs[0].Index != 1 || errs[0].ID != 0x09 || errs[0].Size != 3 {
		t.Errorf("chunk error = %+v", errs[0])
	}
}

func TestDecodeChunks_SizeMismatch(t *testing.T) {
	data := []byte{
		0x04, 0x07, 0x02, 0x00, 0x00, 0x00, // F32 with 2 bytes
		0x05, 0x0D, 0x03, 0x00, 0x01, 0x00, 0x02, // U16 array with odd size
	}
	chunks, err := DecodeChunks(data)
	if len(chunks) != 0 {
		t.Errorf("decoded %d chunks, want 0", len(chunks))
	}
	if !errors.Is(err, ErrChunkSize) {
		t.Errorf("expected ErrChunkSize, got %v", err)
	}
	if n := len(ChunkErrors(err)); n != 2 {
		t.Errorf("expected 2 chunk errors, got %d", n)
	}
}

func TestDecodeChunks_ZeroSizeScalar(t *testing.T) {
	chunks, err := DecodeChunks([]byte{0x04, 0x07, 0x00, 0x00})
	if err != nil {
		t.Fatalf("zero size chunk should decode: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Value != nil {
		t.Errorf("expected one empty chunk, got %#v", chunks)
	}
}

func TestDecodeChunks_Truncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		good int
	}{
		{"short chunk header", []byte{0x04, 0x02, 0x01, 0x00, 0x01, 0x05, 0x02}, 1},
		{"value past end", []byte{0x04, 0x06, 0x04, 0x00, 0x01, 0x02}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := DecodeChunks(tt.data)
			if len(chunks) != tt.good {
				t.Errorf("decoded %d chunks, want %d", len(chunks), tt.good)
			}
			if !errors.Is(err, ErrTruncatedChunk) {
				t.Errorf("expected ErrTruncatedChunk, got %v", err)
			}
		})
	}
}

// ============================================================
// Accessors
// ============================================================

func TestChunkAccessors(t *testing.T) {
	if v, ok := NewChunk(4, TypeF32, float32(20.5)).Float(); !ok || v != 20.5 {
		t.Errorf("Float() = %v, %v", v, ok)
	}
	if v, ok := NewChunk(5, TypeU16, uint16(55)).Float(); !ok || v != 55 {
		t.Errorf("Float() on U16 = %v, %v", v, ok)
	}
	if _, ok := NewChunk(5, TypeI16, int16(-1)).Uint(); ok {
		t.Error("Uint() should reject negative values")
	}
	if v, ok := NewChunk(5, TypeI16, int16(-1)).Int(); !ok || v != -1 {
		t.Errorf("Int() = %v, %v", v, ok)
	}
	if v, ok := NewChunk(4, TypeU16, uint16(FlagTrue)).Flag(); !ok || !v {
		t.Errorf("Flag() = %v, %v", v, ok)
	}
	if v, ok := NewChunk(4, TypeU16, uint16(0)).Flag(); !ok || v {
		t.Errorf("Flag() on 0 = %v, %v", v, ok)
	}
	card := CardUID{1, 2, 3, 4, 5, 6, 7, 8}
	if v, ok := NewChunk(5, TypeU8Array, card[:]).Card(); !ok || v != card {
		t.Errorf("Card() on U8 array = %v, %v", v, ok)
	}
	if card.String() != "0102030405060708" {
		t.Errorf("CardUID.String() = %s", card.String())
	}
	if _, ok := NoneChunk(1).Float(); ok {
		t.Error("Float() on NONE should fail")
	}
}

func TestParseCardUID(t *testing.T) {
	want := CardUID{0x04, 0xA2, 0x19, 0x7F, 0x00, 0x00, 0x00, 0x01}

	for _, in := range []string{"04A2197F00000001", "04:a2:19:7f:00:00:00:01", "04-A2-19-7F 00-00-00-01"} {
		got, err := ParseCardUID(in)
		if err != nil {
			t.Fatalf("ParseCardUID(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseCardUID(%q) = %s", in, got)
		}
	}
	if want.String() != "04A2197F00000001" {
		t.Errorf("String() = %s", want.String())
	}

	for _, in := range []string{"", "04A2", "ZZA2197F00000001", "04A2197F0000000100"} {
		if _, err := ParseCardUID(in); err == nil {
			t.Errorf("ParseCardUID(%q) should fail", in)
		}
	}
}

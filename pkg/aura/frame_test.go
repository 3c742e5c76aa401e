// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Encoding
// ============================================================

func TestEncodeFrame_WhoamiRequest(t *testing.T) {
	encoded, err := EncodeFrame(1, 1234, 0, FuncReqWhoami, nil)
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}

	expected := []byte{
		'A', 'U', 'R', 'A',
		0x01, 0x00, 0x00, 0x00, // sequence
		0xD2, 0x04, 0x00, 0x00, // source 1234
		0x00, 0x00, 0x00, 0x00, // dest
		0x01, 0x00, // REQ_WHOAMI
		0x00, 0x00, // payload length
		0x34, 0x0D, // checksum
	}
	if !bytes.Equal(encoded, expected) {
		t.Fatalf("encoded frame mismatch:\n got  %s\n want %s", HexString(encoded), HexString(expected))
	}

	f, n, err := ParseFrame(encoded)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if n != 22 {
		t.Errorf("consumed %d bytes, want 22", n)
	}
	if f.Header.Function != FuncReqWhoami {
		t.Errorf("function = %s, want REQ_WHOAMI", f.Header.Function)
	}
	if f.Header.PayloadLength != 0 {
		t.Errorf("payload length = %d, want 0", f.Header.PayloadLength)
	}
}

func TestEncodeFrame_PayloadTooLarge(t *testing.T) {
	_, err := EncodeFrame(1, 1, 2, FuncReqWriteData, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestEncodeFrame_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		sequence uint32
		src      uint32
		dst      uint32
		fn       Function
		payload  []byte
	}{
		{"whoami broadcast", 1, 1234, 0, FuncReqWhoami, nil},
		{"status response", 0xFFFFFFFF, 0x4F9B5ED6, 1234, FuncRespStatus, []byte{0x04, 0x07, 0x04, 0x00, 0x00, 0x00, 0xA0, 0x41}},
		{"write data", 42, 1234, 0x2DAC37CE, FuncReqWriteData, bytes.Repeat([]byte{0x7E}, 300)},
		{"unknown function", 7, 1, 2, Function(0xBEEF), []byte{0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeFrame(tt.sequence, tt.src, tt.dst, tt.fn, tt.payload)
			if err != nil {
				t.Fatalf("EncodeFrame failed: %v", err)
			}
			if len(encoded) != HeaderSize+len(tt.payload)+ChecksumSize {
				t.Fatalf("encoded length %d", len(encoded))
			}

			h, err := DecodeHeader(encoded[:HeaderSize])
			if err != nil {
				t.Fatalf("DecodeHeader failed: %v", err)
			}
			end := len(encoded) - ChecksumSize
			f, err := DecodeFrame(h, encoded[HeaderSize:end], encoded[end:])
			if err != nil {
				t.Fatalf("DecodeFrame failed: %v", err)
			}

			if f.Header.Magic != Magic {
				t.Errorf("magic = %q", f.Header.Magic[:])
			}
			if f.Header.Sequence != tt.sequence {
				t.Errorf("sequence = %d, want %d", f.Header.Sequence, tt.sequence)
			}
			if f.Header.SourceID != tt.src || f.Header.DestID != tt.dst {
				t.Errorf("ids = %d/%d, want %d/%d", f.Header.SourceID, f.Header.DestID, tt.src, tt.dst)
			}
			if f.Header.Function != tt.fn {
				t.Errorf("function = %d, want %d", f.Header.Function, tt.fn)
			}
			if int(f.Header.PayloadLength) != len(tt.payload) || !bytes.Equal(f.Payload, tt.payload) {
				t.Errorf("payload mismatch: %s", HexString(f.Payload))
			}
			if !bytes.Equal(f.Bytes(), encoded) {
				t.Errorf("re-encoded frame differs")
			}
		})
	}
}

// ============================================================
// Decoding errors
// ============================================================

func TestDecodeHeader_Short(t *testing.T) {
	for _, n := range []int{0, 1, 19} {
		_, err := DecodeHeader(make([]byte, n))
		if !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("len %d: expected ErrMalformedHeader, got %v", n, err)
		}
	}
}

func TestDecodeHeader_Foreign(t *testing.T) {
	encoded, _ := EncodeFrame(1, 2, 3, FuncReqStatus, nil)
	copy(encoded, "MBUS")
	_, err := DecodeHeader(encoded)
	if !errors.Is(err, ErrForeignFrame) {
		t.Errorf("expected ErrForeignFrame, got %v", err)
	}
}

func TestDecodeFrame_ChecksumMismatch(t *testing.T) {
	encoded, _ := EncodeFrame(5, 6, 7, FuncRespStatus, []byte{1, 2, 3})
	encoded[len(encoded)-1] ^= 0xFF

	_, _, err := ParseFrame(encoded)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ChecksumError, got %T", err)
	}
	if ce.Expected == ce.Got {
		t.Errorf("checksum error should carry differing values")
	}
}

func TestParseFrame_ConsumesCorruptedFrame(t *testing.T) {
	bad, _ := EncodeFrame(1, 2, 0, FuncRespStatus, []byte{9, 9})
	bad[HeaderSize] ^= 0x01
	good, _ := EncodeFrame(2, 2, 0, FuncRespStatus, nil)
	stream := append(bad, good...)

	_, n, err := ParseFrame(stream)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum error, got %v", err)
	}
	if n != len(bad) {
		t.Fatalf("corrupted frame should be consumed whole: n=%d want %d", n, len(bad))
	}
	f, _, err := ParseFrame(stream[n:])
	if err != nil {
		t.Fatalf("next frame should decode: %v", err)
	}
	if f.Header.Sequence != 2 {
		t.Errorf("sequence = %d, want 2", f.Header.Sequence)
	}
}

func TestDecodeFrame_Truncated(t *testing.T) {
	encoded, _ := EncodeFrame(1, 2, 3, FuncRespReadData, []byte{1, 2, 3, 4})
	_, _, err := ParseFrame(encoded[:len(encoded)-1])
	if !errors.Is(err, ErrTruncatedFrame) {
		t.Errorf("expected ErrTruncatedFrame, got %v", err)
	}
}

func TestDecodeFrame_SingleBitFlip(t *testing.T) {
	payload, err := EncodeChunks(
		NewChunk(0x04, TypeF32, float32(21.5)),
		NewChunk(0x05, TypeU16, uint16(48)),
	)
	if err != nil {
		t.Fatalf("EncodeChunks failed: %v", err)
	}
	encoded, _ := EncodeFrame(77, 0x4F9B5ED6, 1234, FuncRespStatus, payload)

	for bit := 0; bit < len(encoded)*8; bit++ {
		// Length flips change the framing itself and are covered by
		// the truncation test.
		if idx := bit / 8; idx == 18 || idx == 19 {
			continue
		}
		flipped := append([]byte(nil), encoded...)
		flipped[bit/8] ^= 1 << (bit % 8)
		if _, _, err := ParseFrame(flipped); err == nil {
			t.Fatalf("flipping bit %d went undetected", bit)
		}
	}
}

func TestFunction_Response(t *testing.T) {
	tests := []struct {
		req  Function
		resp Function
	}{
		{FuncReqWhoami, FuncRespWhoami},
		{FuncReqStatus, FuncRespStatus},
		{FuncReqWriteData, FuncRespWriteData},
		{FuncReqReadData, FuncRespReadData},
	}
	for _, tt := range tests {
		if !tt.req.IsRequest() || tt.resp.IsRequest() {
			t.Errorf("%s/%s request classification wrong", tt.req, tt.resp)
		}
		if got := tt.req.Response(); got != tt.resp {
			t.Errorf("%s.Response() = %s, want %s", tt.req, got, tt.resp)
		}
	}
}

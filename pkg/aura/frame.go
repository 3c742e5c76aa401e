// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Header is the fixed 20 byte frame header
type Header struct {
	Magic         [4]byte
	Sequence      uint32
	SourceID      uint32
	DestID        uint32
	Function      Function
	PayloadLength uint16
}

// Frame is one complete, checksum-verified wire transmission. Header fields
// are promoted, so f.SourceID reads the source of the frame.
type Frame struct {
	Header
	Payload   []byte
	Checksum  uint16
	Timestamp time.Time
}

// Size returns the encoded length of the frame in bytes.
func (f *Frame) Size() int {
	return HeaderSize + len(f.Payload) + ChecksumSize
}

// IsBroadcast returns true if the frame is addressed to the host/all devices
func (f *Frame) IsBroadcast() bool {
	return f.Header.DestID == AddressBroadcast
}

// Chunks decodes the frame payload. Chunks that fail to decode are omitted
// from the result and reported in the returned error.
func (f *Frame) Chunks() ([]Chunk, error) {
	return DecodeChunks(f.Payload)
}

// Bytes re-encodes the frame to wire format.
func (f *Frame) Bytes() []byte {
	out := make([]byte, 0, f.Size())
	out = append(out, encodeHeader(f.Header)...)
	out = append(out, f.Payload...)
	return binary.LittleEndian.AppendUint16(out, f.Checksum)
}

// EncodeFrame packs a header for the given fields, appends the payload and
// the checksum of header and payload.
func EncodeFrame(sequence, sourceID, destID uint32, fn Function, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	h := Header{
		Magic:         Magic,
		Sequence:      sequence,
		SourceID:      sourceID,
		DestID:        destID,
		Function:      fn,
		PayloadLength: uint16(len(payload)),
	}

	data := make([]byte, 0, HeaderSize+len(payload)+ChecksumSize)
	data = append(data, encodeHeader(h)...)
	data = append(data, payload...)

	crc := CalculateCRC(data)
	return binary.LittleEndian.AppendUint16(data, crc), nil
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Sequence)
	binary.LittleEndian.PutUint32(buf[8:12], h.SourceID)
	binary.LittleEndian.PutUint32(buf[12:16], h.DestID)
	binary.LittleEndian.PutUint16(buf[16:18], uint16(h.Function))
	binary.LittleEndian.PutUint16(buf[18:20], h.PayloadLength)
	return buf
}

// DecodeHeader unpacks the fixed header fields from the first HeaderSize
// bytes of b. Fewer bytes yield ErrMalformedHeader; a wrong marker yields
// ErrForeignFrame together with the decoded (untrusted) header.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedHeader, len(b), HeaderSize)
	}

	var h Header
	copy(h.Magic[:], b[0:4])
	h.Sequence = binary.LittleEndian.Uint32(b[4:8])
	h.SourceID = binary.LittleEndian.Uint32(b[8:12])
	h.DestID = binary.LittleEndian.Uint32(b[12:16])
	h.Function = Function(binary.LittleEndian.Uint16(b[16:18]))
	h.PayloadLength = binary.LittleEndian.Uint16(b[18:20])

	if h.Magic != Magic {
		return h, fmt.Errorf("%w: marker %q", ErrForeignFrame, h.Magic[:])
	}
	return h, nil
}

// DecodeFrame verifies the checksum over header and payload and returns the
// assembled frame. payload must hold exactly h.PayloadLength bytes.
func DecodeFrame(h Header, payload, checksum []byte) (*Frame, error) {
	if len(payload) != int(h.PayloadLength) || len(checksum) != ChecksumSize {
		return nil, fmt.Errorf("%w: payload %d/%d bytes, checksum %d/%d bytes",
			ErrTruncatedFrame, len(payload), h.PayloadLength, len(checksum), ChecksumSize)
	}

	data := make([]byte, 0, HeaderSize+len(payload))
	data = append(data, encodeHeader(h)...)
	data = append(data, payload...)

	calculated := CalculateCRC(data)
	got := binary.LittleEndian.Uint16(checksum)
	if calculated != got {
		return nil, &ChecksumError{Expected: calculated, Got: got}
	}

	body := make([]byte, len(payload))
	copy(body, payload)

	return &Frame{
		Header:    h,
		Payload:   body,
		Checksum:  got,
		Timestamp: time.Now(),
	}, nil
}

// ParseFrame decodes one complete frame from the start of b and returns it
// together with the number of bytes consumed.
func ParseFrame(b []byte) (*Frame, int, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, 0, err
	}
	end := HeaderSize + int(h.PayloadLength) + ChecksumSize
	if len(b) < end {
		return nil, 0, fmt.Errorf("%w: have %d of %d bytes", ErrTruncatedFrame, len(b), end)
	}
	f, err := DecodeFrame(h, b[HeaderSize:end-ChecksumSize], b[end-ChecksumSize:end])
	return f, end, err
}

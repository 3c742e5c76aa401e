// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader means fewer than HeaderSize bytes were available.
	// On a live stream this is the end-of-burst signal.
	ErrMalformedHeader = errors.New("aura: malformed header")
	// ErrForeignFrame means the header does not start with Magic.
	ErrForeignFrame     = errors.New("aura: foreign frame")
	ErrChecksumMismatch = errors.New("aura: checksum mismatch")
	ErrTruncatedFrame   = errors.New("aura: truncated frame")
	ErrPayloadTooLarge  = errors.New("aura: payload too large")

	ErrUnknownDataType = errors.New("aura: unknown data type")
	ErrChunkSize       = errors.New("aura: chunk size does not match data type")
	ErrTruncatedChunk  = errors.New("aura: truncated chunk")
	ErrValueType       = errors.New("aura: chunk value does not match data type")
)

// ChecksumError carries both sides of a failed checksum comparison
type ChecksumError struct {
	Expected uint16
	Got      uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("aura: checksum mismatch: expected 0x%04X, got 0x%04X", e.Expected, e.Got)
}

// Unwrap makes errors.Is(err, ErrChecksumMismatch) hold.
func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// ChunkError describes one chunk that could not be decoded or encoded.
// Index is the chunk's position within its payload.
type ChunkError struct {
	Index int
	ID    uint8
	Type  DataType
	Size  uint16
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("aura: chunk %d (id=0x%02X type=%d size=%d): %v", e.Index, e.ID, uint8(e.Type), e.Size, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// ChunkErrors extracts every *ChunkError joined into err.
func ChunkErrors(err error) []*ChunkError {
	if err == nil {
		return nil
	}
	var out []*ChunkError
	var ce *ChunkError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ChunkErrors(e)...)
		}
		return out
	}
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}

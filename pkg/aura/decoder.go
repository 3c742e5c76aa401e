// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"bytes"
	"errors"
	"fmt"
)

// Decoder extracts frames from an unsynchronized byte stream, such as a bus
// being monitored passively. Unlike the transaction engine it resynchronizes
// on the magic marker after garbage.
type Decoder struct {
	buffer []byte
}

// NewDecoder creates a stream decoder
func NewDecoder() *Decoder {
	return &Decoder{buffer: make([]byte, 0, HeaderSize+MaxPayloadSize+ChecksumSize)}
}

// Reset discards buffered bytes
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
}

// Buffered returns the number of bytes waiting for a complete frame
func (d *Decoder) Buffered() int {
	return len(d.buffer)
}

// Feed appends data and returns every frame completed by it. Skipped
// garbage and frames failing the checksum are reported in errs; a
// partially received frame stays buffered for the next call.
func (d *Decoder) Feed(data []byte) (frames []*Frame, errs []error) {
	d.buffer = append(d.buffer, data...)

	for len(d.buffer) > 0 {
		if skip := d.sync(); skip > 0 {
			errs = append(errs, fmt.Errorf("%w: skipped %d bytes: %s",
				ErrForeignFrame, skip, HexString(d.buffer[:skip])))
			d.consume(skip)
			continue
		}

		f, n, err := ParseFrame(d.buffer)
		switch {
		case err == nil:
			frames = append(frames, f)
			d.consume(n)
		case errors.Is(err, ErrMalformedHeader), errors.Is(err, ErrTruncatedFrame):
			return frames, errs
		case errors.Is(err, ErrChecksumMismatch):
			errs = append(errs, err)
			// resync inside the bad frame rather than trusting its length
			d.consume(len(Magic))
		default:
			errs = append(errs, err)
			d.consume(1)
		}
	}
	return frames, errs
}

// sync returns the number of leading bytes that cannot start a frame.
func (d *Decoder) sync() int {
	i := bytes.Index(d.buffer, Magic[:])
	if i >= 0 {
		return i
	}
	// keep a possible marker prefix at the tail
	for keep := len(Magic) - 1; keep > 0; keep-- {
		if len(d.buffer) >= keep && bytes.HasSuffix(d.buffer, Magic[:keep]) {
			return len(d.buffer) - keep
		}
	}
	return len(d.buffer)
}

func (d *Decoder) consume(n int) {
	d.buffer = append(d.buffer[:0], d.buffer[n:]...)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

type tap struct {
	aura.Stream
	w        *Writer
	logger   *zap.Logger
	failOnce sync.Once
}

// Tap wraps a stream so every read and write is recorded to w.
// Recording failures do not interrupt the stream; the first one is logged.
func Tap(s aura.Stream, w *Writer, logger *zap.Logger) aura.Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tap{Stream: s, w: w, logger: logger}
}

func (t *tap) Read(p []byte) (int, error) {
	n, err := t.Stream.Read(p)
	if n > 0 {
		t.record(RX, p[:n])
	}
	return n, err
}

func (t *tap) Write(p []byte) (int, error) {
	n, err := t.Stream.Write(p)
	if n > 0 {
		t.record(TX, p[:n])
	}
	return n, err
}

func (t *tap) record(dir Direction, b []byte) {
	if err := t.w.Record(dir, b); err != nil {
		t.failOnce.Do(func() {
			t.logger.Warn("capture stopped recording", zap.Stringer("direction", dir), zap.Error(err))
		})
	}
}

// replay answers each write with the RX records captured after the
// matching TX record.
type replay struct {
	records []Record
	next    int
	pending []byte
}

// ReplayStream returns a stream that plays back a capture. Each write
// consumes the next TX record and queues the RX data recorded before the
// following TX. Reads return (0, nil) once the queued data is drained, the
// same as a transport read timeout. Written bytes are not compared with the
// recorded request.
func ReplayStream(records []Record) aura.Stream {
	return &replay{records: records}
}

func (r *replay) Write(p []byte) (int, error) {
	r.pending = r.pending[:0]

	for r.next < len(r.records) && r.records[r.next].Direction != TX {
		r.next++
	}
	if r.next < len(r.records) {
		r.next++
	}
	for r.next < len(r.records) && r.records[r.next].Direction == RX {
		r.pending = append(r.pending, r.records[r.next].Data...)
		r.next++
	}
	return len(p), nil
}

func (r *replay) Read(p []byte) (int, error) {
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *replay) Close() error {
	return nil
}

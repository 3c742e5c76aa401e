// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Stream is an open byte stream to the bus.
//
// Read must block for at most the stream's configured timeout and may return
// fewer bytes than requested; a read that returns no data (0, nil), io.EOF or
// os.ErrDeadlineExceeded means nothing more is arriving right now.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Link acquires a Stream for the duration of one transaction
type Link interface {
	Open() (Stream, error)
}

// LinkFunc adapts a function to the Link interface
type LinkFunc func() (Stream, error)

// Open calls f.
func (f LinkFunc) Open() (Stream, error) {
	return f()
}

// StreamLink returns a Link handing out an already-open stream. Closing the
// handed-out stream leaves rw open; its owner closes it.
func StreamLink(rw io.ReadWriter) Link {
	return LinkFunc(func() (Stream, error) {
		return nopCloser{rw}, nil
	})
}

type nopCloser struct {
	io.ReadWriter
}

func (nopCloser) Close() error { return nil }

// Observer is notified of engine traffic. Implementations must not block.
type Observer interface {
	FrameSent(fn Function, size int)
	FrameReceived(f *Frame)
	FrameDropped(reason error, raw []byte)
	BurstCollected(fn Function, frames int)
}

// Engine owns the outgoing sequence counter and the controller identity,
// and runs request-then-collect transactions over a Link. An Engine is not
// safe for concurrent use; transactions are strictly sequential.
type Engine struct {
	link         Link
	controllerID uint32
	sequence     uint32
	logger       *zap.Logger
	observers    []Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithControllerID sets the source identity of outgoing frames
func WithControllerID(id uint32) Option {
	return func(e *Engine) {
		e.controllerID = id
	}
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers an observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// NewEngine creates a transaction engine on link
func NewEngine(link Link, opts ...Option) *Engine {
	e := &Engine{
		link:         link,
		controllerID: DefaultControllerID,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ControllerID returns the identity this engine sends from
func (e *Engine) ControllerID() uint32 {
	return e.controllerID
}

// Sequence returns the sequence number of the last built request.
func (e *Engine) Sequence() uint32 {
	return e.sequence
}

// BuildRequest increments the sequence counter and encodes a request frame
// carrying chunks.
func (e *Engine) BuildRequest(destID uint32, fn Function, chunks ...Chunk) ([]byte, error) {
	payload, err := EncodeChunks(chunks...)
	if err != nil {
		return nil, fmt.Errorf("encode chunks: %w", err)
	}

	seq := e.sequence + 1
	data, err := EncodeFrame(seq, e.controllerID, destID, fn, payload)
	if err != nil {
		return nil, err
	}
	e.sequence = seq

	if ce := e.logger.Check(zap.DebugLevel, "request"); ce != nil {
		ce.Write(
			zap.Uint32("seq", seq),
			zap.Uint32("dst", destID),
			zap.String("func", FormatFunction(fn)),
			zap.Int("chunks", len(chunks)),
			zap.String("raw", HexString(data)),
		)
	}
	return data, nil
}

// SendAndCollect writes a request and collects every response frame of the
// burst that follows. The burst ends when the stream stops delivering bytes;
// an empty result is not an error. Frames failing validation are logged and
// left out. Replies are correlated by identity only: their sequence numbers
// are not compared with the request's.
//
// The stream is acquired from the link for this call and released on every
// return path. A non-nil error is returned only when the link cannot be
// opened or written, or the stream fails with something other than a
// timeout; frames collected before such a failure are still returned.
func (e *Engine) SendAndCollect(destID uint32, fn Function, chunks ...Chunk) ([]*Frame, error) {
	req, err := e.BuildRequest(destID, fn, chunks...)
	if err != nil {
		return nil, err
	}

	stream, err := e.link.Open()
	if err != nil {
		return nil, fmt.Errorf("open link: %w", err)
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			e.logger.Warn("close link", zap.Error(cerr))
		}
	}()

	if _, err := stream.Write(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	for _, o := range e.observers {
		o.FrameSent(fn, len(req))
	}

	frames, err := e.collect(stream, fn)
	for _, o := range e.observers {
		o.BurstCollected(fn, len(frames))
	}
	return frames, err
}

// RequestWhoami broadcasts an identity query
func (e *Engine) RequestWhoami() ([]*Frame, error) {
	return e.SendAndCollect(AddressBroadcast, FuncReqWhoami)
}

// RequestStatus broadcasts a status query
func (e *Engine) RequestStatus() ([]*Frame, error) {
	return e.SendAndCollect(AddressBroadcast, FuncReqStatus)
}

// WriteData writes named fields of one device
func (e *Engine) WriteData(destID uint32, chunks ...Chunk) ([]*Frame, error) {
	return e.SendAndCollect(destID, FuncReqWriteData, chunks...)
}

// ReadData reads named fields of one device
func (e *Engine) ReadData(destID uint32, chunks ...Chunk) ([]*Frame, error) {
	return e.SendAndCollect(destID, FuncReqReadData, chunks...)
}

func (e *Engine) collect(r io.Reader, fn Function) ([]*Frame, error) {
	frames := make([]*Frame, 0)

	for {
		hb, rerr := readUpTo(r, HeaderSize)
		h, err := DecodeHeader(hb)
		if errors.Is(err, ErrMalformedHeader) {
			if len(hb) > 0 {
				e.drop(err, hb)
			}
			return frames, rerr
		}
		if err != nil {
			// The length field of a foreign header cannot be trusted, so
			// there is no way to find the next frame boundary.
			e.drop(err, hb)
			return frames, rerr
		}

		if rerr != nil {
			e.drop(fmt.Errorf("%w: stream failed after header", ErrTruncatedFrame), hb)
			return frames, rerr
		}

		need := int(h.PayloadLength) + ChecksumSize
		body, rerr := readUpTo(r, need)
		if len(body) < need {
			e.drop(fmt.Errorf("%w: body %d of %d bytes", ErrTruncatedFrame, len(body), need), append(hb, body...))
			return frames, rerr
		}

		f, err := DecodeFrame(h, body[:h.PayloadLength], body[h.PayloadLength:])
		if err != nil {
			e.drop(err, append(hb, body...))
			if rerr != nil {
				return frames, rerr
			}
			continue
		}

		if f.Header.Function != fn.Response() {
			e.logger.Debug("unexpected response function",
				zap.String("want", FormatFunction(fn.Response())),
				zap.String("got", FormatFunction(f.Header.Function)),
				zap.Uint32("src", f.Header.SourceID))
		}
		if ce := e.logger.Check(zap.DebugLevel, "response"); ce != nil {
			ce.Write(
				zap.Uint32("seq", f.Header.Sequence),
				zap.Uint32("src", f.Header.SourceID),
				zap.String("func", FormatFunction(f.Header.Function)),
				zap.String("raw", HexString(f.Bytes())),
			)
		}
		for _, o := range e.observers {
			o.FrameReceived(f)
		}
		frames = append(frames, f)
		if rerr != nil {
			return frames, rerr
		}
	}
}

func (e *Engine) drop(reason error, raw []byte) {
	e.logger.Warn("frame dropped", zap.Error(reason), zap.String("raw", HexString(raw)))
	for _, o := range e.observers {
		o.FrameDropped(reason, raw)
	}
}

// readUpTo reads until n bytes arrived or the stream goes quiet. Timeouts
// are reported as a nil error; other stream failures are returned.
func readUpTo(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := r.Read(buf[got:])
		got += m
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) {
				return buf[:got], nil
			}
			return buf[:got], fmt.Errorf("read: %w", err)
		}
		if m == 0 {
			break
		}
	}
	return buf[:got], nil
}

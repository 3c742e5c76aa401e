// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

type call struct {
	fn     aura.Function
	dest   uint32
	chunks []aura.Chunk
}

type recorder struct {
	calls []call
}

func (r *recorder) ReadData(dest uint32, chunks ...aura.Chunk) ([]*aura.Frame, error) {
	r.calls = append(r.calls, call{aura.FuncReqReadData, dest, chunks})
	return nil, nil
}

func (r *recorder) WriteData(dest uint32, chunks ...aura.Chunk) ([]*aura.Frame, error) {
	r.calls = append(r.calls, call{aura.FuncReqWriteData, dest, chunks})
	return nil, nil
}

func TestReadSavedCards(t *testing.T) {
	rec := &recorder{}
	_, err := ReadSavedCards(rec, 0x20, 4, 8)
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	c := rec.calls[0]
	assert.Equal(t, aura.FuncReqReadData, c.fn)
	assert.Equal(t, uint32(0x20), c.dest)
	assert.Equal(t, []aura.Chunk{
		aura.RangeChunk(IDCardRange, 4, 8),
		aura.NoneChunk(IDCardRead),
	}, c.chunks)

	payload, err := aura.EncodeChunks(c.chunks...)
	require.NoError(t, err)
	assert.Equal(t, []byte{IDCardRange, 21, 2, 0, 4, 8, IDCardRead, 0, 0, 0}, payload)
}

func TestReadAccessLog(t *testing.T) {
	rec := &recorder{}
	_, err := ReadAccessLog(rec, 0x20, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, []aura.Chunk{
		aura.RangeChunk(IDCardRange, 0, 4),
		aura.NoneChunk(IDAccessCount),
	}, rec.calls[0].chunks)

	payload, err := aura.EncodeChunks(rec.calls[0].chunks...)
	require.NoError(t, err)
	assert.Equal(t, []byte{IDCardRange, 21, 2, 0, 0, 4, IDAccessCount, 0, 0, 0}, payload)
}

func TestWriteCards(t *testing.T) {
	rec := &recorder{}
	cards := []aura.CardUID{{1, 2, 3, 4, 5, 6, 7, 8}}
	_, err := WriteCards(rec, 0x20, cards)
	require.NoError(t, err)

	c := rec.calls[0]
	assert.Equal(t, aura.FuncReqWriteData, c.fn)
	require.Len(t, c.chunks, 1)
	assert.Equal(t, 8, c.chunks[0].Size())

	_, err = WriteCards(rec, 0x20, nil)
	assert.Error(t, err)

	_, err = WriteCards(rec, 0x20, make([]aura.CardUID, 9000))
	assert.True(t, errors.Is(err, aura.ErrPayloadTooLarge))
	assert.Len(t, rec.calls, 1)
}

func TestClearCards(t *testing.T) {
	rec := &recorder{}
	_, err := ClearCards(rec, 0x20)
	require.NoError(t, err)

	c := rec.calls[0]
	require.Len(t, c.chunks, 1)
	on, ok := c.chunks[0].Flag()
	require.True(t, ok)
	assert.True(t, on)
	assert.Equal(t, IDCardClear, c.chunks[0].ID)
}

func TestHandleRequestsThroughEngine(t *testing.T) {
	e := aura.NewEngine(nil)
	b, err := e.BuildRequest(0x20, aura.FuncReqReadData,
		aura.RangeChunk(IDCardRange, 0, 4), aura.NoneChunk(IDCardRead))
	require.NoError(t, err)

	f, _, err := aura.ParseFrame(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), f.DestID)
	assert.Equal(t, uint16(10), f.PayloadLength)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package device

import (
	"fmt"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

// Requester is the part of the transaction engine used by handle requests.
type Requester interface {
	ReadData(destID uint32, chunks ...aura.Chunk) ([]*aura.Frame, error)
	WriteData(destID uint32, chunks ...aura.Chunk) ([]*aura.Frame, error)
}

// ReadSavedCards requests count provisioned card ids starting at offset.
// The handle answers with a CARD_UID_ARR read chunk.
func ReadSavedCards(e Requester, uid uint32, offset, count uint8) ([]*aura.Frame, error) {
	return e.ReadData(uid,
		aura.RangeChunk(IDCardRange, offset, count),
		aura.NoneChunk(IDCardRead))
}

// ReadAccessLog requests count access records starting at offset. The page
// is selected the same way as for ReadSavedCards.
func ReadAccessLog(e Requester, uid uint32, offset, count uint8) ([]*aura.Frame, error) {
	return e.ReadData(uid,
		aura.RangeChunk(IDCardRange, offset, count),
		aura.NoneChunk(IDAccessCount))
}

// WriteCards provisions card ids on a handle.
func WriteCards(e Requester, uid uint32, cards []aura.CardUID) ([]*aura.Frame, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("no cards to write")
	}
	if len(cards)*aura.CardUIDSize > aura.MaxPayloadSize-aura.ChunkHeaderSize {
		return nil, fmt.Errorf("%w: %d cards", aura.ErrPayloadTooLarge, len(cards))
	}
	return e.WriteData(uid, aura.NewChunk(IDCardWrite, aura.TypeCardUIDArray, cards))
}

// ClearCards removes every provisioned card from a handle.
func ClearCards(e Requester, uid uint32) ([]*aura.Frame, error) {
	return e.WriteData(uid, aura.NewChunk(IDCardClear, aura.TypeU16, uint16(aura.FlagTrue)))
}

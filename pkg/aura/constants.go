// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package aura implements the client side of the AURA device bus protocol.
//
// AURA frames carry a fixed 20 byte little-endian header, a payload of typed
// tag-length-value chunks and a trailing CRC-16. This package provides frame
// and chunk encoding/decoding, checksum validation and a request/response
// transaction engine that collects the burst of replies a single request can
// elicit from devices sharing the bus.
package aura

// Frame layout
const (
	HeaderSize      = 20
	ChecksumSize    = 2
	ChunkHeaderSize = 4
	MaxPayloadSize  = 0xFFFF
)

// Magic marks every AURA frame.
var Magic = [4]byte{'A', 'U', 'R', 'A'}

// CRC-16 (reflected 0x8005, the Modbus variant)
const (
	crcPolynomial = 0xA001 // 0x8005 bit-reversed
	crcInitial    = 0xFFFF
)

// Special identities
const (
	AddressBroadcast    = 0x00000000 // Host / all devices
	DefaultControllerID = 1234
)

// Function selects the semantic operation of a frame.
type Function uint16

// Function codes
const (
	FuncReqWhoami     Function = 1
	FuncRespWhoami    Function = 2
	FuncReqStatus     Function = 3
	FuncRespStatus    Function = 4
	FuncReqWriteData  Function = 5
	FuncRespWriteData Function = 6
	FuncReqReadData   Function = 7
	FuncRespReadData  Function = 8
)

// IsRequest reports whether f is sent by the controller.
func (f Function) IsRequest() bool {
	return f >= FuncReqWhoami && f <= FuncRespReadData && f%2 == 1
}

// Response returns the function a device answers f with.
func (f Function) Response() Function {
	if f.IsRequest() {
		return f + 1
	}
	return f
}

// Well-known chunk ids shared by every device type
const (
	ChunkIDDeviceType = 0x01
	ChunkIDUIDArray   = 0x02
)

// Boolean flags are carried as 16 bit words
const (
	FlagTrue  = 0x00FF
	FlagFalse = 0x0000
)

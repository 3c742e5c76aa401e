// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"fmt"
	"strings"
)

// HexString renders bytes as space separated upper-case hex pairs
func HexString(b []byte) string {
	var sb strings.Builder
	for i, x := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", x)
	}
	return sb.String()
}

// FormatFunction returns the human-readable name for a function code
func FormatFunction(fn Function) string {
	switch fn {
	case FuncReqWhoami:
		return "REQ_WHOAMI"
	case FuncRespWhoami:
		return "RESP_WHOAMI"
	case FuncReqStatus:
		return "REQ_STATUS"
	case FuncRespStatus:
		return "RESP_STATUS"
	case FuncReqWriteData:
		return "REQ_WRITE_DATA"
	case FuncRespWriteData:
		return "RESP_WRITE_DATA"
	case FuncReqReadData:
		return "REQ_READ_DATA"
	case FuncRespReadData:
		return "RESP_READ_DATA"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(fn))
	}
}

// String implements fmt.Stringer.
func (f Function) String() string {
	return FormatFunction(f)
}

// FormatFrame formats a frame header and its chunks into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp.Format("15:04:05.000")
	h := f.Header

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s (%d) seq=%d src=0x%08X dst=0x%08X len=%d crc=0x%04X\n",
		timestamp, FormatFunction(h.Function), uint16(h.Function), h.Sequence, h.SourceID, h.DestID, h.PayloadLength, f.Checksum)

	if len(f.Payload) == 0 {
		sb.WriteString("  (no payload)\n")
		return sb.String()
	}

	chunks, err := f.Chunks()
	for _, c := range chunks {
		sb.WriteString("  ")
		sb.WriteString(FormatChunk(c))
		sb.WriteString("\n")
	}
	for _, ce := range ChunkErrors(err) {
		fmt.Fprintf(&sb, "  ! %v\n", ce)
	}
	return sb.String()
}

// FormatChunk renders one chunk on a single line
func FormatChunk(c Chunk) string {
	return fmt.Sprintf("id=0x%02X %-12s size=%-3d %s", c.ID, c.Type, c.Size(), FormatValue(c))
}

// FormatValue renders a chunk value
func FormatValue(c Chunk) string {
	switch v := c.Value.(type) {
	case nil:
		return "-"
	case []byte:
		if c.Type == TypeString {
			return fmt.Sprintf("%q", string(v))
		}
		return HexString(v)
	case string:
		return fmt.Sprintf("%q", v)
	case float32:
		return fmt.Sprintf("%.2f", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	case CardUID:
		return v.String()
	case []CardUID:
		parts := make([]string, len(v))
		for i, card := range v {
			parts[i] = card.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package aura

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks transaction counters and error rates. It implements
// Observer; register it with WithObserver.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Requests       uint64
	BytesSent      uint64
	TotalFrames    uint64
	ValidFrames    uint64
	ChecksumErrors uint64
	ForeignFrames  uint64
	Truncated      uint64
	PartialHeaders uint64
	EmptyBursts    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

func (s *Statistics) FrameSent(fn Function, size int) {
	s.Requests++
	s.BytesSent += uint64(size)
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) FrameReceived(f *Frame) {
	s.TotalFrames++
	s.ValidFrames++
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) FrameDropped(reason error, raw []byte) {
	s.TotalFrames++
	switch {
	case errors.Is(reason, ErrChecksumMismatch):
		s.ChecksumErrors++
	case errors.Is(reason, ErrForeignFrame):
		s.ForeignFrames++
	case errors.Is(reason, ErrTruncatedFrame):
		s.Truncated++
	case errors.Is(reason, ErrMalformedHeader):
		s.PartialHeaders++
	}
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) BurstCollected(fn Function, frames int) {
	if frames == 0 {
		s.EmptyBursts++
	}
}

// Errors returns the number of dropped frames
func (s *Statistics) Errors() uint64 {
	return s.ChecksumErrors + s.ForeignFrames + s.Truncated + s.PartialHeaders
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Requests:        %8d (%d bytes)\n", s.Requests, s.BytesSent)
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.ForeignFrames > 0 {
		result += fmt.Sprintf("Foreign Frames:  %8d\n", s.ForeignFrames)
	}
	if s.Truncated > 0 {
		result += fmt.Sprintf("Truncated:       %8d\n", s.Truncated)
	}
	if s.PartialHeaders > 0 {
		result += fmt.Sprintf("Partial Headers: %8d\n", s.PartialHeaders)
	}
	if s.EmptyBursts > 0 {
		result += fmt.Sprintf("Silent Requests: %8d\n", s.EmptyBursts)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package device

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

// Status is an immutable snapshot of a device's reported state.
// The set of implementations is closed.
type Status interface {
	Kind() Kind
	String() string
	sealed()
}

// TemperatureStatus is reported by LM75BD and TMP112 sensors.
type TemperatureStatus struct {
	Temperature float64
}

// TemperatureHumidityStatus is reported by SHT30 and ZS05 sensors.
type TemperatureHumidityStatus struct {
	Temperature float64
	Humidity    float64
}

// TemperaturePressureStatus is reported by BMP180 and LPS22HB sensors.
type TemperaturePressureStatus struct {
	Temperature float64
	Pressure    float64
}

// Access is one card presentation at a handle.
type Access struct {
	Card    aura.CardUID
	Elapsed uint32 // seconds
	Valid   bool
}

// HandleStatus is the lock state of an access-control handle, together with
// the results of the most recent paginated card and access-log reads.
type HandleStatus struct {
	Open        bool
	LastAccess  Access
	Error       uint32
	SavedCards  uint32
	AccessCount uint32
	Page        aura.Range
	Cards       []aura.CardUID
}

// ExpanderStatus only tracks whether the expander answered the last poll.
type ExpanderStatus struct {
	Online bool
}

// GenericStatus carries nothing; the device is known by identity only.
type GenericStatus struct{}

func (TemperatureStatus) Kind() Kind         { return KindTemperature }
func (TemperatureHumidityStatus) Kind() Kind { return KindTemperatureHumidity }
func (TemperaturePressureStatus) Kind() Kind { return KindTemperaturePressure }
func (HandleStatus) Kind() Kind              { return KindHandle }
func (ExpanderStatus) Kind() Kind            { return KindExpander }
func (GenericStatus) Kind() Kind             { return KindGeneric }

func (TemperatureStatus) sealed()         {}
func (TemperatureHumidityStatus) sealed() {}
func (TemperaturePressureStatus) sealed() {}
func (HandleStatus) sealed()              {}
func (ExpanderStatus) sealed()            {}
func (GenericStatus) sealed()             {}

func (s TemperatureStatus) String() string {
	return fmt.Sprintf("temp: %04.1f °C", s.Temperature)
}

func (s TemperatureHumidityStatus) String() string {
	return fmt.Sprintf("temp: %04.1f °C; hum: %02.0f %%", s.Temperature, s.Humidity)
}

func (s TemperaturePressureStatus) String() string {
	return fmt.Sprintf("temp: %04.1f °C; press: %06.0f Pa", s.Temperature, s.Pressure)
}

func (a Access) String() string {
	return fmt.Sprintf("card %s, %d sec ago, valid=%t", a.Card, a.Elapsed, a.Valid)
}

func (s HandleStatus) String() string {
	var b strings.Builder
	lock := "closed"
	if s.Open {
		lock = "open"
	}
	fmt.Fprintf(&b, "locker: %s; last access: %s", lock, s.LastAccess)
	if s.Error != 0 {
		fmt.Fprintf(&b, "; error: %d", s.Error)
	}
	if s.SavedCards != 0 || s.AccessCount != 0 {
		fmt.Fprintf(&b, "; saved cards: %d; accesses: %d", s.SavedCards, s.AccessCount)
	}
	if len(s.Cards) > 0 {
		fmt.Fprintf(&b, "; cards %s:", s.Page)
		for _, c := range s.Cards {
			b.WriteString(" ")
			b.WriteString(c.String())
		}
	}
	return b.String()
}

func (s ExpanderStatus) String() string {
	if s.Online {
		return "online"
	}
	return "offline"
}

func (GenericStatus) String() string {
	return "no status"
}

// initialStatus returns the zero snapshot for a kind
func initialStatus(k Kind) Status {
	switch k {
	case KindTemperature:
		return TemperatureStatus{}
	case KindTemperatureHumidity:
		return TemperatureHumidityStatus{}
	case KindTemperaturePressure:
		return TemperaturePressureStatus{}
	case KindHandle:
		return HandleStatus{}
	case KindExpander:
		return ExpanderStatus{}
	}
	return GenericStatus{}
}

// merge folds chunks into a copy of prev. Fields without a matching chunk
// keep their previous value.
func merge(prev Status, chunks []aura.Chunk) Status {
	switch s := prev.(type) {
	case TemperatureStatus:
		for _, c := range chunks {
			if c.ID == IDTemperature {
				setFloat(&s.Temperature, c)
			}
		}
		return s
	case TemperatureHumidityStatus:
		for _, c := range chunks {
			switch c.ID {
			case IDTemperature:
				setFloat(&s.Temperature, c)
			case IDHumidity:
				setFloat(&s.Humidity, c)
			}
		}
		return s
	case TemperaturePressureStatus:
		for _, c := range chunks {
			switch c.ID {
			case IDTemperature:
				setFloat(&s.Temperature, c)
			case IDPressure:
				setFloat(&s.Pressure, c)
			}
		}
		return s
	case HandleStatus:
		return mergeHandle(s, chunks)
	case ExpanderStatus:
		s.Online = true
		return s
	}
	return prev
}

func mergeHandle(s HandleStatus, chunks []aura.Chunk) HandleStatus {
	for _, c := range chunks {
		switch c.ID {
		case IDLockerStatus:
			if v, ok := c.Flag(); ok {
				s.Open = v
			}
		case IDCardUID:
			if v, ok := c.Card(); ok {
				s.LastAccess.Card = v
			}
		case IDAccessTime:
			setUint32(&s.LastAccess.Elapsed, c)
		case IDAccessValid:
			if v, ok := c.Flag(); ok {
				s.LastAccess.Valid = v
			}
		case IDHandleError:
			setUint32(&s.Error, c)
		case IDCardSaveCount:
			setUint32(&s.SavedCards, c)
		case IDAccessCount:
			setUint32(&s.AccessCount, c)
		case IDCardRange:
			if v, ok := c.Value.(aura.Range); ok {
				s.Page = v
			}
		case IDCardRead:
			if v, ok := c.Cards(); ok {
				s.Cards = append([]aura.CardUID(nil), v...)
			}
		}
	}
	return s
}

func setFloat(dst *float64, c aura.Chunk) {
	if v, ok := c.Float(); ok {
		*dst = v
	}
}

func setUint32(dst *uint32, c aura.Chunk) {
	if v, ok := c.Uint(); ok {
		*dst = uint32(v)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package device reconstructs the state of AURA bus devices from decoded chunks.
//
// Every device is one of a closed set of kinds. The kind decides which chunk
// ids are understood and which Status snapshot the device carries.
package device

import "fmt"

// Type is the hardware type code reported in a whoami response.
type Type uint8

// Hardware type codes
const (
	TypeLM75BD   Type = 1
	TypeTMP112   Type = 2
	TypeSHT30    Type = 3
	TypeZS05     Type = 4
	TypeBMP180   Type = 5
	TypeLPS22HB  Type = 6
	TypeHandle   Type = 7
	TypeExpander Type = 8
	TypeLeak     Type = 9
)

var typeNames = map[Type]string{
	TypeLM75BD:   "LM75BD",
	TypeTMP112:   "TMP112",
	TypeSHT30:    "SHT30",
	TypeZS05:     "ZS05",
	TypeBMP180:   "BMP180",
	TypeLPS22HB:  "LPS22HB",
	TypeHandle:   "HANDLE",
	TypeExpander: "EXPANDER",
	TypeLeak:     "LEAK",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Kind selects the status layout of a device.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindTemperature
	KindTemperatureHumidity
	KindTemperaturePressure
	KindHandle
	KindExpander
)

// KindOf maps a hardware type code to its kind. Unknown codes are generic.
func KindOf(t Type) Kind {
	switch t {
	case TypeLM75BD, TypeTMP112:
		return KindTemperature
	case TypeSHT30, TypeZS05:
		return KindTemperatureHumidity
	case TypeBMP180, TypeLPS22HB:
		return KindTemperaturePressure
	case TypeHandle:
		return KindHandle
	case TypeExpander:
		return KindExpander
	}
	return KindGeneric
}

func (k Kind) String() string {
	switch k {
	case KindTemperature:
		return "Temperature sensor"
	case KindTemperatureHumidity:
		return "Temperature and humidity sensor"
	case KindTemperaturePressure:
		return "Temperature and pressure sensor"
	case KindHandle:
		return "Handle"
	case KindExpander:
		return "Expander"
	}
	return "Sensor"
}

// Sensor chunk ids
const (
	IDTemperature uint8 = 0x04
	IDHumidity    uint8 = 0x05
	IDPressure    uint8 = 0x06
)

// Handle chunk ids
const (
	IDHandleError   uint8 = 3
	IDLockerStatus  uint8 = 4
	IDCardUID       uint8 = 5
	IDCardWrite     uint8 = 6
	IDCardRead      uint8 = 7
	IDCardRange     uint8 = 8
	IDCardSaveCount uint8 = 9
	IDCardClear     uint8 = 10
	IDAccessCount   uint8 = 11
	IDAccessValid   uint8 = 12
	IDAccessTime    uint8 = 13
)

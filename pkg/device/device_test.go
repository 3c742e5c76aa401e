// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

func f32(id uint8, v float32) aura.Chunk {
	return aura.NewChunk(id, aura.TypeF32, v)
}

func flag(id uint8, on bool) aura.Chunk {
	v := uint16(aura.FlagFalse)
	if on {
		v = aura.FlagTrue
	}
	return aura.NewChunk(id, aura.TypeU16, v)
}

func TestNew_FactoryMapsTypeCodes(t *testing.T) {
	tests := []struct {
		code uint8
		kind Kind
	}{
		{1, KindTemperature},
		{2, KindTemperature},
		{3, KindTemperatureHumidity},
		{4, KindTemperatureHumidity},
		{5, KindTemperaturePressure},
		{6, KindTemperaturePressure},
		{7, KindHandle},
		{8, KindExpander},
		{9, KindGeneric},
		{0, KindGeneric},
		{200, KindGeneric},
	}

	for _, tt := range tests {
		d := New(0xABCD, tt.code)
		assert.Equal(t, uint32(0xABCD), d.UID())
		assert.Equal(t, tt.kind, d.Kind(), "code %d", tt.code)
		assert.Equal(t, tt.kind, d.Status().Kind(), "code %d", tt.code)
	}
}

func TestApply_PartialMergeKeepsOtherFields(t *testing.T) {
	d := New(1, uint8(TypeSHT30))
	d.Apply([]aura.Chunk{f32(IDTemperature, 20.0), f32(IDHumidity, 50)})
	require.Equal(t, TemperatureHumidityStatus{Temperature: 20.0, Humidity: 50}, d.Status())

	d.Apply([]aura.Chunk{f32(IDHumidity, 55)})
	assert.Equal(t, TemperatureHumidityStatus{Temperature: 20.0, Humidity: 55}, d.Status())
}

func TestApply_CopyOnWrite(t *testing.T) {
	d := New(1, uint8(TypeBMP180))
	before := d.Status()

	after := d.Apply([]aura.Chunk{f32(IDTemperature, 21.5), f32(IDPressure, 101325)})

	assert.Equal(t, TemperaturePressureStatus{}, before, "earlier snapshot must not change")
	assert.Equal(t, TemperaturePressureStatus{Temperature: 21.5, Pressure: 101325}, after)
	assert.False(t, d.Updated().IsZero())
}

func TestApply_IgnoresForeignIDsAndPlaceholders(t *testing.T) {
	d := New(1, uint8(TypeLM75BD))
	d.Apply([]aura.Chunk{f32(IDTemperature, 19.25)})

	d.Apply([]aura.Chunk{
		f32(IDHumidity, 80),
		aura.NoneChunk(IDTemperature),
		aura.NewChunk(IDTemperature, aura.TypeString, []byte("hot")),
	})

	assert.Equal(t, TemperatureStatus{Temperature: 19.25}, d.Status())
}

func TestApply_IntegerTemperature(t *testing.T) {
	d := New(1, uint8(TypeTMP112))
	d.Apply([]aura.Chunk{aura.NewChunk(IDTemperature, aura.TypeI16, int16(-5))})
	assert.Equal(t, TemperatureStatus{Temperature: -5}, d.Status())
}

func TestApply_Handle(t *testing.T) {
	card := aura.CardUID{0x04, 0xA2, 0x19, 0x7F, 0x00, 0x00, 0x00, 0x01}
	d := New(7, uint8(TypeHandle))

	d.Apply([]aura.Chunk{
		flag(IDLockerStatus, true),
		aura.NewChunk(IDCardUID, aura.TypeCardUID, card),
		aura.NewChunk(IDAccessTime, aura.TypeU32, uint32(42)),
		flag(IDAccessValid, true),
	})
	want := HandleStatus{
		Open:       true,
		LastAccess: Access{Card: card, Elapsed: 42, Valid: true},
	}
	require.Equal(t, want, d.Status())

	// partial: lock closes, access record untouched
	d.Apply([]aura.Chunk{flag(IDLockerStatus, false)})
	want.Open = false
	assert.Equal(t, want, d.Status())
}

func TestApply_HandleCardPage(t *testing.T) {
	cards := []aura.CardUID{{1}, {2}, {3}}
	d := New(7, uint8(TypeHandle))

	d.Apply([]aura.Chunk{
		aura.RangeChunk(IDCardRange, 0, 3),
		aura.NewChunk(IDCardRead, aura.TypeCardUIDArray, cards),
		aura.NewChunk(IDCardSaveCount, aura.TypeU16, uint16(12)),
	})
	cards[0] = aura.CardUID{0xFF}

	s, ok := d.Status().(HandleStatus)
	require.True(t, ok)
	assert.Equal(t, aura.Range{Offset: 0, Count: 3}, s.Page)
	assert.Equal(t, uint32(12), s.SavedCards)
	require.Len(t, s.Cards, 3)
	assert.Equal(t, aura.CardUID{1}, s.Cards[0], "status must not alias the chunk slice")
}

func TestApply_ExpanderAndGeneric(t *testing.T) {
	e := New(8, uint8(TypeExpander))
	assert.Equal(t, ExpanderStatus{Online: false}, e.Status())
	e.Apply(nil)
	assert.Equal(t, ExpanderStatus{Online: true}, e.Status())
	e.SetOnline(false)
	assert.Equal(t, "offline", e.Status().String())

	g := New(9, uint8(TypeLeak))
	g.Apply([]aura.Chunk{f32(IDTemperature, 1)})
	g.SetOnline(true)
	assert.Equal(t, GenericStatus{}, g.Status())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Temperature and humidity sensor (SHT30)", New(1, 3).Label())
	assert.Equal(t, "Sensor (UNKNOWN(77))", New(1, 77).Label())
	assert.Contains(t, New(0x10, 1).String(), "0x00000010")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "temp: 20.5 °C", TemperatureStatus{Temperature: 20.5}.String())
	assert.Equal(t, "temp: 20.0 °C; hum: 55 %", TemperatureHumidityStatus{Temperature: 20, Humidity: 55}.String())
	assert.Equal(t, "temp: 20.0 °C; press: 101325 Pa", TemperaturePressureStatus{Temperature: 20, Pressure: 101325}.String())
	assert.Contains(t, HandleStatus{Open: true}.String(), "locker: open")
}

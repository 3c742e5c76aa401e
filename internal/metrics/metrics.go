// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports bus traffic and device readings to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Thermoquad/aurastat/pkg/aura"
	"github.com/Thermoquad/aurastat/pkg/device"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Collector implements aura.Observer and records device readings.
type Collector struct {
	Requests     *prometheus.CounterVec
	BytesSent    prometheus.Counter
	Received     *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
	BurstFrames  *prometheus.HistogramVec
	Devices      *prometheus.GaugeVec
	Reading      *prometheus.GaugeVec
	LastAccessed *prometheus.GaugeVec
}

// NewCollector registers and returns the aurastat metrics
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_requests_total",
			Help: "Requests sent on the bus.",
		}, []string{"function"}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aura_request_bytes_total",
			Help: "Bytes written to the bus.",
		}),
		Received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_frames_received_total",
			Help: "Valid response frames received.",
		}, []string{"function"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_frames_dropped_total",
			Help: "Response frames dropped.",
		}, []string{"reason"}),
		BurstFrames: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aura_burst_frames",
			Help:    "Frames collected per request.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}, []string{"function"}),
		Devices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aura_devices",
			Help: "Discovered devices.",
		}, []string{"kind"}),
		Reading: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aura_device_reading",
			Help: "Last reported device value.",
		}, []string{"uid", "field"}),
		LastAccessed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aura_handle_last_access_seconds",
			Help: "Seconds since the last card presented at a handle.",
		}, []string{"uid"}),
	}
	reg.MustRegister(c.Requests, c.BytesSent, c.Received, c.Dropped, c.BurstFrames,
		c.Devices, c.Reading, c.LastAccessed)
	return c
}

func (c *Collector) FrameSent(fn aura.Function, size int) {
	c.Requests.WithLabelValues(fn.String()).Inc()
	c.BytesSent.Add(float64(size))
}

func (c *Collector) FrameReceived(f *aura.Frame) {
	c.Received.WithLabelValues(f.Function.String()).Inc()
}

func (c *Collector) FrameDropped(reason error, _ []byte) {
	c.Dropped.WithLabelValues(DropReason(reason)).Inc()
}

func (c *Collector) BurstCollected(fn aura.Function, frames int) {
	c.BurstFrames.WithLabelValues(fn.String()).Observe(float64(frames))
}

// DropReason maps a drop error to a short label
func DropReason(err error) string {
	switch {
	case errors.Is(err, aura.ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, aura.ErrForeignFrame):
		return "foreign"
	case errors.Is(err, aura.ErrTruncatedFrame):
		return "truncated"
	case errors.Is(err, aura.ErrMalformedHeader):
		return "partial_header"
	}
	return "other"
}

// ObserveDevices publishes device counts and the current status of each device.
func (c *Collector) ObserveDevices(devices []*device.Device) {
	c.Devices.Reset()
	for _, d := range devices {
		c.Devices.WithLabelValues(d.Kind().String()).Inc()
		c.observeStatus(d)
	}
}

func (c *Collector) observeStatus(d *device.Device) {
	uid := fmt.Sprintf("0x%08X", d.UID())
	set := func(field string, v float64) {
		c.Reading.WithLabelValues(uid, field).Set(v)
	}

	switch s := d.Status().(type) {
	case device.TemperatureStatus:
		set("temperature", s.Temperature)
	case device.TemperatureHumidityStatus:
		set("temperature", s.Temperature)
		set("humidity", s.Humidity)
	case device.TemperaturePressureStatus:
		set("temperature", s.Temperature)
		set("pressure", s.Pressure)
	case device.HandleStatus:
		set("open", boolValue(s.Open))
		set("saved_cards", float64(s.SavedCards))
		set("access_count", float64(s.AccessCount))
		c.LastAccessed.WithLabelValues(uid).Set(float64(s.LastAccess.Elapsed))
	case device.ExpanderStatus:
		set("online", boolValue(s.Online))
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

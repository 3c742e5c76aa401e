// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package device

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

// Registry owns the devices discovered on one bus.
type Registry struct {
	logger *zap.Logger

	mu      sync.RWMutex
	devices map[uint32]*Device
	order   []uint32
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger, devices: make(map[uint32]*Device)}
}

// Discover creates a device for every whoami response from a previously
// unseen source that names its type. The new devices are returned in
// frame order.
func (r *Registry) Discover(frames []*aura.Frame) []*Device {
	var created []*Device

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range frames {
		if f.Function != aura.FuncRespWhoami {
			continue
		}
		uid := f.SourceID
		if _, ok := r.devices[uid]; ok {
			continue
		}
		chunks, err := f.Chunks()
		if err != nil {
			r.logger.Warn("whoami payload partially decoded", zap.Uint32("uid", uid), zap.Error(err))
		}
		code, ok := deviceType(chunks)
		if !ok {
			r.logger.Warn("whoami response without device type", zap.Uint32("uid", uid))
			continue
		}
		d := New(uid, code)
		r.devices[uid] = d
		r.order = append(r.order, uid)
		created = append(created, d)
		r.logger.Info("device discovered",
			zap.Uint32("uid", uid),
			zap.Stringer("type", d.Type()),
			zap.Stringer("kind", d.Kind()))
	}
	return created
}

// Add registers a device directly, replacing any device with the same uid.
func (r *Registry) Add(d *Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[d.uid]; !ok {
		r.order = append(r.order, d.uid)
	}
	r.devices[d.uid] = d
}

// ApplyStatus routes status responses to their devices by source uid and
// returns the uids that are not registered. Expanders that did not answer
// are marked offline.
func (r *Registry) ApplyStatus(frames []*aura.Frame) (unknown []uint32) {
	seen := make(map[uint32]bool)
	unknown = r.apply(frames, aura.FuncRespStatus, seen)

	for _, d := range r.ByKind(KindExpander) {
		if !seen[d.uid] {
			d.SetOnline(false)
		}
	}
	return unknown
}

// ApplyReadData routes read-data responses to their devices.
func (r *Registry) ApplyReadData(frames []*aura.Frame) (unknown []uint32) {
	return r.apply(frames, aura.FuncRespReadData, nil)
}

func (r *Registry) apply(frames []*aura.Frame, fn aura.Function, seen map[uint32]bool) (unknown []uint32) {
	for _, f := range frames {
		if f.Function != fn {
			continue
		}
		d := r.Get(f.SourceID)
		if d == nil {
			r.logger.Warn("response from unknown uid",
				zap.Uint32("uid", f.SourceID),
				zap.Stringer("function", f.Function))
			unknown = append(unknown, f.SourceID)
			continue
		}
		chunks, err := f.Chunks()
		if err != nil {
			r.logger.Warn("payload partially decoded", zap.Uint32("uid", f.SourceID), zap.Error(err))
		}
		status := d.Apply(chunks)
		if seen != nil {
			seen[f.SourceID] = true
		}
		r.logger.Debug("status updated", zap.Uint32("uid", f.SourceID), zap.Stringer("status", status))
	}
	return unknown
}

// Get returns the device with uid, or nil
func (r *Registry) Get(uid uint32) *Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices[uid]
}

// Devices returns all devices in discovery order
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Device, 0, len(r.order))
	for _, uid := range r.order {
		out = append(out, r.devices[uid])
	}
	return out
}

// ByKind returns the devices of one kind in discovery order
func (r *Registry) ByKind(k Kind) []*Device {
	var out []*Device
	for _, d := range r.Devices() {
		if d.kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered devices
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// deviceType extracts the type code from whoami chunks. The code is sent
// either as a scalar or as the first element of a byte array.
func deviceType(chunks []aura.Chunk) (uint8, bool) {
	for _, c := range chunks {
		if c.ID != aura.ChunkIDDeviceType {
			continue
		}
		if v, ok := c.Uint(); ok {
			return uint8(v), true
		}
		if b, ok := c.Bytes(); ok && len(b) > 0 {
			return b[0], true
		}
		switch v := c.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				return uint8(v[0]), true
			}
		case []uint32:
			if len(v) > 0 {
				return uint8(v[0]), true
			}
		}
	}
	return 0, false
}

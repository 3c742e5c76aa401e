// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/aurastat/pkg/aura"
)

// Device is the client-side proxy of one unit on the bus.
type Device struct {
	uid  uint32
	typ  Type
	kind Kind

	mu      sync.RWMutex
	status  Status
	updated time.Time
}

// New creates the device variant for a hardware type code.
// Unknown codes produce a generic device.
func New(uid uint32, typeCode uint8) *Device {
	t := Type(typeCode)
	k := KindOf(t)
	return &Device{uid: uid, typ: t, kind: k, status: initialStatus(k)}
}

// UID returns the bus identity of the device
func (d *Device) UID() uint32 { return d.uid }

// Type returns the hardware type code from discovery
func (d *Device) Type() Type { return d.typ }

// Kind returns the status layout of the device
func (d *Device) Kind() Kind { return d.kind }

// Apply folds a batch of decoded chunks into a new status snapshot and
// returns it. Fields not present in the batch keep their previous value.
func (d *Device) Apply(chunks []aura.Chunk) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = merge(d.status, chunks)
	d.updated = time.Now()
	return d.status
}

// SetOnline sets the online flag of an expander. Other kinds are unaffected.
func (d *Device) SetOnline(online bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.status.(ExpanderStatus); ok {
		s.Online = online
		d.status = s
	}
}

// Status returns the current snapshot
func (d *Device) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Updated returns the time of the last Apply, zero if none
func (d *Device) Updated() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.updated
}

// Label renders the device type, e.g. "Temperature sensor (LM75BD)".
func (d *Device) Label() string {
	return fmt.Sprintf("%s (%s)", d.kind, d.typ)
}

func (d *Device) String() string {
	return fmt.Sprintf("%s 0x%08X: %s", d.Label(), d.uid, d.Status())
}

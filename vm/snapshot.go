package vm

import (
	"fmt"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// HeapSnapshot summarizes the live heap: object counts per kind and the
// occupancy of every weak table.
type HeapSnapshot struct {
	Cycle      uint64             `cbor:"1,keyasint"`
	Objects    map[string]int     `cbor:"2,keyasint"`
	WeakTables []WeakTableSummary `cbor:"3,keyasint,omitempty"`
	Roots      int                `cbor:"4,keyasint"`
	Handles    int                `cbor:"5,keyasint"`
	TakenAt    int64              `cbor:"6,keyasint"` // unix nanoseconds
}

// WeakTableSummary describes one weak table.
type WeakTableSummary struct {
	Owner   uint64 `cbor:"1,keyasint"`
	Kind    string `cbor:"2,keyasint"`
	Entries int    `cbor:"3,keyasint"`
}

// TotalObjects returns the number of live objects in the snapshot.
func (s *HeapSnapshot) TotalObjects() int {
	n := 0
	for _, c := range s.Objects {
		n += c
	}
	return n
}

// Snapshot captures the current state of the heap.
func (h *Heap) Snapshot() *HeapSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap := &HeapSnapshot{
		Cycle:   h.cycles.Load(),
		Objects: make(map[string]int),
		Roots:   len(h.roots),
		Handles: len(h.handles),
		TakenAt: time.Now().UnixNano(),
	}
	for _, obj := range h.objects {
		snap.Objects[obj.kind.String()]++
	}
	for t := range h.tables {
		kind := "?"
		if owner := h.objects[t.owner]; owner != nil {
			kind = owner.kind.String()
		}
		snap.WeakTables = append(snap.WeakTables, WeakTableSummary{
			Owner:   uint64(t.owner),
			Kind:    kind,
			Entries: t.Len(),
		})
	}
	sort.Slice(snap.WeakTables, func(i, j int) bool {
		return snap.WeakTables[i].Owner < snap.WeakTables[j].Owner
	})
	return snap
}

// Canonical mode keeps snapshots of identical heaps byte-identical.
var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// MarshalSnapshot serializes a HeapSnapshot to CBOR bytes.
func MarshalSnapshot(s *HeapSnapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a HeapSnapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*HeapSnapshot, error) {
	var s HeapSnapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

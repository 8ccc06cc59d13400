package vm

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ephemeron.vm")

// ---------------------------------------------------------------------------
// Heap: object registry, roots and the collector
// ---------------------------------------------------------------------------

// GCStats holds statistics from a single collection cycle.
type GCStats struct {
	Cycle             uint64
	Live              int // objects surviving the cycle
	Swept             int // objects reclaimed
	WeakEntriesPruned int // entries removed because their key died
	TablesDropped     int // weak tables whose owner died
	Handles           int // temporary roots at the time of the cycle
	Duration          time.Duration
	Timestamp         time.Time
}

// Heap owns every object allocated by a runtime.
//
// Objects are reachable from persistent roots (AddRoot) and from the
// handle stack (HandleScope). Collection is stop-the-world and only happens
// at safepoints: an explicit Collect, or an allocation that crosses the
// threshold. Weak tables are registered here and are never traced as
// strong edges; see Collect.
type Heap struct {
	mu      sync.Mutex
	objects map[ObjectID]*Object
	nextID  ObjectID
	roots   map[*Object]struct{}
	handles []Value
	tables  map[*WeakTable]struct{}

	threshold  int // allocations between automatic cycles; 0 disables
	sinceGC    int
	collecting bool

	observers []func(*GCStats)

	cycles    atomic.Uint64
	lastStats atomic.Value // *GCStats
}

// NewHeap creates an empty heap. threshold is the number of allocations
// between automatic collections; zero disables them.
func NewHeap(threshold int) *Heap {
	if threshold < 0 {
		threshold = 0
	}
	return &Heap{
		objects:   make(map[ObjectID]*Object),
		roots:     make(map[*Object]struct{}),
		tables:    make(map[*WeakTable]struct{}),
		threshold: threshold,
	}
}

// allocate creates an object of the given kind. Weak collections receive
// their table here, so the table exists as soon as the object does.
// A collection may run before the object is created.
func (h *Heap) allocate(kind CellKind, proto *Object) *Object {
	if h.dueForCollection() {
		h.Collect()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	obj := &Object{id: h.nextID, kind: kind, proto: proto}
	if kind == WeakSetKind || kind == WeakMapKind {
		obj.table = newWeakTable(obj.id)
		h.tables[obj.table] = struct{}{}
	}
	h.objects[obj.id] = obj
	h.sinceGC++
	return obj
}

func (h *Heap) dueForCollection() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.threshold > 0 && !h.collecting && h.sinceGC >= h.threshold
}

// SetThreshold changes the automatic collection threshold.
func (h *Heap) SetThreshold(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 0 {
		n = 0
	}
	h.threshold = n
}

// AddRoot pins obj until RemoveRoot is called.
func (h *Heap) AddRoot(obj *Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots[obj] = struct{}{}
}

// RemoveRoot unpins obj.
func (h *Heap) RemoveRoot(obj *Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.roots, obj)
}

// Lookup returns the live object with the given ID, or nil.
func (h *Heap) Lookup(id ObjectID) *Object {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.objects[id]
}

// NumObjects returns the number of live objects.
func (h *Heap) NumObjects() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// HandleCount returns the depth of the handle stack.
func (h *Heap) HandleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handles)
}

// WeakTableCount returns the number of registered weak tables.
func (h *Heap) WeakTableCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tables)
}

// OnCollect registers a callback run after every cycle.
func (h *Heap) OnCollect(fn func(*GCStats)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

// Cycles returns the number of completed collections.
func (h *Heap) Cycles() uint64 {
	return h.cycles.Load()
}

// LastStats returns statistics from the most recent cycle, or nil.
func (h *Heap) LastStats() *GCStats {
	v := h.lastStats.Load()
	if v == nil {
		return nil
	}
	return v.(*GCStats)
}

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

// Collect runs a full stop-the-world cycle:
//
//  1. mark everything reachable from roots and handles;
//  2. for every weak table whose owner is marked, mark the values of
//     entries whose keys are marked, repeating until nothing new is marked;
//  3. drop tables whose owner died and prune entries whose key died;
//  4. release every unmarked object.
func (h *Heap) Collect() *GCStats {
	h.mu.Lock()
	if h.collecting {
		h.mu.Unlock()
		return h.LastStats()
	}
	h.collecting = true
	start := time.Now()

	marked := h.mark()
	stats := &GCStats{
		Cycle:     h.cycles.Load() + 1,
		Handles:   len(h.handles),
		Timestamp: start,
	}

	for t := range h.tables {
		if _, live := marked[t.owner]; !live {
			delete(h.tables, t)
			stats.TablesDropped++
			continue
		}
		stats.WeakEntriesPruned += t.prune(marked)
	}

	for id, obj := range h.objects {
		if _, live := marked[id]; live {
			continue
		}
		obj.release()
		delete(h.objects, id)
		stats.Swept++
	}

	stats.Live = len(h.objects)
	stats.Duration = time.Since(start)
	h.sinceGC = 0
	h.collecting = false
	observers := append([]func(*GCStats){}, h.observers...)
	h.mu.Unlock()

	h.cycles.Add(1)
	h.lastStats.Store(stats)

	log.Debugf("gc cycle %d: live=%d swept=%d weak-pruned=%d tables-dropped=%d handles=%d in %s",
		stats.Cycle, stats.Live, stats.Swept, stats.WeakEntriesPruned,
		stats.TablesDropped, stats.Handles, stats.Duration)

	for _, fn := range observers {
		fn(stats)
	}
	return stats
}

// mark computes the set of reachable object IDs. Caller holds h.mu.
func (h *Heap) mark() map[ObjectID]struct{} {
	marked := make(map[ObjectID]struct{}, len(h.objects))
	var work []*Object

	markObject := func(obj *Object) {
		if obj == nil || obj.freed {
			return
		}
		if _, ok := marked[obj.id]; ok {
			return
		}
		marked[obj.id] = struct{}{}
		work = append(work, obj)
	}
	markValue := func(v Value) {
		if v.IsObject() {
			markObject(v.obj)
		}
	}
	drain := func() {
		for len(work) > 0 {
			obj := work[len(work)-1]
			work = work[:len(work)-1]
			trace(obj, markObject, markValue)
		}
	}

	for obj := range h.roots {
		markObject(obj)
	}
	for _, v := range h.handles {
		markValue(v)
	}
	drain()

	// Ephemeron fixpoint: a value is live only through a live key.
	for {
		before := len(marked)
		for t := range h.tables {
			if _, live := marked[t.owner]; !live {
				continue
			}
			t.traceLive(marked, markValue)
			drain()
		}
		if len(marked) == before {
			break
		}
	}
	return marked
}

// trace visits the strong references held by obj. The weak table is not
// one of them.
func trace(obj *Object, markObject func(*Object), markValue func(Value)) {
	markObject(obj.proto)
	for _, p := range obj.props {
		markValue(p.Value)
		markObject(p.Getter)
	}
	for _, v := range obj.elems {
		markValue(v)
	}
	if obj.iter != nil {
		markObject(obj.iter.array)
	}
}

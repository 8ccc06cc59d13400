package vm

import (
	"sync"
)

// ---------------------------------------------------------------------------
// WeakTable: key -> value storage that does not keep its keys alive
// ---------------------------------------------------------------------------

// WeakTable maps heap objects to values without holding strong references
// to the keys. Keys are stored by ObjectID only, so the table never pins a
// key; the heap consults registered tables during marking (a value is
// traced only once its key is known to be reachable) and prunes entries
// whose keys were not marked.
//
// Every table belongs to exactly one weak collection. The lock makes a
// collector prune atomic with respect to Set/Delete/Has/Get.
type WeakTable struct {
	owner   ObjectID
	entries map[ObjectID]Value
	mu      sync.RWMutex
}

func newWeakTable(owner ObjectID) *WeakTable {
	return &WeakTable{
		owner:   owner,
		entries: make(map[ObjectID]Value),
	}
}

// Owner returns the ID of the collection that owns this table.
func (t *WeakTable) Owner() ObjectID {
	return t.owner
}

// Set stores value under key, overwriting any existing entry. A key that
// has already been collected is ignored.
func (t *WeakTable) Set(key *Object, value Value) {
	if key == nil || key.freed {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key.id] = value
}

// Delete removes the entry for key. Returns true if one was removed.
func (t *WeakTable) Delete(key *Object) bool {
	if key == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key.id]; !ok {
		return false
	}
	delete(t.entries, key.id)
	return true
}

// Has reports whether the table holds an entry for key.
func (t *WeakTable) Has(key *Object) bool {
	if key == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[key.id]
	return ok
}

// Get returns the value stored under key.
func (t *WeakTable) Get(key *Object) (Value, bool) {
	if key == nil {
		return Undefined, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[key.id]
	return v, ok
}

// Len returns the number of entries currently held.
func (t *WeakTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// traceLive calls fn for the value of every entry whose key is marked.
func (t *WeakTable) traceLive(marked map[ObjectID]struct{}, fn func(Value)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for key, v := range t.entries {
		if _, ok := marked[key]; ok {
			fn(v)
		}
	}
}

// prune removes entries whose keys were not marked.
// Returns the number of entries removed.
func (t *WeakTable) prune(marked map[ObjectID]struct{}) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for key := range t.entries {
		if _, ok := marked[key]; !ok {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}

// clear drops every entry (called when the owner itself is collected).
func (t *WeakTable) clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.entries)
	t.entries = make(map[ObjectID]Value)
	return n
}

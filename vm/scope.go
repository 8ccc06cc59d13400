package vm

// HandleScope is a stack-discipline region of temporary roots.
//
// Values pushed through Handle stay reachable for the collector until the
// scope is closed or flushed below them. Scopes nest: closing a scope
// releases every handle created since it was opened, including handles of
// inner scopes that were never closed.
//
//	scope := rt.Heap().NewScope()
//	defer scope.Close()
type HandleScope struct {
	heap *Heap
	base int
}

// Marker is a position inside a scope's handle range.
type Marker int

// NewScope opens a scope at the current top of the handle stack.
func (h *Heap) NewScope() *HandleScope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &HandleScope{heap: h, base: len(h.handles)}
}

// Handle roots v for the lifetime of the scope and returns it unchanged.
func (s *HandleScope) Handle(v Value) Value {
	if !v.IsObject() {
		return v
	}
	s.heap.mu.Lock()
	s.heap.handles = append(s.heap.handles, v)
	s.heap.mu.Unlock()
	return v
}

// HandleObject is Handle for an object pointer.
func (s *HandleScope) HandleObject(obj *Object) *Object {
	s.Handle(obj.ToValue())
	return obj
}

// CreateMarker records the current top of the handle stack.
func (s *HandleScope) CreateMarker() Marker {
	s.heap.mu.Lock()
	defer s.heap.mu.Unlock()
	return Marker(len(s.heap.handles))
}

// FlushToMarker releases every handle created after m.
func (s *HandleScope) FlushToMarker(m Marker) {
	s.heap.truncateHandles(int(m))
}

// Close releases every handle created since the scope was opened.
func (s *HandleScope) Close() {
	s.heap.truncateHandles(s.base)
}

func (h *Heap) truncateHandles(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n < 0 || n >= len(h.handles) {
		return
	}
	clear(h.handles[n:])
	h.handles = h.handles[:n]
}

package vm

import (
	"fmt"
	"strconv"
)

// ObjectID is the heap identity of an object. IDs are handed out by the
// heap from a monotonic counter and are never reused, so a stale ID held
// by a weak table can never alias a newer object.
type ObjectID uint64

// CellKind tags the internal layout of an object.
type CellKind uint8

const (
	PlainKind CellKind = iota
	FunctionKind
	ArrayKind
	ArrayIteratorKind
	WeakSetKind
	WeakMapKind
)

var cellKindNames = [...]string{
	PlainKind:         "Object",
	FunctionKind:      "Function",
	ArrayKind:         "Array",
	ArrayIteratorKind: "Array Iterator",
	WeakSetKind:       "WeakSet",
	WeakMapKind:       "WeakMap",
}

func (k CellKind) String() string {
	if int(k) < len(cellKindNames) {
		return cellKindNames[k]
	}
	return "CellKind(" + strconv.Itoa(int(k)) + ")"
}

// Object represents a heap-allocated object.
//
// Own properties are kept in insertion order. Internal slots that are not
// reachable through properties (native entry point, array elements, weak
// table, iterator state) are plain fields; the collector knows which of
// them hold strong references.
type Object struct {
	id    ObjectID
	kind  CellKind
	proto *Object

	props map[string]*Property
	order []string

	// FunctionKind
	native   NativeFunc
	name     string
	arity    int
	ctorKind CellKind // kind allocated by Construct
	ctor     bool

	// ArrayKind
	elems []Value

	// WeakSetKind, WeakMapKind
	table *WeakTable

	// ArrayIteratorKind
	iter *arrayIterState

	freed bool
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// PropertyFlags describes the attributes of a property.
type PropertyFlags uint8

const (
	Writable PropertyFlags = 1 << iota
	Enumerable
	Configurable
)

// DefaultPropertyFlags are the attributes of a property created by plain
// assignment.
const DefaultPropertyFlags = Writable | Enumerable | Configurable

// MethodFlags are the attributes of a builtin method.
const MethodFlags = Writable | Configurable

// Property is a single own property. A property with a non-nil Getter is an
// accessor; reading it calls the getter with the original receiver.
type Property struct {
	Value  Value
	Getter *Object
	Flags  PropertyFlags
}

func (p *Property) writable() bool { return p.Flags&Writable != 0 }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// ID returns the heap identity of the object.
func (obj *Object) ID() ObjectID { return obj.id }

// CellKind returns the object's layout tag.
func (obj *Object) CellKind() CellKind { return obj.kind }

// Proto returns the prototype link, or nil.
func (obj *Object) Proto() *Object { return obj.proto }

// SetProto replaces the prototype link.
func (obj *Object) SetProto(p *Object) { obj.proto = p }

// IsCollected reports whether the collector has reclaimed the object.
func (obj *Object) IsCollected() bool { return obj.freed }

// IsCallable reports whether the object has a native entry point.
func (obj *Object) IsCallable() bool { return obj.native != nil }

// Name returns the function name for FunctionKind objects.
func (obj *Object) Name() string { return obj.name }

// Arity returns the declared argument count for FunctionKind objects.
func (obj *Object) Arity() int { return obj.arity }

// WeakTable returns the table owned by a weak collection, or nil.
func (obj *Object) WeakTable() *WeakTable { return obj.table }

// GetOwn returns the own property with the given name, or nil.
func (obj *Object) GetOwn(name string) *Property {
	if obj.props == nil {
		return nil
	}
	return obj.props[name]
}

// OwnKeys returns own property names in insertion order.
func (obj *Object) OwnKeys() []string {
	keys := make([]string, len(obj.order))
	copy(keys, obj.order)
	return keys
}

// setOwn creates or replaces an own property.
func (obj *Object) setOwn(name string, p *Property) {
	if obj.props == nil {
		obj.props = make(map[string]*Property)
	}
	if _, ok := obj.props[name]; !ok {
		obj.order = append(obj.order, name)
	}
	obj.props[name] = p
}

// deleteOwn removes an own property. Returns false if it was not present.
func (obj *Object) deleteOwn(name string) bool {
	if _, ok := obj.props[name]; !ok {
		return false
	}
	delete(obj.props, name)
	for i, k := range obj.order {
		if k == name {
			obj.order = append(obj.order[:i], obj.order[i+1:]...)
			break
		}
	}
	return true
}

// lookup walks the prototype chain for name.
func (obj *Object) lookup(name string) *Property {
	for o := obj; o != nil; o = o.proto {
		if p := o.GetOwn(name); p != nil {
			return p
		}
	}
	return nil
}

// release drops every reference held by a collected object.
func (obj *Object) release() {
	obj.freed = true
	obj.proto = nil
	obj.props = nil
	obj.order = nil
	obj.elems = nil
	obj.iter = nil
	if obj.table != nil {
		obj.table.clear()
		obj.table = nil
	}
}

func (obj *Object) String() string {
	if obj == nil {
		return "<nil object>"
	}
	if obj.freed {
		return fmt.Sprintf("<collected #%d>", obj.id)
	}
	if obj.kind == FunctionKind && obj.name != "" {
		return fmt.Sprintf("[Function %s #%d]", obj.name, obj.id)
	}
	return fmt.Sprintf("[%s #%d]", obj.kind, obj.id)
}

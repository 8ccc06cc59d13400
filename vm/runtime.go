package vm

import (
	"strconv"
)

// Predefined property names.
const (
	NameAdd         = "add"
	NameDelete      = "delete"
	NameHas         = "has"
	NameGet         = "get"
	NameSet         = "set"
	NameValue       = "value"
	NameDone        = "done"
	NameNext        = "next"
	NameReturn      = "return"
	NameLength      = "length"
	NameKeys        = "keys"
	NameValues      = "values"
	NameEntries     = "entries"
	NameConstructor = "constructor"
	NamePrototype   = "prototype"

	// Well-known symbols live in their own namespace of property names.
	SymbolIterator    = "@@iterator"
	SymbolToStringTag = "@@toStringTag"
)

// ---------------------------------------------------------------------------
// Runtime
// ---------------------------------------------------------------------------

// Runtime is one engine instance: a heap, the builtin prototypes and the
// global object. A Runtime is driven by a single goroutine.
type Runtime struct {
	heap *Heap

	Global *Object

	// Well-known prototypes
	ObjectPrototype        *Object
	FunctionPrototype      *Object
	ArrayPrototype         *Object
	ArrayIteratorPrototype *Object
	WeakSetPrototype       *Object
	WeakMapPrototype       *Object

	// Builtin constructors
	WeakSetConstructor *Object
	WeakMapConstructor *Object
}

// Options configures a Runtime.
type Options struct {
	// GCThreshold is the number of allocations between automatic
	// collections. Zero disables automatic collection.
	GCThreshold int
}

// NewRuntime creates a runtime with automatic collection disabled.
func NewRuntime() *Runtime {
	return NewRuntimeWithOptions(Options{})
}

// NewRuntimeWithOptions creates and bootstraps a runtime.
func NewRuntimeWithOptions(opts Options) *Runtime {
	rt := &Runtime{heap: NewHeap(0)}
	rt.bootstrap()
	rt.heap.SetThreshold(opts.GCThreshold)
	return rt
}

// Heap returns the runtime's heap.
func (rt *Runtime) Heap() *Heap { return rt.heap }

func (rt *Runtime) bootstrap() {
	h := rt.heap

	rt.ObjectPrototype = h.allocate(PlainKind, nil)
	rt.FunctionPrototype = h.allocate(PlainKind, rt.ObjectPrototype)
	rt.Global = h.allocate(PlainKind, rt.ObjectPrototype)
	rt.ArrayPrototype = h.allocate(PlainKind, rt.ObjectPrototype)
	rt.ArrayIteratorPrototype = h.allocate(PlainKind, rt.ObjectPrototype)
	rt.WeakSetPrototype = h.allocate(PlainKind, rt.ObjectPrototype)
	rt.WeakMapPrototype = h.allocate(PlainKind, rt.ObjectPrototype)

	for _, obj := range []*Object{
		rt.ObjectPrototype, rt.FunctionPrototype, rt.Global,
		rt.ArrayPrototype, rt.ArrayIteratorPrototype,
		rt.WeakSetPrototype, rt.WeakMapPrototype,
	} {
		h.AddRoot(obj)
	}

	rt.createArrayPrototype()
	rt.WeakSetConstructor = rt.createWeakSetConstructor()
	rt.WeakMapConstructor = rt.createWeakMapConstructor()
	rt.DefineProperty(rt.Global, "WeakSet", rt.WeakSetConstructor.ToValue(), MethodFlags)
	rt.DefineProperty(rt.Global, "WeakMap", rt.WeakMapConstructor.ToValue(), MethodFlags)
}

// ---------------------------------------------------------------------------
// Object model
// ---------------------------------------------------------------------------

// NewObject allocates a plain object inheriting from Object.prototype.
func (rt *Runtime) NewObject() *Object {
	return rt.heap.allocate(PlainKind, rt.ObjectPrototype)
}

// NewObjectWithProto allocates a plain object with the given prototype.
func (rt *Runtime) NewObjectWithProto(proto *Object) *Object {
	return rt.heap.allocate(PlainKind, proto)
}

// IsInstanceOf reports whether v is a live object of the given kind.
func (rt *Runtime) IsInstanceOf(v Value, kind CellKind) bool {
	return instanceOf(v, kind) != nil
}

// instanceOf returns v's object if it is live and of the given kind.
func instanceOf(v Value, kind CellKind) *Object {
	obj := v.Object()
	if obj == nil || obj.freed || obj.kind != kind {
		return nil
	}
	return obj
}

// DefineProperty creates or replaces an own data property, ignoring
// writability of any existing property.
func (rt *Runtime) DefineProperty(target *Object, name string, value Value, flags PropertyFlags) {
	target.setOwn(name, &Property{Value: value, Flags: flags})
}

// DefineMethod installs a native function as a non-enumerable method and
// returns the function object.
func (rt *Runtime) DefineMethod(target *Object, name string, fn NativeFunc, arity int) *Object {
	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.HandleObject(target)

	f := rt.NewFunction(name, arity, fn)
	rt.DefineProperty(target, name, f.ToValue(), MethodFlags)
	return f
}

// DefineAccessor installs a getter-only accessor property.
func (rt *Runtime) DefineAccessor(target *Object, name string, getter NativeFunc) *Object {
	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.HandleObject(target)

	f := rt.NewFunction("get "+name, 0, getter)
	target.setOwn(name, &Property{Getter: f, Flags: Configurable})
	return f
}

// DeleteProperty removes an own property. Non-configurable properties are
// kept and false is returned.
func (rt *Runtime) DeleteProperty(target *Object, name string) bool {
	p := target.GetOwn(name)
	if p == nil {
		return true
	}
	if p.Flags&Configurable == 0 {
		return false
	}
	return target.deleteOwn(name)
}

// GetProperty reads name from obj, walking the prototype chain. Accessor
// properties run their getter with obj as the receiver.
func (rt *Runtime) GetProperty(obj *Object, name string) (Value, error) {
	if obj == nil || obj.freed {
		return Undefined, typeError(ErrNotObject, ArgThis, "cannot read property %q of %s", name, obj)
	}
	if obj.kind == ArrayKind {
		if name == NameLength {
			return FromInt(len(obj.elems)), nil
		}
		if i, ok := arrayIndex(name); ok {
			if i < len(obj.elems) {
				return obj.elems[i], nil
			}
		}
	}

	p := obj.lookup(name)
	if p == nil {
		return Undefined, nil
	}
	if p.Getter != nil {
		return rt.Call(p.Getter.ToValue(), obj.ToValue())
	}
	return p.Value, nil
}

// Get reads name from v. Primitives have no properties and read as
// Undefined.
func (rt *Runtime) Get(v Value, name string) (Value, error) {
	obj := v.Object()
	if obj == nil {
		if v.IsNullish() {
			return Undefined, typeError(ErrNotObject, ArgThis, "cannot read property %q of %s", name, v)
		}
		return Undefined, nil
	}
	return rt.GetProperty(obj, name)
}

// PutProperty assigns name on obj. Assigning to a read-only property,
// own or inherited, fails with ErrReadOnly.
func (rt *Runtime) PutProperty(obj *Object, name string, value Value) error {
	if obj == nil || obj.freed {
		return typeError(ErrNotObject, ArgThis, "cannot set property %q of %s", name, obj)
	}
	if obj.kind == ArrayKind {
		if i, ok := arrayIndex(name); ok {
			obj.setIndex(i, value)
			return nil
		}
	}

	if p := obj.GetOwn(name); p != nil {
		if p.Getter != nil || !p.writable() {
			return typeError(ErrReadOnly, 0, "cannot assign to read only property %q", name)
		}
		p.Value = value
		return nil
	}
	if p := obj.lookup(name); p != nil && (p.Getter != nil || !p.writable()) {
		return typeError(ErrReadOnly, 0, "cannot assign to read only property %q", name)
	}
	obj.setOwn(name, &Property{Value: value, Flags: DefaultPropertyFlags})
	return nil
}

func arrayIndex(name string) (int, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

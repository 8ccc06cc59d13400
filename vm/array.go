package vm

// IterationKind selects what an array iterator produces.
type IterationKind uint8

const (
	IterateKey IterationKind = iota
	IterateValue
	IterateEntry
)

type arrayIterState struct {
	array *Object // nil once exhausted
	index int
	kind  IterationKind
}

// NewArray allocates an array holding vals.
func (rt *Runtime) NewArray(vals ...Value) *Object {
	scope := rt.heap.NewScope()
	defer scope.Close()
	for _, v := range vals {
		scope.Handle(v)
	}

	obj := rt.heap.allocate(ArrayKind, rt.ArrayPrototype)
	obj.elems = append([]Value(nil), vals...)
	return obj
}

// Elements returns a copy of an array's elements.
func (obj *Object) Elements() []Value {
	return append([]Value(nil), obj.elems...)
}

// setIndex stores v at i, filling any gap with Undefined.
func (obj *Object) setIndex(i int, v Value) {
	for len(obj.elems) <= i {
		obj.elems = append(obj.elems, Undefined)
	}
	obj.elems[i] = v
}

// Push appends v to an array.
func (obj *Object) Push(v Value) {
	obj.elems = append(obj.elems, v)
}

func (rt *Runtime) createArrayPrototype() {
	proto := rt.ArrayPrototype

	rt.DefineMethod(proto, NameKeys, arrayIteratorFactory(IterateKey), 0)
	values := rt.DefineMethod(proto, NameValues, arrayIteratorFactory(IterateValue), 0)
	rt.DefineMethod(proto, NameEntries, arrayIteratorFactory(IterateEntry), 0)
	rt.DefineProperty(proto, SymbolIterator, values.ToValue(), MethodFlags)

	rt.DefineMethod(rt.ArrayIteratorPrototype, NameNext, arrayIteratorNext, 0)
	rt.DefineProperty(rt.ArrayIteratorPrototype, SymbolToStringTag, FromString("Array Iterator"), Configurable)
}

func arrayIteratorFactory(kind IterationKind) NativeFunc {
	return func(rt *Runtime, args NativeArgs) (Value, error) {
		arr := args.ThisKind(ArrayKind)
		if arr == nil {
			return Undefined, typeError(ErrReceiverType, ArgThis, "Array iterator method called on %s", args.This)
		}
		it := rt.heap.allocate(ArrayIteratorKind, rt.ArrayIteratorPrototype)
		it.iter = &arrayIterState{array: arr, kind: kind}
		return it.ToValue(), nil
	}
}

func arrayIteratorNext(rt *Runtime, args NativeArgs) (Value, error) {
	it := args.ThisKind(ArrayIteratorKind)
	if it == nil {
		return Undefined, typeError(ErrReceiverType, ArgThis, "Array Iterator.prototype.next called on %s", args.This)
	}

	st := it.iter
	if st.array == nil || st.index >= len(st.array.elems) {
		st.array = nil
		return rt.CreateIterResult(Undefined, true).ToValue(), nil
	}

	i := st.index
	st.index++
	switch st.kind {
	case IterateKey:
		return rt.CreateIterResult(FromInt(i), false).ToValue(), nil
	case IterateEntry:
		scope := rt.heap.NewScope()
		defer scope.Close()
		entry := scope.HandleObject(rt.NewArray(FromInt(i), st.array.elems[i]))
		return rt.CreateIterResult(entry.ToValue(), false).ToValue(), nil
	default:
		return rt.CreateIterResult(st.array.elems[i], false).ToValue(), nil
	}
}

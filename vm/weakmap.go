package vm

// ---------------------------------------------------------------------------
// WeakMap
// ---------------------------------------------------------------------------

func (rt *Runtime) createWeakMapConstructor() *Object {
	proto := rt.WeakMapPrototype

	rt.DefineMethod(proto, NameDelete, weakMapPrototypeDelete, 1)
	rt.DefineMethod(proto, NameGet, weakMapPrototypeGet, 1)
	rt.DefineMethod(proto, NameHas, weakMapPrototypeHas, 1)
	rt.DefineMethod(proto, NameSet, weakMapPrototypeSet, 2)
	rt.DefineProperty(proto, SymbolToStringTag, FromString("WeakMap"), Configurable)

	return rt.NewConstructor("WeakMap", 0, WeakMapKind, proto, weakMapConstructor)
}

// NewWeakMap constructs a WeakMap, optionally populated from an iterable
// of [key, value] entries.
func (rt *Runtime) NewWeakMap(iterable ...Value) (*Object, error) {
	v, err := rt.Construct(rt.WeakMapConstructor.ToValue(), iterable...)
	if err != nil {
		return nil, err
	}
	return v.Object(), nil
}

func weakMapConstructor(rt *Runtime, args NativeArgs) (Value, error) {
	if !args.IsConstructorCall() {
		return Undefined, typeError(ErrInvocation, ArgThis, "WeakMap must be called as a constructor")
	}

	self := args.ThisKind(WeakMapKind)
	if self == nil {
		return Undefined, typeError(ErrReceiverType, ArgThis, "WeakMap constructor received a non-WeakMap instance")
	}

	iterable := args.Arg(0)
	if iterable.IsNullish() {
		return self.ToValue(), nil
	}

	err := rt.populate(self, NameSet, iterable, func(scope *HandleScope, elem Value) ([]Value, error) {
		entry := elem.Object()
		if entry == nil {
			return nil, typeError(ErrNotObject, 0, "WeakMap iterator value %s is not an entry object", elem)
		}
		k, err := rt.GetProperty(entry, "0")
		if err != nil {
			return nil, err
		}
		scope.Handle(k)
		v, err := rt.GetProperty(entry, "1")
		if err != nil {
			return nil, err
		}
		scope.Handle(v)
		return []Value{k, v}, nil
	})
	if err != nil {
		return Undefined, err
	}
	return self.ToValue(), nil
}

// WeakMapSet associates value with key and returns the receiver.
func (rt *Runtime) WeakMapSet(receiver, key, value Value) (Value, error) {
	m, err := rt.thisWeakCollection(receiver, WeakMapKind, NameSet)
	if err != nil {
		return Undefined, err
	}
	k := weakKey(key)
	if k == nil {
		return Undefined, typeError(ErrKeyType, 0, "WeakMap key must be an Object")
	}
	m.table.Set(k, value)
	return receiver, nil
}

// WeakMapGet returns the value associated with key, or Undefined.
func (rt *Runtime) WeakMapGet(receiver, key Value) (Value, error) {
	m, err := rt.thisWeakCollection(receiver, WeakMapKind, NameGet)
	if err != nil {
		return Undefined, err
	}
	k := weakKey(key)
	if k == nil {
		return Undefined, nil
	}
	v, _ := m.table.Get(k)
	return v, nil
}

// WeakMapHas reports whether key has an association.
func (rt *Runtime) WeakMapHas(receiver, key Value) (bool, error) {
	m, err := rt.thisWeakCollection(receiver, WeakMapKind, NameHas)
	if err != nil {
		return false, err
	}
	k := weakKey(key)
	if k == nil {
		return false, nil
	}
	return m.table.Has(k), nil
}

// WeakMapDelete removes the association for key.
func (rt *Runtime) WeakMapDelete(receiver, key Value) (bool, error) {
	m, err := rt.thisWeakCollection(receiver, WeakMapKind, NameDelete)
	if err != nil {
		return false, err
	}
	k := weakKey(key)
	if k == nil {
		return false, nil
	}
	return m.table.Delete(k), nil
}

func weakMapPrototypeSet(rt *Runtime, args NativeArgs) (Value, error) {
	return rt.WeakMapSet(args.This, args.Arg(0), args.Arg(1))
}

func weakMapPrototypeGet(rt *Runtime, args NativeArgs) (Value, error) {
	return rt.WeakMapGet(args.This, args.Arg(0))
}

func weakMapPrototypeHas(rt *Runtime, args NativeArgs) (Value, error) {
	ok, err := rt.WeakMapHas(args.This, args.Arg(0))
	if err != nil {
		return Undefined, err
	}
	return FromBool(ok), nil
}

func weakMapPrototypeDelete(rt *Runtime, args NativeArgs) (Value, error) {
	ok, err := rt.WeakMapDelete(args.This, args.Arg(0))
	if err != nil {
		return Undefined, err
	}
	return FromBool(ok), nil
}

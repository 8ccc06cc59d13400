package vm

// ---------------------------------------------------------------------------
// WeakSet
// ---------------------------------------------------------------------------

func (rt *Runtime) createWeakSetConstructor() *Object {
	proto := rt.WeakSetPrototype

	rt.DefineMethod(proto, NameAdd, weakSetPrototypeAdd, 1)
	rt.DefineMethod(proto, NameDelete, weakSetPrototypeDelete, 1)
	rt.DefineMethod(proto, NameHas, weakSetPrototypeHas, 1)
	rt.DefineProperty(proto, SymbolToStringTag, FromString("WeakSet"), Configurable)

	return rt.NewConstructor("WeakSet", 0, WeakSetKind, proto, weakSetConstructor)
}

// NewWeakSet constructs a WeakSet, optionally populated from an iterable.
func (rt *Runtime) NewWeakSet(iterable ...Value) (*Object, error) {
	v, err := rt.Construct(rt.WeakSetConstructor.ToValue(), iterable...)
	if err != nil {
		return nil, err
	}
	return v.Object(), nil
}

func weakSetConstructor(rt *Runtime, args NativeArgs) (Value, error) {
	if !args.IsConstructorCall() {
		return Undefined, typeError(ErrInvocation, ArgThis, "WeakSet must be called as a constructor")
	}

	self := args.ThisKind(WeakSetKind)
	if self == nil {
		return Undefined, typeError(ErrReceiverType, ArgThis, "WeakSet constructor received a non-WeakSet instance")
	}

	iterable := args.Arg(0)
	if iterable.IsNullish() {
		return self.ToValue(), nil
	}

	err := rt.populate(self, NameAdd, iterable, func(_ *HandleScope, elem Value) ([]Value, error) {
		return []Value{elem}, nil
	})
	if err != nil {
		return Undefined, err
	}
	return self.ToValue(), nil
}

// WeakSetAdd inserts key into the set receiver and returns the receiver.
// value is what the table records for the key; membership is all a set
// exposes.
func (rt *Runtime) WeakSetAdd(receiver, key, value Value) (Value, error) {
	set, err := rt.thisWeakCollection(receiver, WeakSetKind, NameAdd)
	if err != nil {
		return Undefined, err
	}
	k := weakKey(key)
	if k == nil {
		return Undefined, typeError(ErrKeyType, 0, "WeakSet key must be an Object")
	}
	set.table.Set(k, value)
	return receiver, nil
}

// WeakSetDelete removes key from the set receiver. Keys that can never be
// members report false.
func (rt *Runtime) WeakSetDelete(receiver, key Value) (bool, error) {
	set, err := rt.thisWeakCollection(receiver, WeakSetKind, NameDelete)
	if err != nil {
		return false, err
	}
	k := weakKey(key)
	if k == nil {
		return false, nil
	}
	return set.table.Delete(k), nil
}

// WeakSetHas reports whether key is a member of the set receiver.
func (rt *Runtime) WeakSetHas(receiver, key Value) (bool, error) {
	set, err := rt.thisWeakCollection(receiver, WeakSetKind, NameHas)
	if err != nil {
		return false, err
	}
	k := weakKey(key)
	if k == nil {
		return false, nil
	}
	return set.table.Has(k), nil
}

func weakSetPrototypeAdd(rt *Runtime, args NativeArgs) (Value, error) {
	value := True
	if args.Count() > 1 {
		value = args.Arg(1)
	}
	return rt.WeakSetAdd(args.This, args.Arg(0), value)
}

func weakSetPrototypeDelete(rt *Runtime, args NativeArgs) (Value, error) {
	ok, err := rt.WeakSetDelete(args.This, args.Arg(0))
	if err != nil {
		return Undefined, err
	}
	return FromBool(ok), nil
}

func weakSetPrototypeHas(rt *Runtime, args NativeArgs) (Value, error) {
	ok, err := rt.WeakSetHas(args.This, args.Arg(0))
	if err != nil {
		return Undefined, err
	}
	return FromBool(ok), nil
}

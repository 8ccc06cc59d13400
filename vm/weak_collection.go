package vm

// ---------------------------------------------------------------------------
// Shared machinery for WeakSet and WeakMap
// ---------------------------------------------------------------------------

// thisWeakCollection validates the receiver of a collection method.
func (rt *Runtime) thisWeakCollection(recv Value, kind CellKind, method string) (*Object, error) {
	if !rt.IsInstanceOf(recv, kind) || recv.Object().table == nil {
		return nil, typeError(ErrReceiverType, ArgThis,
			"%s.prototype.%s can only be called on a %s", kind, method, kind)
	}
	return recv.Object(), nil
}

// weakKey returns key as a live heap object, or nil for anything that can
// never be a weak key (primitives, and objects already collected).
func weakKey(key Value) *Object {
	obj := key.Object()
	if obj == nil || obj.freed {
		return nil
	}
	return obj
}

// lookupAdder resolves the named mutator on a freshly constructed
// collection. The lookup goes through the instance's prototype chain so a
// replaced or subclassed method is honored.
func (rt *Runtime) lookupAdder(collection *Object, name string) (Value, error) {
	adder, err := rt.GetProperty(collection, name)
	if err != nil {
		return Undefined, err
	}
	if !adder.IsCallable() {
		return Undefined, typeError(ErrNotCallable, ArgThis,
			"Property '%s' for %s is not callable", name, collection.kind)
	}
	return adder, nil
}

// populate drains iterable into collection through the looked-up adder.
// feed turns one iterated element into the adder's arguments; if it or
// the adder fails, the iterator is closed before the error is returned.
// Step failures are returned as is.
//
// Each iteration's temporaries are released before the next step, so the
// handle stack does not grow with the length of the iterable.
func (rt *Runtime) populate(collection *Object, adderName string, iterable Value,
	feed func(scope *HandleScope, elem Value) ([]Value, error)) error {

	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.HandleObject(collection)
	scope.Handle(iterable)

	adder, err := rt.lookupAdder(collection, adderName)
	if err != nil {
		return err
	}
	scope.Handle(adder)

	rec, err := rt.GetIterator(iterable)
	if err != nil {
		return err
	}
	scope.HandleObject(rec.Iterator)
	scope.Handle(rec.Next)

	marker := scope.CreateMarker()
	for {
		scope.FlushToMarker(marker)

		result, err := rt.IteratorStep(rec)
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		scope.HandleObject(result)

		elem, err := rt.IteratorValue(result)
		if err != nil {
			return err
		}
		scope.Handle(elem)

		args, err := feed(scope, elem)
		if err == nil {
			_, err = rt.Call(adder, collection.ToValue(), args...)
		}
		if err != nil {
			return rt.IteratorClose(rec, err)
		}
	}
}

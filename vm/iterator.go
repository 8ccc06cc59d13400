package vm

// ---------------------------------------------------------------------------
// Iterator protocol
// ---------------------------------------------------------------------------

// IteratorRecord is the state of one consumption of an iterable. It belongs
// to a single consumer and must not be shared.
type IteratorRecord struct {
	Iterator *Object
	Next     Value
	Done     bool
}

// GetIterator obtains an iterator from v by calling its @@iterator method.
func (rt *Runtime) GetIterator(v Value) (*IteratorRecord, error) {
	obj := v.Object()
	if obj == nil || obj.freed {
		return nil, &IterationError{Op: "get", Err: typeError(ErrNotIterable, 0, "%s is not iterable", v)}
	}

	method, err := rt.GetProperty(obj, SymbolIterator)
	if err != nil {
		return nil, &IterationError{Op: "get", Err: err}
	}
	if !method.IsCallable() {
		return nil, &IterationError{Op: "get", Err: typeError(ErrNotIterable, 0, "%s is not iterable", v)}
	}

	it, err := rt.Call(method, v)
	if err != nil {
		return nil, &IterationError{Op: "get", Err: err}
	}
	itObj := it.Object()
	if itObj == nil {
		return nil, &IterationError{Op: "get", Err: typeError(ErrNotObject, 0, "iterator is not an object: %s", it)}
	}

	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.HandleObject(itObj)

	next, err := rt.GetProperty(itObj, NameNext)
	if err != nil {
		return nil, &IterationError{Op: "get", Err: err}
	}
	return &IteratorRecord{Iterator: itObj, Next: next}, nil
}

// IteratorStep advances the iterator. It returns the result object, or nil
// once the iterator reports done. A failing step marks the record done;
// callers must not close it afterwards.
func (rt *Runtime) IteratorStep(rec *IteratorRecord) (*Object, error) {
	if rec.Done {
		return nil, nil
	}

	res, err := rt.Call(rec.Next, rec.Iterator.ToValue())
	if err != nil {
		rec.Done = true
		return nil, &IterationError{Op: "step", Err: err}
	}
	result := res.Object()
	if result == nil {
		rec.Done = true
		return nil, &IterationError{Op: "step", Err: typeError(ErrNotObject, 0, "iterator result is not an object: %s", res)}
	}

	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.HandleObject(result)

	done, err := rt.GetProperty(result, NameDone)
	if err != nil {
		rec.Done = true
		return nil, &IterationError{Op: "step", Err: err}
	}
	if done.IsTruthy() {
		rec.Done = true
		return nil, nil
	}
	return result, nil
}

// IteratorValue extracts the value of a step result.
func (rt *Runtime) IteratorValue(result *Object) (Value, error) {
	v, err := rt.GetProperty(result, NameValue)
	if err != nil {
		return Undefined, &IterationError{Op: "value", Err: err}
	}
	return v, nil
}

// IteratorClose terminates the iterator early by calling its "return"
// method, if it has one.
//
// pending is the failure that caused the early exit, or nil. When pending
// is non-nil it is always what the caller sees: a failing close is
// attached to it as an IteratorCloseError rather than replacing it.
func (rt *Runtime) IteratorClose(rec *IteratorRecord, pending error) error {
	rec.Done = true

	var closeErr error
	ret, err := rt.GetProperty(rec.Iterator, NameReturn)
	switch {
	case err != nil:
		closeErr = err
	case ret.IsNullish():
		return pending
	case !ret.IsCallable():
		closeErr = typeError(ErrNotCallable, 0, "iterator return is not a function: %s", ret)
	default:
		res, err := rt.Call(ret, rec.Iterator.ToValue())
		if err != nil {
			closeErr = err
		} else if !res.IsObject() && pending == nil {
			closeErr = typeError(ErrNotObject, 0, "iterator return result is not an object: %s", res)
		}
	}

	if pending != nil {
		if closeErr != nil {
			log.Debugf("iterator close failed while unwinding %v: %v", pending, closeErr)
			return &IteratorCloseError{Err: pending, CloseErr: closeErr}
		}
		return pending
	}
	if closeErr != nil {
		return &IterationError{Op: "close", Err: closeErr}
	}
	return nil
}

// CreateIterResult allocates a {value, done} step result.
func (rt *Runtime) CreateIterResult(value Value, done bool) *Object {
	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.Handle(value)

	obj := rt.NewObject()
	rt.DefineProperty(obj, NameValue, value, DefaultPropertyFlags)
	rt.DefineProperty(obj, NameDone, FromBool(done), DefaultPropertyFlags)
	return obj
}

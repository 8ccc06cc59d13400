package vm

import (
	"errors"
	"testing"
)

func drain(t *testing.T, rt *Runtime, iterable Value) []Value {
	t.Helper()
	rec, err := rt.GetIterator(iterable)
	if err != nil {
		t.Fatalf("GetIterator: %v", err)
	}
	var out []Value
	for {
		res, err := rt.IteratorStep(rec)
		if err != nil {
			t.Fatalf("IteratorStep: %v", err)
		}
		if res == nil {
			return out
		}
		v, err := rt.IteratorValue(res)
		if err != nil {
			t.Fatalf("IteratorValue: %v", err)
		}
		out = append(out, v)
	}
}

func TestArrayIteratorKinds(t *testing.T) {
	rt := NewRuntime()
	arr := rt.NewArray(FromString("a"), FromString("b"))

	vals := drain(t, rt, arr.ToValue())
	if len(vals) != 2 || !SameValue(vals[0], FromString("a")) || !SameValue(vals[1], FromString("b")) {
		t.Errorf("values = %v", vals)
	}

	keysFn, _ := rt.GetProperty(arr, NameKeys)
	keysIt, err := rt.Call(keysFn, arr.ToValue())
	if err != nil {
		t.Fatalf("keys(): %v", err)
	}
	next, _ := rt.GetProperty(keysIt.Object(), NameNext)
	rec := &IteratorRecord{Iterator: keysIt.Object(), Next: next}
	for want := 0; want < 2; want++ {
		res, err := rt.IteratorStep(rec)
		if err != nil || res == nil {
			t.Fatalf("keys step %d: %v, %v", want, res, err)
		}
		v, _ := rt.IteratorValue(res)
		if !SameValue(v, FromInt(want)) {
			t.Errorf("key %d = %v", want, v)
		}
	}

	entriesFn, _ := rt.GetProperty(arr, NameEntries)
	entriesIt, _ := rt.Call(entriesFn, arr.ToValue())
	next, _ = rt.GetProperty(entriesIt.Object(), NameNext)
	res, err := rt.IteratorStep(&IteratorRecord{Iterator: entriesIt.Object(), Next: next})
	if err != nil {
		t.Fatalf("entries step: %v", err)
	}
	entry, _ := rt.IteratorValue(res)
	k, _ := rt.Get(entry, "0")
	v, _ := rt.Get(entry, "1")
	if !SameValue(k, FromInt(0)) || !SameValue(v, FromString("a")) {
		t.Errorf("entry = [%v, %v]", k, v)
	}
}

func TestArrayIteratorSeesAppends(t *testing.T) {
	rt := NewRuntime()
	arr := rt.NewArray(FromInt(1))
	rec, _ := rt.GetIterator(arr.ToValue())

	rt.IteratorStep(rec)
	arr.Push(FromInt(2))
	res, err := rt.IteratorStep(rec)
	if err != nil || res == nil {
		t.Fatalf("step after push: %v, %v", res, err)
	}
	v, _ := rt.IteratorValue(res)
	if !SameValue(v, FromInt(2)) {
		t.Errorf("value = %v, want 2", v)
	}
	if res, _ := rt.IteratorStep(rec); res != nil || !rec.Done {
		t.Error("iterator should be exhausted")
	}
	// An exhausted iterator stays exhausted.
	arr.Push(FromInt(3))
	if res, _ := rt.IteratorStep(rec); res != nil {
		t.Error("exhausted iterator produced a value")
	}
}

func TestGetIteratorErrors(t *testing.T) {
	rt := NewRuntime()

	badIter := rt.NewObject()
	rt.DefineMethod(badIter, SymbolIterator, func(rt *Runtime, args NativeArgs) (Value, error) {
		return FromInt(1), nil
	}, 0)

	tests := []struct {
		name string
		arg  Value
		kind error
	}{
		{"primitive", FromInt(1), ErrNotIterable},
		{"no method", rt.NewObject().ToValue(), ErrNotIterable},
		{"iterator not object", badIter.ToValue(), ErrNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.GetIterator(tt.arg)
			var ie *IterationError
			if !errors.As(err, &ie) || ie.Op != "get" {
				t.Fatalf("error = %v, want get IterationError", err)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestIteratorStepNonObjectResult(t *testing.T) {
	rt := NewRuntime()
	it := rt.NewObject()
	next := rt.DefineMethod(it, NameNext, func(rt *Runtime, args NativeArgs) (Value, error) {
		return FromInt(7), nil
	}, 0)

	rec := &IteratorRecord{Iterator: it, Next: next.ToValue()}
	_, err := rt.IteratorStep(rec)
	if !errors.Is(err, ErrNotObject) {
		t.Errorf("error = %v, want ErrNotObject", err)
	}
	if !rec.Done {
		t.Error("failed step should mark the record done")
	}
}

func TestIteratorClose(t *testing.T) {
	original := errors.New("original")

	t.Run("no return method", func(t *testing.T) {
		rt := NewRuntime()
		rec := &IteratorRecord{Iterator: rt.NewObject()}
		if err := rt.IteratorClose(rec, original); err != original {
			t.Errorf("err = %v, want original", err)
		}
		if err := rt.IteratorClose(rec, nil); err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	})

	t.Run("return throws with pending error", func(t *testing.T) {
		rt := NewRuntime()
		it, _ := newProbeIterable(rt, nil, 0, true)
		rec, _ := rt.GetIterator(it.ToValue())
		err := rt.IteratorClose(rec, original)
		if !errors.Is(err, original) {
			t.Fatalf("err = %v, should unwrap to original", err)
		}
		var ce *IteratorCloseError
		if !errors.As(err, &ce) || ce.CloseErr == nil {
			t.Errorf("close failure not attached: %v", err)
		}
	})

	t.Run("return throws without pending error", func(t *testing.T) {
		rt := NewRuntime()
		it, _ := newProbeIterable(rt, nil, 0, true)
		rec, _ := rt.GetIterator(it.ToValue())
		err := rt.IteratorClose(rec, nil)
		var ie *IterationError
		if !errors.As(err, &ie) || ie.Op != "close" {
			t.Errorf("err = %v, want close IterationError", err)
		}
	})

	t.Run("return not callable", func(t *testing.T) {
		rt := NewRuntime()
		it := rt.NewObject()
		rt.DefineProperty(it, NameReturn, FromInt(1), DefaultPropertyFlags)
		err := rt.IteratorClose(&IteratorRecord{Iterator: it}, nil)
		if !errors.Is(err, ErrNotCallable) {
			t.Errorf("err = %v, want ErrNotCallable", err)
		}
	})

	t.Run("return result not object", func(t *testing.T) {
		rt := NewRuntime()
		it := rt.NewObject()
		rt.DefineMethod(it, NameReturn, func(rt *Runtime, args NativeArgs) (Value, error) {
			return Undefined, nil
		}, 0)
		rec := &IteratorRecord{Iterator: it}
		if err := rt.IteratorClose(rec, nil); !errors.Is(err, ErrNotObject) {
			t.Errorf("err = %v, want ErrNotObject", err)
		}
		if err := rt.IteratorClose(rec, original); err != original {
			t.Errorf("with pending: err = %v, want original", err)
		}
	})
}

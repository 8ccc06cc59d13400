package vm

import (
	"errors"
	"testing"
)

// probe records how a test iterable was driven.
type probe struct {
	iteratorCalls int
	steps         int
	closes        int
}

// newProbeIterable returns an iterable yielding vals through a hand-built
// iterator with next and return methods.
//
// failStep makes next throw on that step (1-based, 0 = never).
// failClose makes return throw.
func newProbeIterable(rt *Runtime, vals []Value, failStep int, failClose bool) (*Object, *probe) {
	p := &probe{}

	scope := rt.Heap().NewScope()
	defer scope.Close()

	items := scope.HandleObject(rt.NewArray(vals...))
	iterable := scope.HandleObject(rt.NewObject())
	rt.DefineProperty(iterable, "items", items.ToValue(), DefaultPropertyFlags)

	rt.DefineMethod(iterable, SymbolIterator, func(rt *Runtime, args NativeArgs) (Value, error) {
		p.iteratorCalls++
		src, err := rt.GetProperty(args.This.Object(), "items")
		if err != nil {
			return Undefined, err
		}

		it := rt.NewObject()
		rt.DefineProperty(it, "items", src, DefaultPropertyFlags)
		index := 0

		rt.DefineMethod(it, NameNext, func(rt *Runtime, args NativeArgs) (Value, error) {
			p.steps++
			if failStep > 0 && p.steps == failStep {
				return Undefined, Throw(FromString("step failed"))
			}
			arr, err := rt.GetProperty(args.This.Object(), "items")
			if err != nil {
				return Undefined, err
			}
			elems := arr.Object().elems
			if index >= len(elems) {
				return rt.CreateIterResult(Undefined, true).ToValue(), nil
			}
			v := elems[index]
			index++
			return rt.CreateIterResult(v, false).ToValue(), nil
		}, 0)

		rt.DefineMethod(it, NameReturn, func(rt *Runtime, args NativeArgs) (Value, error) {
			p.closes++
			if failClose {
				return Undefined, Throw(FromString("close failed"))
			}
			return rt.CreateIterResult(Undefined, true).ToValue(), nil
		}, 0)

		return it.ToValue(), nil
	}, 0)

	return iterable, p
}

// newObjects allocates n plain objects and pins them as roots.
func newObjects(rt *Runtime, n int) []*Object {
	objs := make([]*Object, n)
	for i := range objs {
		objs[i] = rt.NewObject()
		rt.Heap().AddRoot(objs[i])
	}
	return objs
}

func values(objs []*Object) []Value {
	vals := make([]Value, len(objs))
	for i, o := range objs {
		vals[i] = o.ToValue()
	}
	return vals
}

func mustHas(t *testing.T, rt *Runtime, set *Object, key *Object) bool {
	t.Helper()
	ok, err := rt.WeakSetHas(set.ToValue(), key.ToValue())
	if err != nil {
		t.Fatalf("WeakSetHas: %v", err)
	}
	return ok
}

func requireKind(t *testing.T, err error, kind error, arg int) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("error %v is not a *TypeError", err)
	}
	if te.Arg != arg {
		t.Errorf("TypeError.Arg = %d, want %d", te.Arg, arg)
	}
}

func thrownString(t *testing.T, err error) string {
	t.Helper()
	var ex *Exception
	if !errors.As(err, &ex) {
		t.Fatalf("error %v does not carry a thrown value", err)
	}
	if !ex.Value.IsString() {
		t.Fatalf("thrown value = %v, want a string", ex.Value)
	}
	return ex.Value.Str()
}

package vm

// NativeFunc is a Go function installed as a callable object.
type NativeFunc func(rt *Runtime, args NativeArgs) (Value, error)

// NativeArgs is the call frame handed to a NativeFunc.
type NativeArgs struct {
	This      Value
	Args      []Value
	NewTarget *Object // nil unless invoked through Construct
}

// Count returns the number of arguments actually passed.
func (a NativeArgs) Count() int { return len(a.Args) }

// Arg returns argument i, or Undefined if it was not passed.
func (a NativeArgs) Arg(i int) Value {
	if i < 0 || i >= len(a.Args) {
		return Undefined
	}
	return a.Args[i]
}

// IsConstructorCall reports whether the function was invoked as a
// constructor rather than called plainly.
func (a NativeArgs) IsConstructorCall() bool { return a.NewTarget != nil }

// ThisKind returns the receiver object if it has the given kind, else nil.
func (a NativeArgs) ThisKind(kind CellKind) *Object {
	return instanceOf(a.This, kind)
}

// ArgObject returns argument i if it is a live heap object, else nil.
func (a NativeArgs) ArgObject(i int) *Object {
	obj := a.Arg(i).Object()
	if obj == nil || obj.freed {
		return nil
	}
	return obj
}

// ---------------------------------------------------------------------------
// Function objects
// ---------------------------------------------------------------------------

// NewFunction allocates a callable object.
func (rt *Runtime) NewFunction(name string, arity int, fn NativeFunc) *Object {
	obj := rt.heap.allocate(FunctionKind, rt.FunctionPrototype)
	obj.native = fn
	obj.name = name
	obj.arity = arity
	return obj
}

// NewConstructor allocates a callable object that Construct accepts.
// Instances are allocated with the given kind before fn runs, with their
// prototype taken from the new target's "prototype" property.
func (rt *Runtime) NewConstructor(name string, arity int, kind CellKind, proto *Object, fn NativeFunc) *Object {
	scope := rt.heap.NewScope()
	defer scope.Close()

	obj := scope.HandleObject(rt.NewFunction(name, arity, fn))
	obj.ctor = true
	obj.ctorKind = kind
	if proto != nil {
		rt.DefineProperty(obj, NamePrototype, proto.ToValue(), 0)
		rt.DefineProperty(proto, NameConstructor, obj.ToValue(), MethodFlags)
	}
	return obj
}

// Call invokes fn with the given receiver. The callee, receiver and
// arguments stay rooted for the duration of the call.
func (rt *Runtime) Call(fn Value, this Value, args ...Value) (Value, error) {
	f := fn.Object()
	if f == nil || f.freed || f.native == nil {
		return Undefined, typeError(ErrNotCallable, ArgThis, "%s is not a function", fn)
	}

	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.Handle(fn)
	scope.Handle(this)
	for _, a := range args {
		scope.Handle(a)
	}

	return f.native(rt, NativeArgs{This: this, Args: args})
}

// Construct invokes ctor as a constructor.
func (rt *Runtime) Construct(ctor Value, args ...Value) (Value, error) {
	return rt.ConstructAs(ctor, ctor.Object(), args...)
}

// ConstructAs invokes ctor as a constructor with an explicit new target,
// whose "prototype" becomes the prototype of the new instance. This is
// how a derived constructor reuses a builtin one.
func (rt *Runtime) ConstructAs(ctor Value, newTarget *Object, args ...Value) (Value, error) {
	c := ctor.Object()
	if c == nil || c.freed || c.native == nil || !c.ctor {
		return Undefined, typeError(ErrNotCallable, ArgThis, "%s is not a constructor", ctor)
	}
	if newTarget == nil {
		newTarget = c
	}

	scope := rt.heap.NewScope()
	defer scope.Close()
	scope.Handle(ctor)
	scope.HandleObject(newTarget)
	for _, a := range args {
		scope.Handle(a)
	}

	protoVal, err := rt.GetProperty(newTarget, NamePrototype)
	if err != nil {
		return Undefined, err
	}
	// A getter may hand back an object nothing else references.
	scope.Handle(protoVal)
	proto := protoVal.Object()
	if proto == nil {
		proto = rt.ObjectPrototype
	}

	this := scope.HandleObject(rt.heap.allocate(c.ctorKind, proto))
	res, err := c.native(rt, NativeArgs{This: this.ToValue(), Args: args, NewTarget: newTarget})
	if err != nil {
		return Undefined, err
	}
	if res.IsObject() {
		return res, nil
	}
	return this.ToValue(), nil
}

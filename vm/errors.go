package vm

import (
	"errors"
	"fmt"
)

// Error kinds raised by the runtime. Match with errors.Is.
var (
	ErrInvocation   = errors.New("must be called as a constructor")
	ErrReceiverType = errors.New("incompatible receiver")
	ErrKeyType      = errors.New("invalid weak key")
	ErrNotCallable  = errors.New("not callable")
	ErrNotIterable  = errors.New("not iterable")
	ErrNotObject    = errors.New("not an object")
	ErrReadOnly     = errors.New("read-only property")
)

// ArgThis is the argument position reported for receiver errors.
const ArgThis = -1

// TypeError is a type failure with the argument position that triggered it.
type TypeError struct {
	Err     error // one of the Err* kinds
	Arg     int   // ArgThis for the receiver, 0-based otherwise
	Message string
}

func (e *TypeError) Error() string {
	if e.Message != "" {
		return "TypeError: " + e.Message
	}
	return "TypeError: " + e.Err.Error()
}

func (e *TypeError) Unwrap() error { return e.Err }

func typeError(kind error, arg int, format string, args ...any) *TypeError {
	return &TypeError{Err: kind, Arg: arg, Message: fmt.Sprintf(format, args...)}
}

// Exception carries a value thrown by native code.
type Exception struct {
	Value Value
}

func (e *Exception) Error() string {
	return "uncaught " + e.Value.String()
}

// Throw wraps v as an error so a NativeFunc can raise it.
func Throw(v Value) error {
	return &Exception{Value: v}
}

// IterationError is raised by the iterator protocol: the source is not
// iterable, the iterator misbehaved, or its own step logic failed.
type IterationError struct {
	Op  string // "get", "step", "value" or "close"
	Err error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("iterator %s: %v", e.Op, e.Err)
}

func (e *IterationError) Unwrap() error { return e.Err }

// IteratorCloseError is returned when closing an iterator after a failure
// also fails. Err is the original failure and is what Unwrap exposes;
// CloseErr is secondary detail.
type IteratorCloseError struct {
	Err      error
	CloseErr error
}

func (e *IteratorCloseError) Error() string {
	return fmt.Sprintf("%v (iterator close also failed: %v)", e.Err, e.CloseErr)
}

func (e *IteratorCloseError) Unwrap() error { return e.Err }

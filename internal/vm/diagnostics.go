package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xirelogy/go-jazz/internal/bytecode"
	"github.com/xirelogy/go-jazz/internal/compiler"
	"github.com/xirelogy/go-jazz/internal/parser"
)

// Sentinels for the runtime error categories. RuntimeError unwraps to one
// of them (or to the error a native returned).
var (
	ErrType             = errors.New("type error")
	ErrReference        = errors.New("reference error")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrInstructionLimit = errors.New("instruction limit exceeded")
	ErrInternal         = errors.New("internal error")
)

// ErrorKind classifies a runtime failure.
type ErrorKind int

const (
	InternalError ErrorKind = iota
	CompileError
	TypeError
	ReferenceError
	ResourceError
)

func (k ErrorKind) String() string {
	switch k {
	case CompileError:
		return "CompileError"
	case TypeError:
		return "TypeError"
	case ReferenceError:
		return "ReferenceError"
	case ResourceError:
		return "ResourceError"
	default:
		return "InternalError"
	}
}

// KindOf maps an error to its category.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrType):
		return TypeError
	case errors.Is(err, ErrReference):
		return ReferenceError
	case errors.Is(err, ErrStackOverflow), errors.Is(err, ErrInstructionLimit):
		return ResourceError
	case errors.Is(err, compiler.ErrCompile), errors.Is(err, parser.ErrSyntax):
		return CompileError
	default:
		return InternalError
	}
}

// Errorf builds an error of the category named by sentinel, for use by
// natives.
func Errorf(sentinel error, format string, args ...interface{}) error {
	return &kindError{sentinel: sentinel, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	sentinel error
	msg      string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.sentinel }

// TraceInfo describes a single instruction dispatch.
type TraceInfo struct {
	Op       byte
	Name     string
	Function string
	Source   string
	Line     int
	IP       int
	Depth    int
	SP       int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// FrameInfo captures a call frame at the time of an error.
type FrameInfo struct {
	Function string
	Source   string
	Line     int
	IP       int
}

// RuntimeError carries the category, location and stack of a failure.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Frame   FrameInfo
	Stack   []FrameInfo
	Cause   error
}

func (e *RuntimeError) Error() string {
	locParts := []string{}
	if e.Frame.Source != "" {
		if e.Frame.Line > 0 {
			locParts = append(locParts, fmt.Sprintf("%s:%d", e.Frame.Source, e.Frame.Line))
		} else {
			locParts = append(locParts, e.Frame.Source)
		}
	} else if e.Frame.Line > 0 {
		locParts = append(locParts, fmt.Sprintf("line %d", e.Frame.Line))
	}
	if e.Frame.Function != "" {
		locParts = append(locParts, fmt.Sprintf("in %s", e.Frame.Function))
	}
	loc := strings.Join(locParts, " ")
	if loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the category sentinel or the native's error.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// fail reports a VM-detected error of the given category at the current
// instruction.
func (vm *VM) fail(sentinel error, format string, args ...interface{}) error {
	return vm.newRuntimeError(fmt.Sprintf(format, args...), sentinel)
}

// wrapError attaches location information to an error raised by a native
// or a nested run. Errors that already carry it pass through unchanged.
func (vm *VM) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return err
	}
	return vm.newRuntimeError(err.Error(), err)
}

func (vm *VM) newRuntimeError(msg string, cause error) *RuntimeError {
	return &RuntimeError{
		Kind:    KindOf(cause),
		Message: msg,
		Frame:   frameInfo(vm.frame),
		Stack:   vm.stackTrace(),
		Cause:   cause,
	}
}

func (vm *VM) trace(fr *Frame, op byte) {
	if vm.traceHook == nil {
		return
	}
	info := frameInfo(fr)
	vm.traceHook(TraceInfo{
		Op:       op,
		Name:     bytecode.OpName(op),
		Function: info.Function,
		Source:   info.Source,
		Line:     info.Line,
		IP:       info.IP,
		Depth:    vm.depth,
		SP:       vm.sp,
	})
}

func (vm *VM) stackTrace() []FrameInfo {
	var trace []FrameInfo
	for fr := vm.frame; fr != nil; fr = fr.upper {
		trace = append(trace, frameInfo(fr))
	}
	return trace
}

func frameInfo(fr *Frame) FrameInfo {
	if fr == nil || fr.unit == nil {
		return FrameInfo{}
	}
	name := fr.fn.Name
	if name == "" {
		name = "<anon>"
	}
	return FrameInfo{
		Function: name,
		Source:   fr.unit.Source,
		Line:     fr.unit.LineAt(fr.lastOp),
		IP:       fr.lastOp,
	}
}

package jazz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/xirelogy/go-jazz/internal/builtins"
	"github.com/xirelogy/go-jazz/internal/compiler"
	"github.com/xirelogy/go-jazz/internal/gc"
	"github.com/xirelogy/go-jazz/internal/parser"
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"
	"github.com/xirelogy/go-jazz/internal/vm"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Sentinel errors, discoverable with errors.Is on any error an Engine
// returns.
var (
	ErrCompile          = compiler.ErrCompile
	ErrSyntax           = parser.ErrSyntax
	ErrType             = vm.ErrType
	ErrReference        = vm.ErrReference
	ErrStackOverflow    = vm.ErrStackOverflow
	ErrInstructionLimit = vm.ErrInstructionLimit
	ErrBusy             = errors.New("engine is busy")
)

// VmValue is a host-side copy of a script value. Strings and plain objects
// are copied out of the script heap; functions are referenced through a
// handle.
type VmValue struct {
	kind   ValueKind
	b      bool
	n      float64
	s      string
	obj    map[string]VmValue
	host   *VmFunction
	handle *VmFunctionHandle
}

// ArgError represents a typed argument validation error for host functions.
type ArgError struct {
	Name string
	Want string
	Got  string
}

func (e ArgError) Error() string {
	switch {
	case e.Name != "" && e.Want != "" && e.Got != "":
		return fmt.Sprintf("argument %q: want %s, got %s", e.Name, e.Want, e.Got)
	case e.Name != "" && e.Want != "":
		return fmt.Sprintf("argument %q: want %s", e.Name, e.Want)
	case e.Want != "" && e.Got != "":
		return fmt.Sprintf("want %s, got %s", e.Want, e.Got)
	default:
		return "argument error"
	}
}

// Unwrap classifies argument errors as type errors.
func (e ArgError) Unwrap() error { return vm.ErrType }

// Marshaler allows custom control over Go→jazz conversion.
type Marshaler interface {
	MarshalJazz() (VmValue, error)
}

// Unmarshaler allows custom control over jazz→Go conversion in Unmarshal.
type Unmarshaler interface {
	UnmarshalJazz(VmValue) error
}

// ValueKind mirrors the runtime value variants.
type ValueKind int

const (
	ValueUndefined ValueKind = iota
	ValueNull
	ValueBool
	ValueNumber
	ValueString
	ValueObject
	ValueFunction
)

// ErrorKind classifies a RuntimeError.
type ErrorKind int

const (
	InternalError  ErrorKind = ErrorKind(vm.InternalError)
	CompileError   ErrorKind = ErrorKind(vm.CompileError)
	TypeError      ErrorKind = ErrorKind(vm.TypeError)
	ReferenceError ErrorKind = ErrorKind(vm.ReferenceError)
	ResourceError  ErrorKind = ErrorKind(vm.ResourceError)
)

func (k ErrorKind) String() string {
	return vm.ErrorKind(k).String()
}

// FrameTrace describes a single frame in a runtime error or trace.
type FrameTrace struct {
	Function string
	Source   string
	Line     int
	IP       int
}

// RuntimeError is a source-aware error surfaced from compilation or
// execution.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Frame   FrameTrace
	Stack   []FrameTrace
	Cause   error
}

func (e *RuntimeError) Error() string {
	parts := []string{}
	if e.Frame.Source != "" {
		if e.Frame.Line > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", e.Frame.Source, e.Frame.Line))
		} else {
			parts = append(parts, e.Frame.Source)
		}
	} else if e.Frame.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Frame.Line))
	}
	if e.Frame.Function != "" {
		parts = append(parts, fmt.Sprintf("in %s", e.Frame.Function))
	}
	loc := strings.Join(parts, " ")
	if loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause (if any) for errors.Is/As.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// TraceInfo captures execution steps for debug hooks.
type TraceInfo struct {
	Op       byte
	Name     string
	Function string
	Source   string
	Line     int
	IP       int
	Depth    int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// GCStats reports collector counters.
type GCStats struct {
	Cycles     uint64
	Steps      uint64
	Objects    int
	Bytes      int
	Freed      uint64
	FreedBytes uint64
	LastCycle  time.Duration
}

func convertError(source string, err error) error {
	if err == nil {
		return nil
	}
	var rte *vm.RuntimeError
	if errors.As(err, &rte) {
		return &RuntimeError{
			Kind:    ErrorKind(rte.Kind),
			Message: rte.Message,
			Frame:   frameTraceFromVM(rte.Frame),
			Stack:   stackTraceFromVM(rte.Stack),
			Cause:   rte.Cause,
		}
	}
	if errors.Is(err, compiler.ErrCompile) || errors.Is(err, parser.ErrSyntax) {
		out := &RuntimeError{
			Kind:    CompileError,
			Message: err.Error(),
			Frame:   FrameTrace{Source: source},
			Cause:   err,
		}
		var ce *compiler.Error
		if errors.As(err, &ce) {
			out.Message = ce.Msg
			out.Frame.Line = ce.Pos.Line
		}
		return out
	}
	return err
}

func frameTraceFromVM(info vm.FrameInfo) FrameTrace {
	return FrameTrace{
		Function: info.Function,
		Source:   info.Source,
		Line:     info.Line,
		IP:       info.IP,
	}
}

func stackTraceFromVM(stack []vm.FrameInfo) []FrameTrace {
	if len(stack) == 0 {
		return nil
	}
	out := make([]FrameTrace, len(stack))
	for i, fr := range stack {
		out[i] = frameTraceFromVM(fr)
	}
	return out
}

// HostArgs provides typed accessors for host function arguments.
type HostArgs struct {
	args map[string]VmValue
}

// NewHostArgs wraps a host function argument map.
func NewHostArgs(args map[string]VmValue) HostArgs {
	return HostArgs{args: args}
}

// Value returns the named argument.
func (a HostArgs) Value(name string) (VmValue, error) {
	v, ok := a.args[name]
	if !ok {
		return VmValue{}, ArgError{Name: name, Want: "present"}
	}
	return v, nil
}

// Number returns the named argument as a number.
func (a HostArgs) Number(name string) (float64, error) {
	v, err := a.Value(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.Number()
	if !ok {
		return 0, ArgError{Name: name, Want: "number", Got: kindName(v.kind)}
	}
	return n, nil
}

// String returns the named argument as a string.
func (a HostArgs) String(name string) (string, error) {
	v, err := a.Value(name)
	if err != nil {
		return "", err
	}
	s, ok := v.String()
	if !ok {
		return "", ArgError{Name: name, Want: "string", Got: kindName(v.kind)}
	}
	return s, nil
}

// Bool returns the named argument as a boolean.
func (a HostArgs) Bool(name string) (bool, error) {
	v, err := a.Value(name)
	if err != nil {
		return false, err
	}
	b, ok := v.Bool()
	if !ok {
		return false, ArgError{Name: name, Want: "boolean", Got: kindName(v.kind)}
	}
	return b, nil
}

// Object returns the named argument as an object snapshot.
func (a HostArgs) Object(name string) (map[string]VmValue, error) {
	v, err := a.Value(name)
	if err != nil {
		return nil, err
	}
	obj, ok := v.Object()
	if !ok {
		return nil, ArgError{Name: name, Want: "object", Got: kindName(v.kind)}
	}
	return obj, nil
}

// Undefined returns the undefined value.
func Undefined() VmValue { return VmValue{kind: ValueUndefined} }

// Null returns the null value.
func Null() VmValue { return VmValue{kind: ValueNull} }

// NewValue converts a Go value into a VmValue. Slices become objects with
// index keys and a length property; structs become objects keyed by
// exported field name.
func NewValue(val any) (VmValue, error) {
	return marshalGoValue(val)
}

// MustValue is NewValue that panics on error.
func MustValue(val any) VmValue {
	v, err := NewValue(val)
	if err != nil {
		panic(err)
	}
	return v
}

// MarshalFunctionMap converts a map of Go functions into an object of
// callable functions. Supported signatures:
//
//	func(...) T
//	func(...) (T, error)
//	func(...) error
//	func(...), which returns undefined
func MarshalFunctionMap(funcs map[string]any) (VmValue, error) {
	if funcs == nil {
		return VmValue{}, errors.New("nil function map")
	}
	obj := make(map[string]VmValue, len(funcs))
	for name, fn := range funcs {
		host, err := vmFunctionFromFunc(name, fn)
		if err != nil {
			return VmValue{}, fmt.Errorf("marshal function %s: %w", name, err)
		}
		obj[name] = VmValue{kind: ValueFunction, host: host}
	}
	return VmValue{kind: ValueObject, obj: obj}, nil
}

// MustMarshalFunctionMap is MarshalFunctionMap that panics on error.
func MustMarshalFunctionMap(funcs map[string]any) VmValue {
	v, err := MarshalFunctionMap(funcs)
	if err != nil {
		panic(err)
	}
	return v
}

// Raw converts the value into plain Go data (nil, bool, float64, string,
// map[string]any). Functions cannot be converted.
func (v VmValue) Raw() (any, error) {
	return unmarshalToGo(v)
}

// MustRaw is Raw that panics on error.
func (v VmValue) MustRaw() any {
	raw, err := v.Raw()
	if err != nil {
		panic(err)
	}
	return raw
}

// AsFunction extracts a callable handle when the value is a script
// function returned from an Engine.
func (v VmValue) AsFunction() (*VmFunctionHandle, bool) {
	if v.kind != ValueFunction || v.handle == nil {
		return nil, false
	}
	return v.handle, true
}

// Kind reports the value variant.
func (v VmValue) Kind() ValueKind {
	return v.kind
}

func kindName(k ValueKind) string {
	switch k {
	case ValueUndefined:
		return "undefined"
	case ValueNull:
		return "null"
	case ValueBool:
		return "boolean"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueObject:
		return "object"
	case ValueFunction:
		return "function"
	default:
		return "unknown"
	}
}

// IsNull reports whether the value is null.
func (v VmValue) IsNull() bool {
	return v.kind == ValueNull
}

// IsUndefined reports whether the value is undefined.
func (v VmValue) IsUndefined() bool {
	return v.kind == ValueUndefined
}

func (v VmValue) Bool() (bool, bool) {
	if v.kind != ValueBool {
		return false, false
	}
	return v.b, true
}

func (v VmValue) Number() (float64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}
	return v.n, true
}

func (v VmValue) String() (string, bool) {
	if v.kind != ValueString {
		return "", false
	}
	return v.s, true
}

// Object returns the own properties of an object value.
func (v VmValue) Object() (map[string]VmValue, bool) {
	if v.kind != ValueObject {
		return nil, false
	}
	out := make(map[string]VmValue, len(v.obj))
	for k, el := range v.obj {
		out[k] = el
	}
	return out, true
}

// AttachFunction assigns a host function to a key on an object value.
func (v *VmValue) AttachFunction(key string, fn *VmFunction) error {
	if v == nil {
		return errors.New("nil VmValue")
	}
	if v.kind != ValueObject {
		return errors.New("AttachFunction requires object VmValue")
	}
	if fn == nil {
		return errors.New("nil function")
	}
	if v.obj == nil {
		v.obj = make(map[string]VmValue)
	}
	v.obj[key] = VmValue{kind: ValueFunction, host: fn}
	return nil
}

// Context is the execution context provided to host functions.
type Context struct {
	engine *Engine
}

// Call invokes a global script function from inside a host function.
func (c *Context) Call(name string, args ...VmValue) (VmValue, error) {
	if c == nil || c.engine == nil {
		return VmValue{}, errors.New("nil context")
	}
	e := c.engine
	vals, err := e.materializeAll(args)
	if err != nil {
		return VmValue{}, err
	}
	res, err := e.core.Call(name, vals)
	if err != nil {
		return VmValue{}, err
	}
	return e.snapshot(res), nil
}

// FunctionHandler is the Go-side implementation of a jazz function.
// Arguments are provided by name after validation against the declared
// parameter list.
type FunctionHandler func(ctx *Context, args map[string]VmValue) (VmValue, error)

// VmFunction describes a host-provided function, including its parameter
// list and handler.
type VmFunction struct {
	Params  []string
	Handler FunctionHandler
}

// NewFunction creates a host function from a parameter list and handler.
func NewFunction(params []string, handler FunctionHandler) *VmFunction {
	return &VmFunction{
		Params:  params,
		Handler: handler,
	}
}

// VmFunctionHandle keeps a script function alive for the host. Call
// Release once the handle is no longer needed.
type VmFunctionHandle struct {
	owner *Engine
	fn    *vm.Object
}

// Name is the function's declared name, if any.
func (h *VmFunctionHandle) Name() string {
	if h == nil || h.fn == nil {
		return ""
	}
	return h.fn.Name
}

// Call invokes the function on its owning engine.
func (h *VmFunctionHandle) Call(ctx context.Context, args ...VmValue) (VmValue, error) {
	if h == nil || h.fn == nil {
		return VmValue{}, errors.New("nil function handle")
	}
	if h.owner == nil {
		return VmValue{}, errors.New("function handle missing engine owner")
	}
	if err := ctx.Err(); err != nil {
		return VmValue{}, err
	}
	e := h.owner
	return e.exec("", func() (value.Value, error) {
		vals, err := e.materializeAll(args)
		if err != nil {
			return value.Undefined(), err
		}
		return e.core.CallValue(value.Obj(h.fn), vals)
	})
}

// Release unpins the function. The handle must not be used afterwards.
func (h *VmFunctionHandle) Release() {
	if h == nil || h.fn == nil || h.owner == nil {
		return
	}
	h.owner.core.Unpin(h.fn)
	h.fn = nil
}

func (fn *VmFunction) native(e *Engine) vm.NativeFunc {
	return func(_ *vm.VM, _ *vm.Object, args []value.Value) (value.Value, error) {
		if fn == nil || fn.Handler == nil {
			return value.Undefined(), errors.New("nil function handler")
		}
		if len(args) < len(fn.Params) {
			return value.Undefined(), vm.Errorf(vm.ErrType, "expected at least %d args, got %d", len(fn.Params), len(args))
		}
		argMap := make(map[string]VmValue, len(fn.Params))
		for i, name := range fn.Params {
			argMap[name] = e.snapshot(args[i])
		}
		res, err := fn.Handler(&Context{engine: e}, argMap)
		if err != nil {
			return value.Undefined(), err
		}
		return e.materialize(res)
	}
}

func vmFunctionFromFunc(name string, fn any) (*VmFunction, error) {
	if fn == nil {
		return nil, errors.New("nil function")
	}
	rv := reflect.ValueOf(fn)
	rt := rv.Type()
	if rt.Kind() != reflect.Func {
		return nil, fmt.Errorf("value of %s is not a function", name)
	}
	if rt.IsVariadic() {
		return nil, fmt.Errorf("function %s is variadic", name)
	}
	if rt.NumOut() > 2 {
		return nil, fmt.Errorf("function %s has too many return values (max 2)", name)
	}
	retValIndex := -1
	retErrIndex := -1
	switch rt.NumOut() {
	case 0:
	case 1:
		if rt.Out(0) == errorType {
			retErrIndex = 0
		} else {
			retValIndex = 0
		}
	case 2:
		if rt.Out(1) != errorType {
			return nil, fmt.Errorf("function %s second return value must be error", name)
		}
		retValIndex = 0
		retErrIndex = 1
	}

	paramNames := make([]string, rt.NumIn())
	for i := 0; i < len(paramNames); i++ {
		paramNames[i] = fmt.Sprintf("arg%d", i)
	}

	handler := func(_ *Context, args map[string]VmValue) (VmValue, error) {
		inputs := make([]reflect.Value, rt.NumIn())
		for i := 0; i < rt.NumIn(); i++ {
			arg, ok := args[paramNames[i]]
			if !ok {
				return VmValue{}, ArgError{Name: paramNames[i], Want: "present"}
			}
			val, err := convertVmValue(arg, rt.In(i))
			if err != nil {
				return VmValue{}, fmt.Errorf("argument %s: %w", paramNames[i], err)
			}
			inputs[i] = val
		}
		results := rv.Call(inputs)
		if retErrIndex >= 0 && !results[retErrIndex].IsNil() {
			return VmValue{}, results[retErrIndex].Interface().(error)
		}
		if retValIndex >= 0 {
			return marshalGoValue(results[retValIndex].Interface())
		}
		return Undefined(), nil
	}

	return &VmFunction{
		Params:  paramNames,
		Handler: handler,
	}, nil
}

// Options sizes a new Engine. Zero fields take the runtime defaults.
type Options struct {
	StackSize        int
	InstructionLimit int
	GCSpeed          int
	GCPause          int
	GCMinThreshold   int
	Output           io.Writer
}

// Engine compiles and runs scripts against one global object and heap.
// Calls are serialized: a second call while one is running fails with
// ErrBusy.
type Engine struct {
	core *vm.VM
	mu   sync.Mutex
	busy bool
}

// NewEngine constructs an engine with default sizes and the built-in
// library installed.
func NewEngine() *Engine {
	return NewEngineWithOptions(Options{})
}

// NewEngineWithOptions constructs an engine with explicit sizes.
func NewEngineWithOptions(opts Options) *Engine {
	cfg := vm.DefaultConfig()
	if opts.StackSize > 0 {
		cfg.StackSize = opts.StackSize
	}
	cfg.InstructionLimit = opts.InstructionLimit
	cfg.GC = gc.Config{
		Speed:        opts.GCSpeed,
		Pause:        opts.GCPause,
		MinThreshold: opts.GCMinThreshold,
	}
	core := vm.New(cfg)
	if opts.Output != nil {
		core.SetOutput(opts.Output)
	}
	runtime.Install(core)
	return &Engine{core: core}
}

// SetGlobalFunction binds a host function to a global name.
func (e *Engine) SetGlobalFunction(name string, fn *VmFunction) error {
	if e == nil || e.core == nil {
		return errors.New("nil engine")
	}
	if fn == nil {
		return errors.New("nil function")
	}
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()
	e.core.DefineNative(name, fn.native(e))
	return nil
}

// SetGlobal binds a value to a global name.
func (e *Engine) SetGlobal(name string, v VmValue) error {
	if e == nil || e.core == nil {
		return errors.New("nil engine")
	}
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()
	val, err := e.materialize(v)
	if err != nil {
		return err
	}
	e.core.DefineGlobal(name, val)
	return nil
}

// Global reads a global binding.
func (e *Engine) Global(name string) (VmValue, bool) {
	if e == nil || e.core == nil {
		return VmValue{}, false
	}
	v, ok := e.core.Global(name)
	if !ok {
		return VmValue{}, false
	}
	return e.snapshot(v), true
}

// HasFunction reports whether a callable global exists with the given name.
func (e *Engine) HasFunction(name string) bool {
	if e == nil || e.core == nil {
		return false
	}
	v, ok := e.core.Global(name)
	return ok && value.TypeOf(v) == "function"
}

// LoadFile compiles and runs a script file.
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return e.LoadSource(path, string(data))
}

// LoadSource compiles and runs a script, keeping its global definitions.
// The name is used in diagnostics (e.g., "inline" or a synthetic filename).
func (e *Engine) LoadSource(name string, src string) error {
	_, err := e.Eval(name, src)
	return err
}

// Eval compiles and runs a script and returns the value of its trailing
// expression statement (undefined otherwise).
func (e *Engine) Eval(name string, src string) (VmValue, error) {
	if e == nil || e.core == nil {
		return VmValue{}, errors.New("nil engine")
	}
	return e.exec(name, func() (value.Value, error) {
		unit, err := compiler.CompileSource(src, name)
		if err != nil {
			return value.Undefined(), err
		}
		return e.core.Run(unit)
	})
}

// Call resolves a global function by name and invokes it synchronously.
func (e *Engine) Call(ctx context.Context, name string, args ...VmValue) (VmValue, error) {
	if e == nil || e.core == nil {
		return VmValue{}, errors.New("nil engine")
	}
	if err := ctx.Err(); err != nil {
		return VmValue{}, err
	}
	return e.exec("", func() (value.Value, error) {
		return e.call(name, args)
	})
}

// SetInstructionLimit caps the number of instructions a single call may
// execute (0 for unlimited).
func (e *Engine) SetInstructionLimit(limit int) {
	if e == nil || e.core == nil {
		return
	}
	e.core.SetInstructionLimit(limit)
}

// SetOutput redirects print/write output.
func (e *Engine) SetOutput(w io.Writer) {
	if e == nil || e.core == nil {
		return
	}
	e.core.SetOutput(w)
}

// SetTraceHook attaches a debug hook that observes instruction dispatch.
func (e *Engine) SetTraceHook(h TraceHook) {
	if e == nil || e.core == nil {
		return
	}
	if h == nil {
		e.core.SetTraceHook(nil)
		return
	}
	e.core.SetTraceHook(func(info vm.TraceInfo) {
		h(TraceInfo{
			Op:       info.Op,
			Name:     info.Name,
			Function: info.Function,
			Source:   info.Source,
			Line:     info.Line,
			IP:       info.IP,
			Depth:    info.Depth,
		})
	})
}

// Collect runs a full garbage collection.
func (e *Engine) Collect() error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()
	e.core.Collect()
	return nil
}

// Stats reports collector counters.
func (e *Engine) Stats() GCStats {
	s := e.core.Collector().Stats()
	return GCStats{
		Cycles:     s.Cycles,
		Steps:      s.Steps,
		Objects:    s.Objects,
		Bytes:      s.Bytes,
		Freed:      s.Freed,
		FreedBytes: s.FreedBytes,
		LastCycle:  s.LastCycle,
	}
}

// Disassemble writes the bytecode of every global function.
func (e *Engine) Disassemble(w io.Writer) error {
	return e.core.Disassemble(w)
}

// VmCallFuture represents an in-flight engine call.
type VmCallFuture struct {
	ch <-chan VmCallResult
}

// VmCallResult is the outcome of an engine call.
type VmCallResult struct {
	Value VmValue
	Err   error
}

// Await waits for completion or context cancellation.
func (f VmCallFuture) Await(ctx context.Context) (VmValue, error) {
	select {
	case <-ctx.Done():
		return VmValue{}, ctx.Err()
	case res := <-f.ch:
		return res.Value, res.Err
	}
}

// CallAsync resolves a function by name and executes it on a separate
// goroutine. Only one call may be in flight.
func (e *Engine) CallAsync(ctx context.Context, name string, args []VmValue) VmCallFuture {
	ch := make(chan VmCallResult, 1)
	if err := e.acquire(); err != nil {
		ch <- VmCallResult{Err: err}
		close(ch)
		return VmCallFuture{ch: ch}
	}

	go func() {
		defer close(ch)
		defer e.release()
		select {
		case <-ctx.Done():
			ch <- VmCallResult{Err: ctx.Err()}
			return
		default:
		}
		res, err := e.call(name, args)
		if err != nil {
			ch <- VmCallResult{Err: convertError("", err)}
			return
		}
		ch <- VmCallResult{Value: e.snapshot(res)}
	}()
	return VmCallFuture{ch: ch}
}

func (e *Engine) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	return nil
}

func (e *Engine) release() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

func (e *Engine) exec(source string, fn func() (value.Value, error)) (VmValue, error) {
	if err := e.acquire(); err != nil {
		return VmValue{}, err
	}
	defer e.release()
	res, err := fn()
	if err != nil {
		return VmValue{}, convertError(source, err)
	}
	return e.snapshot(res), nil
}

func (e *Engine) call(name string, args []VmValue) (value.Value, error) {
	vals, err := e.materializeAll(args)
	if err != nil {
		return value.Undefined(), err
	}
	return e.core.Call(name, vals)
}

// materialize allocates v in the script heap. The collector only steps
// while bytecode runs, so the result stays valid until it is handed to
// the VM.
func (e *Engine) materialize(v VmValue) (value.Value, error) {
	switch v.kind {
	case ValueUndefined:
		return value.Undefined(), nil
	case ValueNull:
		return value.Null(), nil
	case ValueBool:
		return value.Bool(v.b), nil
	case ValueNumber:
		return value.Number(v.n), nil
	case ValueString:
		return e.core.NewString(v.s), nil
	case ValueObject:
		obj := e.core.NewObject()
		for k, el := range v.obj {
			val, err := e.materialize(el)
			if err != nil {
				return value.Undefined(), err
			}
			obj.Props[k] = val
		}
		return value.Obj(obj), nil
	case ValueFunction:
		if v.handle != nil {
			if v.handle.owner != e || v.handle.fn == nil {
				return value.Undefined(), errors.New("function handle belongs to another engine or was released")
			}
			return value.Obj(v.handle.fn), nil
		}
		return value.Obj(e.core.NewNative("", v.host.native(e))), nil
	default:
		return value.Undefined(), fmt.Errorf("unsupported value kind %d", v.kind)
	}
}

func (e *Engine) materializeAll(args []VmValue) ([]value.Value, error) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := e.materialize(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// snapshot copies v out of the script heap. Objects are copied by own
// properties; a cycle maps back onto the copy already in progress.
func (e *Engine) snapshot(v value.Value) VmValue {
	return e.snapshotSeen(v, map[*vm.Object]map[string]VmValue{})
}

func (e *Engine) snapshotSeen(v value.Value, seen map[*vm.Object]map[string]VmValue) VmValue {
	switch v.Kind {
	case value.KindUndefined:
		return Undefined()
	case value.KindBool:
		return VmValue{kind: ValueBool, b: v.B}
	case value.KindNumber:
		return VmValue{kind: ValueNumber, n: v.Num}
	case value.KindString:
		return VmValue{kind: ValueString, s: value.ToString(v)}
	}
	obj, ok := v.Ref.(*vm.Object)
	if !ok || obj == nil {
		return Null()
	}
	if obj.Callable() {
		e.core.Pin(obj)
		return VmValue{kind: ValueFunction, handle: &VmFunctionHandle{owner: e, fn: obj}}
	}
	if out, ok := seen[obj]; ok {
		return VmValue{kind: ValueObject, obj: out}
	}
	out := make(map[string]VmValue, len(obj.Props))
	seen[obj] = out
	for k, el := range obj.Props {
		out[k] = e.snapshotSeen(el, seen)
	}
	return VmValue{kind: ValueObject, obj: out}
}

func convertVmValue(src VmValue, targetType reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(targetType)
	if err := assignValue(src, ptr.Elem()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

// marshalGoValue converts common Go types into a VmValue.
func marshalGoValue(val any) (VmValue, error) {
	if m, ok := val.(Marshaler); ok {
		return m.MarshalJazz()
	}
	switch v := val.(type) {
	case VmValue:
		return v, nil
	case nil:
		return Null(), nil
	case bool:
		return VmValue{kind: ValueBool, b: v}, nil
	case int:
		return number(float64(v)), nil
	case int64:
		return number(float64(v)), nil
	case float64:
		return number(v), nil
	case string:
		return VmValue{kind: ValueString, s: v}, nil
	case error:
		return VmValue{kind: ValueString, s: v.Error()}, nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return VmValue{}, err
		}
		return number(n), nil
	case []VmValue:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = el
		}
		return marshalGoValue(out)
	case map[string]any:
		out := make(map[string]VmValue, len(v))
		for k, el := range v {
			mv, err := marshalGoValue(el)
			if err != nil {
				return VmValue{}, err
			}
			out[k] = mv
		}
		return VmValue{kind: ValueObject, obj: out}, nil
	case map[string]VmValue:
		out := make(map[string]VmValue, len(v))
		for k, el := range v {
			out[k] = el
		}
		return VmValue{kind: ValueObject, obj: out}, nil
	case *VmFunction:
		if v == nil {
			return Null(), nil
		}
		return VmValue{kind: ValueFunction, host: v}, nil
	case *VmFunctionHandle:
		if v == nil {
			return Null(), nil
		}
		return VmValue{kind: ValueFunction, handle: v}, nil
	default:
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return Null(), nil
			}
			return marshalGoValue(rv.Elem().Interface())
		}
		switch rv.Kind() {
		case reflect.Bool:
			return VmValue{kind: ValueBool, b: rv.Bool()}, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return number(float64(rv.Int())), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return number(float64(rv.Uint())), nil
		case reflect.Float32, reflect.Float64:
			return number(rv.Float()), nil
		case reflect.String:
			return VmValue{kind: ValueString, s: rv.String()}, nil
		case reflect.Func:
			host, err := vmFunctionFromFunc("", val)
			if err != nil {
				return VmValue{}, err
			}
			return VmValue{kind: ValueFunction, host: host}, nil
		case reflect.Slice, reflect.Array:
			if rv.Kind() == reflect.Slice && rv.IsNil() {
				return Null(), nil
			}
			out := make(map[string]VmValue, rv.Len()+1)
			for i := 0; i < rv.Len(); i++ {
				mv, err := marshalGoValue(rv.Index(i).Interface())
				if err != nil {
					return VmValue{}, err
				}
				out[strconv.Itoa(i)] = mv
			}
			out["length"] = number(float64(rv.Len()))
			return VmValue{kind: ValueObject, obj: out}, nil
		case reflect.Map:
			if rv.IsNil() {
				return Null(), nil
			}
			out := make(map[string]VmValue, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				key := iter.Key().Interface()
				var keyStr string
				switch k := key.(type) {
				case string:
					keyStr = k
				case fmt.Stringer:
					keyStr = k.String()
				default:
					keyStr = fmt.Sprint(k)
				}
				mv, err := marshalGoValue(iter.Value().Interface())
				if err != nil {
					return VmValue{}, err
				}
				out[keyStr] = mv
			}
			return VmValue{kind: ValueObject, obj: out}, nil
		case reflect.Struct:
			out := make(map[string]VmValue, rv.NumField())
			rt := rv.Type()
			for i := 0; i < rv.NumField(); i++ {
				field := rt.Field(i)
				if field.PkgPath != "" { // unexported
					continue
				}
				mv, err := marshalGoValue(rv.Field(i).Interface())
				if err != nil {
					return VmValue{}, err
				}
				out[field.Name] = mv
			}
			return VmValue{kind: ValueObject, obj: out}, nil
		}
		return VmValue{}, fmt.Errorf("unsupported value type %T", val)
	}
}

func number(n float64) VmValue {
	return VmValue{kind: ValueNumber, n: n}
}

// unmarshalToGo converts a VmValue into plain Go data for Raw().
func unmarshalToGo(v VmValue) (any, error) {
	switch v.kind {
	case ValueUndefined, ValueNull:
		return nil, nil
	case ValueBool:
		return v.b, nil
	case ValueNumber:
		return v.n, nil
	case ValueString:
		return v.s, nil
	case ValueObject:
		return unmarshalObject(v.obj, map[uintptr]map[string]any{})
	case ValueFunction:
		return nil, errors.New("Raw() not supported on function values; use AsFunction")
	default:
		return nil, fmt.Errorf("unsupported value kind %v", v.kind)
	}
}

func unmarshalObject(obj map[string]VmValue, seen map[uintptr]map[string]any) (map[string]any, error) {
	id := reflect.ValueOf(obj).Pointer()
	if out, ok := seen[id]; ok {
		return out, nil
	}
	out := make(map[string]any, len(obj))
	seen[id] = out
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		el := obj[k]
		if el.kind == ValueFunction {
			continue
		}
		var val any
		var err error
		if el.kind == ValueObject {
			val, err = unmarshalObject(el.obj, seen)
		} else {
			val, err = unmarshalToGo(el)
		}
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}

// Unmarshal assigns a VmValue into a Go target using reflection.
// Supports primitives, slices (from objects with a length), maps (string
// keys), structs, and Unmarshaler.
func Unmarshal(val VmValue, target any) error {
	if target == nil {
		return errors.New("nil target")
	}
	if u, ok := target.(Unmarshaler); ok {
		return u.UnmarshalJazz(val)
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("target must be non-nil pointer")
	}
	return assignValue(val, rv.Elem())
}

func assignValue(src VmValue, dst reflect.Value) error {
	if !dst.CanSet() {
		return errors.New("cannot set target")
	}
	if dst.CanAddr() {
		if u, ok := dst.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalJazz(src)
		}
	}
	switch dst.Kind() {
	case reflect.Interface:
		if dst.Type() == reflect.TypeOf(src) || (dst.NumMethod() == 0 && src.kind == ValueFunction) {
			dst.Set(reflect.ValueOf(src))
			return nil
		}
		raw, err := unmarshalToGo(src)
		if err != nil {
			return err
		}
		if raw == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		dst.Set(reflect.ValueOf(raw))
		return nil
	case reflect.Pointer:
		if src.kind == ValueNull || src.kind == ValueUndefined {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		ptr := reflect.New(dst.Type().Elem())
		if err := assignValue(src, ptr.Elem()); err != nil {
			return err
		}
		dst.Set(ptr)
		return nil
	case reflect.Bool:
		if src.kind != ValueBool {
			return ArgError{Want: "boolean", Got: kindName(src.kind)}
		}
		dst.SetBool(src.b)
		return nil
	case reflect.String:
		if src.kind != ValueString {
			return ArgError{Want: "string", Got: kindName(src.kind)}
		}
		dst.SetString(src.s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if src.kind != ValueNumber {
			return ArgError{Want: "number", Got: kindName(src.kind)}
		}
		dst.SetInt(int64(src.n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if src.kind != ValueNumber {
			return ArgError{Want: "number", Got: kindName(src.kind)}
		}
		dst.SetUint(uint64(src.n))
		return nil
	case reflect.Float32, reflect.Float64:
		if src.kind != ValueNumber {
			return ArgError{Want: "number", Got: kindName(src.kind)}
		}
		dst.SetFloat(src.n)
		return nil
	case reflect.Slice:
		n, err := arrayLength(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.MakeSlice(dst.Type(), n, n))
		for i := 0; i < n; i++ {
			if err := assignValue(src.obj[strconv.Itoa(i)], dst.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Array:
		n, err := arrayLength(src)
		if err != nil {
			return err
		}
		if n != dst.Len() {
			return fmt.Errorf("array length mismatch: have %d want %d", n, dst.Len())
		}
		for i := 0; i < n; i++ {
			if err := assignValue(src.obj[strconv.Itoa(i)], dst.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if src.kind != ValueObject {
			return ArgError{Want: "object", Got: kindName(src.kind)}
		}
		if dst.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("map keys must be string")
		}
		dst.Set(reflect.MakeMapWithSize(dst.Type(), len(src.obj)))
		for k, v := range src.obj {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := assignValue(v, elem); err != nil {
				return err
			}
			dst.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
		}
		return nil
	case reflect.Struct:
		if src.kind != ValueObject {
			return ArgError{Want: "object", Got: kindName(src.kind)}
		}
		rt := dst.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if field.PkgPath != "" { // unexported
				continue
			}
			if val, ok := src.obj[field.Name]; ok {
				if err := assignValue(val, dst.Field(i)); err != nil {
					return fmt.Errorf("field %s: %w", field.Name, err)
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported unmarshal target kind %s", dst.Kind())
	}
}

func arrayLength(src VmValue) (int, error) {
	if src.kind != ValueObject {
		return 0, ArgError{Want: "array-like object", Got: kindName(src.kind)}
	}
	n, ok := src.obj["length"].Number()
	if !ok || n < 0 || n != float64(int(n)) {
		return 0, ArgError{Want: "array-like object with a length", Got: "object"}
	}
	return int(n), nil
}

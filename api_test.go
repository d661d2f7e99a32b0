package jazz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type testCustomMarshaler struct{ V string }
type testCustomUnmarshaler struct{ V string }

var _ Marshaler = (*testCustomMarshaler)(nil)
var _ Unmarshaler = (*testCustomUnmarshaler)(nil)

func (c testCustomMarshaler) MarshalJazz() (VmValue, error) {
	return NewValue(map[string]any{"v": c.V})
}

func (c *testCustomUnmarshaler) UnmarshalJazz(v VmValue) error {
	obj, ok := v.Object()
	if !ok {
		return fmt.Errorf("expected object")
	}
	val, ok := obj["v"].String()
	if !ok {
		return fmt.Errorf("missing v")
	}
	c.V = val
	return nil
}

func mustEval(t *testing.T, e *Engine, src string) VmValue {
	t.Helper()
	v, err := e.Eval("inline", src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return v
}

func TestAPIScriptCall(t *testing.T) {
	e := NewEngine()
	err := e.LoadSource("inline", `function f(x) { return x + 1 }`)
	if err != nil {
		t.Fatalf("load source: %v", err)
	}
	res, err := e.Call(context.Background(), "f", MustValue(41))
	if err != nil {
		t.Fatalf("call error: %v", err)
	}
	if v, ok := res.MustRaw().(float64); !ok || v != 42 {
		t.Fatalf("expected 42, got %#v", res)
	}

	res, err = e.CallAsync(context.Background(), "f", []VmValue{MustValue(1)}).Await(context.Background())
	if err != nil {
		t.Fatalf("async call error: %v", err)
	}
	if v, ok := res.Number(); !ok || v != 2 {
		t.Fatalf("expected 2, got %#v", res)
	}
}

func TestAPIEndToEnd(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"while loop", `var i = 0; while (i < 3) { i = i + 1 } i`, 3.0},
		{"closure counter", `
function makeCounter() {
  var n = 0;
  return function () { n = n + 1; return n; };
}
var c = makeCounter();
c();
c()`, 2.0},
		{"switch fallthrough", `
var out = "";
switch (2) {
  case 1: out += "a";
  case 2: out += "b";
  default: out += "c";
}
out`, "bc"},
		{"object literal", `var o = {a: 1, b: {c: "x"}}; o`, map[string]any{"a": 1.0, "b": map[string]any{"c": "x"}}},
		{"typeof", `typeof function () {}`, "function"},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustEval(t, NewEngine(), tt.src).MustRaw()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAPIIndexingNonObjectIsTypeError(t *testing.T) {
	e := NewEngine()
	_, err := e.Eval("inline", `(5)[0]`)
	if err == nil {
		t.Fatalf("expected type error")
	}
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
	var rte *RuntimeError
	if !errors.As(err, &rte) {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if rte.Kind != TypeError {
		t.Fatalf("expected TypeError, got %v", rte.Kind)
	}
	if !strings.Contains(rte.Error(), "TypeError") {
		t.Fatalf("error text should name the kind: %q", rte.Error())
	}
}

func TestAPIHostFunctionBinding(t *testing.T) {
	e := NewEngine()
	host := NewFunction([]string{"x"}, func(ctx *Context, args map[string]VmValue) (VmValue, error) {
		val := args["x"].MustRaw().(float64)
		return NewValue(val + 1)
	})
	if err := e.SetGlobalFunction("inc", host); err != nil {
		t.Fatalf("set global: %v", err)
	}
	err := e.LoadSource("inline", `function run(v) { return inc(v) * 2 }`)
	if err != nil {
		t.Fatalf("load source: %v", err)
	}
	res, err := e.Call(context.Background(), "run", MustValue(4))
	if err != nil {
		t.Fatalf("call error: %v", err)
	}
	if v, ok := res.MustRaw().(float64); !ok || v != 10 {
		t.Fatalf("expected 10, got %#v", res)
	}
}

func TestAPIHasFunction(t *testing.T) {
	e := NewEngine()
	if e.HasFunction("missing") {
		t.Fatalf("expected missing to be false")
	}
	if err := e.LoadSource("inline", `function add(a, b) { return a + b } var n = 1;`); err != nil {
		t.Fatalf("load source: %v", err)
	}
	if !e.HasFunction("add") {
		t.Fatalf("expected add to be true")
	}
	if e.HasFunction("n") {
		t.Fatalf("expected non-function global to be false")
	}
	if !e.HasFunction("print") {
		t.Fatalf("expected built-in print to be installed")
	}
	host := NewFunction(nil, func(ctx *Context, args map[string]VmValue) (VmValue, error) {
		return MustValue(1), nil
	})
	if err := e.SetGlobalFunction("host", host); err != nil {
		t.Fatalf("set global: %v", err)
	}
	if !e.HasFunction("host") {
		t.Fatalf("expected host to be true")
	}
}

func TestAPIGlobals(t *testing.T) {
	e := NewEngine()
	cfg := MustValue(map[string]any{"scale": 3, "label": "x"})
	if err := e.SetGlobal("cfg", cfg); err != nil {
		t.Fatalf("set global: %v", err)
	}
	v := mustEval(t, e, `var out = cfg.label + cfg.scale * 2; out`)
	if s, ok := v.String(); !ok || s != "x6" {
		t.Fatalf("unexpected result %#v", v)
	}
	got, ok := e.Global("out")
	if !ok {
		t.Fatalf("expected global out")
	}
	if s, _ := got.String(); s != "x6" {
		t.Fatalf("unexpected global %#v", got)
	}
	if _, ok := e.Global("nope"); ok {
		t.Fatalf("unexpected global nope")
	}
}

func TestAPIHostInteropMarshaling(t *testing.T) {
	type point struct {
		X, Y int
		tag  string
	}
	e := NewEngine()
	if err := e.LoadSource("inline", `
function sum(xs) {
  var t = 0;
  for (var i = 0; i < xs.length; i++) t += xs[i];
  return t;
}
function norm1(p) { return p.X + p.Y }
function keys(m) { return m.a + m.b }`); err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		name string
		fn   string
		arg  any
		want float64
	}{
		{"slice", "sum", []int{1, 2, 3, 4}, 10},
		{"array", "sum", [2]float64{0.5, 0.25}, 0.75},
		{"struct", "norm1", point{X: 3, Y: 4, tag: "hidden"}, 7},
		{"pointer", "norm1", &point{X: 1, Y: 1}, 2},
		{"map", "keys", map[string]int{"a": 5, "b": 6}, 11},
		{"json number", "sum", []json.Number{"1.5", "2"}, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arg, err := NewValue(tt.arg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			res, err := e.Call(context.Background(), tt.fn, arg)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if n, ok := res.Number(); !ok || n != tt.want {
				t.Fatalf("expected %v, got %#v", tt.want, res)
			}
		})
	}

	if _, err := NewValue(make(chan int)); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if v := MustValue(errors.New("boom")); v.Kind() != ValueString {
		t.Fatalf("errors should marshal as strings, got %v", v.Kind())
	}
	if v := MustValue((*point)(nil)); !v.IsNull() {
		t.Fatalf("nil pointer should marshal as null")
	}
}

func TestAPIBuiltinsAutoRegistered(t *testing.T) {
	var out bytes.Buffer
	e := NewEngineWithOptions(Options{Output: &out})
	v := mustEval(t, e, `print("a", 1, true); write("b"); isNaN(0 / 0)`)
	if b, ok := v.Bool(); !ok || !b {
		t.Fatalf("expected isNaN(NaN) to be true, got %#v", v)
	}
	if got := out.String(); got != "a 1 true\nb" {
		t.Fatalf("unexpected output %q", got)
	}

	var other bytes.Buffer
	e.SetOutput(&other)
	mustEval(t, e, `print(indexRead({a: 1}, "b", "dflt"))`)
	if got := other.String(); got != "dflt\n" {
		t.Fatalf("unexpected redirected output %q", got)
	}
}

func TestAPIFunctionMapMarshal(t *testing.T) {
	funcs, err := MarshalFunctionMap(map[string]any{
		"add": func(a, b float64) float64 { return a + b },
		"greet": func(name string) (string, error) {
			if name == "" {
				return "", errors.New("empty name")
			}
			return "hi " + name, nil
		},
		"noop": func() {},
	})
	if err != nil {
		t.Fatalf("marshal function map: %v", err)
	}
	e := NewEngine()
	if err := e.SetGlobal("lib", funcs); err != nil {
		t.Fatalf("set global: %v", err)
	}
	v := mustEval(t, e, `lib.greet("bob") + ":" + lib.add(2, 3) + ":" + typeof lib.noop()`)
	if s, _ := v.String(); s != "hi bob:5:undefined" {
		t.Fatalf("unexpected result %#v", v)
	}

	_, err = e.Eval("inline", `lib.greet("")`)
	if err == nil || !strings.Contains(err.Error(), "empty name") {
		t.Fatalf("expected host error, got %v", err)
	}
	_, err = e.Eval("inline", `lib.add("x", 1)`)
	var argErr ArgError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgError for mistyped arg, got %v", err)
	}

	if _, err := MarshalFunctionMap(map[string]any{"bad": 1}); err == nil {
		t.Fatalf("expected error for non-function entry")
	}
	if _, err := MarshalFunctionMap(map[string]any{"bad": func(...int) {}}); err == nil {
		t.Fatalf("expected error for variadic function")
	}
}

func TestAPIAttachFunction(t *testing.T) {
	obj := MustValue(map[string]any{"n": 2})
	double := NewFunction([]string{"x"}, func(_ *Context, args map[string]VmValue) (VmValue, error) {
		n, err := NewHostArgs(args).Number("x")
		if err != nil {
			return VmValue{}, err
		}
		return NewValue(n * 2)
	})
	if err := obj.AttachFunction("double", double); err != nil {
		t.Fatalf("attach: %v", err)
	}
	num := MustValue(1)
	if err := num.AttachFunction("f", double); err == nil {
		t.Fatalf("expected error attaching to a number")
	}
	e := NewEngine()
	if err := e.SetGlobal("o", obj); err != nil {
		t.Fatalf("set global: %v", err)
	}
	v := mustEval(t, e, `o.double(o.n)`)
	if n, _ := v.Number(); n != 4 {
		t.Fatalf("expected 4, got %#v", v)
	}
	if _, err := obj.Raw(); err != nil {
		t.Fatalf("raw should skip functions: %v", err)
	}
}

func TestAPIReturnedFunctionHandle(t *testing.T) {
	e := NewEngine()
	v := mustEval(t, e, `
function adder(k) { return function add(x) { return x + k } }
adder(10)`)
	if v.Kind() != ValueFunction {
		t.Fatalf("expected function, got %v", v.Kind())
	}
	if _, err := v.Raw(); err == nil {
		t.Fatalf("expected Raw to refuse functions")
	}
	h, ok := v.AsFunction()
	if !ok {
		t.Fatalf("expected function handle")
	}
	if h.Name() != "add" {
		t.Fatalf("unexpected name %q", h.Name())
	}

	// The closure and its captured k must survive collection while the
	// handle is held.
	if err := e.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}
	res, err := h.Call(context.Background(), MustValue(5))
	if err != nil {
		t.Fatalf("call handle: %v", err)
	}
	if n, _ := res.Number(); n != 15 {
		t.Fatalf("expected 15, got %#v", res)
	}

	// Handles can be passed back into the engine.
	if err := e.LoadSource("inline", `function apply(f, x) { return f(x) }`); err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err = e.Call(context.Background(), "apply", v, MustValue(1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if n, _ := res.Number(); n != 11 {
		t.Fatalf("expected 11, got %#v", res)
	}

	h.Release()
	if _, err := h.Call(context.Background()); err == nil {
		t.Fatalf("expected error calling released handle")
	}
	if _, err := NewEngine().Call(context.Background(), "print", v); err == nil {
		t.Fatalf("expected error passing a handle to another engine")
	}
}

func TestAPIContextCall(t *testing.T) {
	e := NewEngine()
	if err := e.LoadSource("inline", `
function square(x) { return x * x }
function run(x) { return viaHost(x) + 1 }`); err != nil {
		t.Fatalf("load: %v", err)
	}
	host := NewFunction([]string{"x"}, func(ctx *Context, args map[string]VmValue) (VmValue, error) {
		return ctx.Call("square", args["x"])
	})
	if err := e.SetGlobalFunction("viaHost", host); err != nil {
		t.Fatalf("bind: %v", err)
	}
	res, err := e.Call(context.Background(), "run", MustValue(6))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if n, _ := res.Number(); n != 37 {
		t.Fatalf("expected 37, got %#v", res)
	}
}

func TestAPICompileErrors(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		name string
		src  string
		is   error
	}{
		{"syntax", `function (`, ErrSyntax},
		{"bad assignment target", `1 = 2`, ErrCompile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.LoadSource("broken", tt.src)
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
			var rte *RuntimeError
			if !errors.As(err, &rte) || rte.Kind != CompileError {
				t.Fatalf("expected CompileError, got %#v", err)
			}
			if rte.Frame.Source != "broken" {
				t.Fatalf("expected source broken, got %q", rte.Frame.Source)
			}
		})
	}
}

func TestAPIRuntimeErrorDiagnostics(t *testing.T) {
	e := NewEngine()
	src := `function inner(v) {
  return v.missing.deeper
}

function outer() {
  return inner({})
}`
	if err := e.LoadSource("diag", src); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := e.CallAsync(context.Background(), "outer", nil).Await(context.Background())
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	rte, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if rte.Kind != TypeError {
		t.Fatalf("expected TypeError, got %v", rte.Kind)
	}
	if rte.Frame.Function != "inner" {
		t.Fatalf("expected top frame inner, got %q", rte.Frame.Function)
	}
	if rte.Frame.Source != "diag" {
		t.Fatalf("expected source diag, got %q", rte.Frame.Source)
	}
	if rte.Frame.Line != 2 {
		t.Fatalf("expected line 2, got %d", rte.Frame.Line)
	}
	if len(rte.Stack) < 2 {
		t.Fatalf("expected at least 2 frames, got %d", len(rte.Stack))
	}
	if rte.Stack[1].Function != "outer" {
		t.Fatalf("expected caller outer, got %q", rte.Stack[1].Function)
	}

	_, err = e.Call(context.Background(), "nothing")
	if !errors.Is(err, ErrReference) {
		t.Fatalf("expected ErrReference for missing function, got %v", err)
	}
}

func TestAPITraceHook(t *testing.T) {
	e := NewEngine()
	var traces []TraceInfo
	e.SetTraceHook(func(info TraceInfo) {
		traces = append(traces, info)
	})
	if err := e.LoadSource("trace", `function demo() { return 1 + 2 }`); err != nil {
		t.Fatalf("load: %v", err)
	}
	traces = nil
	if _, err := e.Call(context.Background(), "demo"); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(traces) == 0 {
		t.Fatalf("expected trace events")
	}
	for _, tr := range traces {
		if tr.Function != "demo" {
			t.Fatalf("expected function demo in trace, got %q", tr.Function)
		}
		if tr.Source != "trace" {
			t.Fatalf("expected trace source, got %q", tr.Source)
		}
		if tr.Line == 0 {
			t.Fatalf("expected line info in trace")
		}
	}

	e.SetTraceHook(nil)
	traces = nil
	if _, err := e.Call(context.Background(), "demo"); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(traces) != 0 {
		t.Fatalf("expected no trace events after removing the hook")
	}
}

func TestAPIInstructionLimit(t *testing.T) {
	e := NewEngine()
	e.SetInstructionLimit(50)
	if err := e.LoadSource("limit", `function spin() { while (true) { } }`); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := e.CallAsync(context.Background(), "spin", nil).Await(context.Background())
	if err == nil {
		t.Fatalf("expected instruction limit error")
	}
	rte, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected RuntimeError, got %T", err)
	}
	if !errors.Is(err, ErrInstructionLimit) || rte.Kind != ResourceError {
		t.Fatalf("unexpected error %v (kind %v)", err, rte.Kind)
	}
	if rte.Frame.Function != "spin" {
		t.Fatalf("expected frame spin, got %q", rte.Frame.Function)
	}
}

func TestAPIStackOverflowRecovers(t *testing.T) {
	e := NewEngineWithOptions(Options{StackSize: 128})
	if err := e.LoadSource("deep", `function down(n) { return down(n + 1) } function ok() { return 7 }`); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := e.Call(context.Background(), "down", MustValue(0))
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
	res, err := e.Call(context.Background(), "ok")
	if err != nil {
		t.Fatalf("engine unusable after overflow: %v", err)
	}
	if n, _ := res.Number(); n != 7 {
		t.Fatalf("expected 7, got %#v", res)
	}
}

func TestAPIHostArgHelpersAndExtraArgs(t *testing.T) {
	e := NewEngine()
	script := `function run(a, b, c) { return host(a, b, c) }`
	if err := e.LoadSource("inline", script); err != nil {
		t.Fatalf("load: %v", err)
	}

	host := NewFunction([]string{"x", "y"}, func(_ *Context, args map[string]VmValue) (VmValue, error) {
		h := NewHostArgs(args)
		x, err := h.Number("x")
		if err != nil {
			return VmValue{}, err
		}
		y, err := h.String("y")
		if err != nil {
			return VmValue{}, err
		}
		return NewValue(fmt.Sprintf("%g:%s", x, y))
	})
	if err := e.SetGlobalFunction("host", host); err != nil {
		t.Fatalf("bind: %v", err)
	}

	val, err := e.Call(context.Background(), "run",
		MustValue(1),
		MustValue("two"),
		MustValue(true), // extra arg is ignored by the host binding
	)
	if err != nil {
		t.Fatalf("call error: %v", err)
	}
	if val.MustRaw() != "1:two" {
		t.Fatalf("unexpected result %#v", val.MustRaw())
	}

	_, err = e.Call(context.Background(), "run", MustValue("oops"), MustValue("two"), MustValue(true))
	if err == nil {
		t.Fatalf("expected error from bad host arg")
	}
	var argErr ArgError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgError, got %T", err)
	}
	if !errors.Is(err, ErrType) {
		t.Fatalf("argument errors should classify as type errors: %v", err)
	}

	_, err = e.Eval("inline", `host(1)`)
	if !errors.Is(err, ErrType) {
		t.Fatalf("expected type error for missing args, got %v", err)
	}
}

func TestAPIHostFunctionBlocksEngine(t *testing.T) {
	e := NewEngine()
	script := `function slowCall(x) { return host(x) }`
	if err := e.LoadSource("inline", script); err != nil {
		t.Fatalf("load: %v", err)
	}

	hostFn := NewFunction([]string{"v"}, func(_ *Context, args map[string]VmValue) (VmValue, error) {
		time.Sleep(30 * time.Millisecond)
		return args["v"], nil
	})
	if err := e.SetGlobalFunction("host", hostFn); err != nil {
		t.Fatalf("bind host: %v", err)
	}

	start := time.Now()
	res, err := e.CallAsync(context.Background(), "slowCall", []VmValue{MustValue(42)}).Await(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("call error: %v", err)
	}
	if res.MustRaw().(float64) != 42 {
		t.Fatalf("unexpected result %#v", res.MustRaw())
	}
	if elapsed < 25*time.Millisecond {
		t.Fatalf("expected blocking host call; elapsed %v too short", elapsed)
	}
}

func TestAPICallAsyncBusyProtection(t *testing.T) {
	e := NewEngine()
	script := `function slow() { return host() }`
	if err := e.LoadSource("inline", script); err != nil {
		t.Fatalf("load: %v", err)
	}
	hostFn := NewFunction(nil, func(_ *Context, _ map[string]VmValue) (VmValue, error) {
		time.Sleep(50 * time.Millisecond)
		return NewValue(1)
	})
	if err := e.SetGlobalFunction("host", hostFn); err != nil {
		t.Fatalf("bind host: %v", err)
	}

	fut1 := e.CallAsync(context.Background(), "slow", nil)
	fut2 := e.CallAsync(context.Background(), "slow", nil)

	_, err := fut2.Await(context.Background())
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy error on concurrent CallAsync, got %v", err)
	}

	val, err := fut1.Await(context.Background())
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if num, ok := val.Number(); !ok || num != 1 {
		t.Fatalf("unexpected result %v ok=%v", num, ok)
	}
}

func TestAPICanceledContext(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Call(ctx, "print"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	release := make(chan struct{})
	wait := NewFunction(nil, func(_ *Context, _ map[string]VmValue) (VmValue, error) {
		<-release
		return Undefined(), nil
	})
	if err := e.SetGlobalFunction("wait", wait); err != nil {
		t.Fatalf("bind: %v", err)
	}
	fut := e.CallAsync(context.Background(), "wait", nil)
	if _, err := fut.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from Await, got %v", err)
	}
	close(release)
	if _, err := fut.Await(context.Background()); err != nil {
		t.Fatalf("call should still complete: %v", err)
	}
}

func TestAPIGarbageCollection(t *testing.T) {
	e := NewEngineWithOptions(Options{GCSpeed: 2, GCPause: 100, GCMinThreshold: 512})
	v := mustEval(t, e, `
var keep = {items: 0};
function churn(n) {
  var last;
  for (var i = 0; i < n; i++) {
    last = {i: i, label: "item" + i};
    keep.items = keep.items + 1;
  }
  return last.label;
}
churn(2000)`)
	if s, _ := v.String(); s != "item1999" {
		t.Fatalf("unexpected result %#v", v)
	}
	if err := e.Collect(); err != nil {
		t.Fatalf("collect: %v", err)
	}
	stats := e.Stats()
	if stats.Cycles == 0 || stats.Freed == 0 {
		t.Fatalf("expected the collector to reclaim garbage: %+v", stats)
	}
	kept := mustEval(t, e, `keep.items`)
	if n, _ := kept.Number(); n != 2000 {
		t.Fatalf("reachable object lost state: %#v", kept)
	}
}

func TestAPILoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.js")
	if err := os.WriteFile(path, []byte(`function triple(x) { return x * 3 }`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := NewEngine()
	if err := e.LoadFile(path); err != nil {
		t.Fatalf("load file: %v", err)
	}
	res, err := e.Call(context.Background(), "triple", MustValue(3))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if n, _ := res.Number(); n != 9 {
		t.Fatalf("expected 9, got %#v", res)
	}
	if err := e.LoadFile(filepath.Join(dir, "missing.js")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestAPIDisassemble(t *testing.T) {
	e := NewEngine()
	if err := e.LoadSource("inline", `function add(a, b) { return a + b }`); err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := e.Disassemble(&buf); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "func add") || !strings.Contains(out, "OP_ADD") {
		t.Fatalf("unexpected disassembly:\n%s", out)
	}
	if !strings.Contains(out, "func print [native]") {
		t.Fatalf("expected natives in disassembly:\n%s", out)
	}
}

func TestAPIUnmarshal(t *testing.T) {
	type inner struct {
		C string
	}
	type target struct {
		A     int
		B     []float64
		Inner inner
		Ptr   *inner
		Tags  map[string]bool
		Any   any
		skip  int
	}
	e := NewEngine()
	v := mustEval(t, e, `({
  A: 7,
  B: {0: 1.5, 1: 2.5, length: 2},
  Inner: {C: "c"},
  Ptr: null,
  Tags: {x: true, y: false},
  Any: {k: "v"}
})`)
	var got target
	if err := Unmarshal(v, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := target{
		A:     7,
		B:     []float64{1.5, 2.5},
		Inner: inner{C: "c"},
		Tags:  map[string]bool{"x": true, "y": false},
		Any:   map[string]any{"k": "v"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(target{})); diff != "" {
		t.Fatalf("unmarshal mismatch (-want +got):\n%s", diff)
	}

	var custom testCustomUnmarshaler
	if err := Unmarshal(MustValue(testCustomMarshaler{V: "round"}), &custom); err != nil {
		t.Fatalf("custom unmarshal: %v", err)
	}
	if custom.V != "round" {
		t.Fatalf("unexpected custom value %q", custom.V)
	}

	var n int
	if err := Unmarshal(MustValue("x"), &n); err == nil {
		t.Fatalf("expected type mismatch error")
	}
	if err := Unmarshal(MustValue(1), n); err == nil {
		t.Fatalf("expected error for non-pointer target")
	}
	var xs []int
	if err := Unmarshal(MustValue(map[string]any{"0": 1}), &xs); err == nil {
		t.Fatalf("expected error for object without length")
	}
}

func TestAPISnapshotCycles(t *testing.T) {
	e := NewEngine()
	v := mustEval(t, e, `var a = {name: "a"}; a.self = a; a`)
	obj, ok := v.Object()
	if !ok {
		t.Fatalf("expected object")
	}
	self, ok := obj["self"].Object()
	if !ok {
		t.Fatalf("expected self reference to be an object")
	}
	if s, _ := self["name"].String(); s != "a" {
		t.Fatalf("unexpected self.name %#v", self["name"])
	}
	raw, err := v.Raw()
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if raw.(map[string]any)["name"] != "a" {
		t.Fatalf("unexpected raw %#v", raw)
	}
}

func TestAPIValueAccessors(t *testing.T) {
	if !Undefined().IsUndefined() || !Null().IsNull() {
		t.Fatalf("constructors mismatch")
	}
	if _, ok := MustValue(1).String(); ok {
		t.Fatalf("number should not read as string")
	}
	if _, ok := MustValue("s").Bool(); ok {
		t.Fatalf("string should not read as bool")
	}
	if b, ok := MustValue(true).Bool(); !ok || !b {
		t.Fatalf("bool accessor mismatch")
	}
	type myInt int64
	if n, ok := MustValue(myInt(9)).Number(); !ok || n != 9 {
		t.Fatalf("named int should marshal as number")
	}
	if n, ok := MustValue(uint8(200)).Number(); !ok || n != 200 {
		t.Fatalf("uint8 should marshal as number")
	}
	if _, err := NewHostArgs(nil).Value("x"); err == nil {
		t.Fatalf("expected missing arg error")
	}
	if got := (ArgError{Name: "x", Want: "number", Got: "string"}).Error(); got != `argument "x": want number, got string` {
		t.Fatalf("unexpected ArgError text %q", got)
	}
	if got := MustValue([]string{"a"}).MustRaw(); !cmp.Equal(got, map[string]any{"0": "a", "length": 1.0}) {
		t.Fatalf("unexpected slice raw %#v", got)
	}
}

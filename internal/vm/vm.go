package vm

import (
	"io"
	"math"
	"os"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-jazz/internal/bytecode"
	"github.com/xirelogy/go-jazz/internal/gc"
	"github.com/xirelogy/go-jazz/internal/value"
)

var log = commonlog.GetLogger("jazz.vm")

// DefaultStackSize is the number of value slots on the execution stack.
const DefaultStackSize = 4096

// Config sizes a VM.
type Config struct {
	StackSize        int
	InstructionLimit int
	GC               gc.Config
}

// DefaultConfig returns the stock sizes.
func DefaultConfig() Config {
	return Config{StackSize: DefaultStackSize, GC: gc.DefaultConfig()}
}

// Frame is one activation. Its locals occupy stack[base:base+LocalCount];
// the operand stack grows above them.
type Frame struct {
	upper  *Frame
	fn     *Object
	unit   *bytecode.Unit
	base   int
	ip     int
	lastOp int

	// box holds the cells this call owns (nil if none); env is the
	// environment closures created here capture.
	box   *Box
	env   *Box
	cells []*value.Value

	// boundary frames return their value to the host instead of pushing it.
	boundary bool
}

// VM is a stack-based bytecode interpreter sharing its heap with a
// collector. It is not safe for concurrent use.
type VM struct {
	stack  []value.Value
	sp     int
	frame  *Frame
	depth  int
	argBuf []value.Value

	heap          *gc.Collector
	global        *Object
	objectProto   *Object
	functionProto *Object
	typeNames     map[string]*value.String
	pins          map[value.HeapObject]int

	out       io.Writer
	traceHook TraceHook
	instLimit int
	instCount int
}

// New constructs a VM with its own collector and global object.
func New(cfg Config) *VM {
	if cfg.StackSize <= 0 {
		cfg.StackSize = DefaultStackSize
	}
	vm := &VM{
		stack:     make([]value.Value, cfg.StackSize),
		typeNames: make(map[string]*value.String),
		pins:      make(map[value.HeapObject]int),
		out:       os.Stdout,
	}
	vm.SetInstructionLimit(cfg.InstructionLimit)
	vm.heap = gc.New(vm, cfg.GC)

	vm.objectProto = vm.newObject("Object", nil)
	vm.functionProto = vm.newObject("Function", vm.objectProto)
	vm.global = vm.newObject("global", vm.objectProto)
	vm.global.Props["undefined"] = value.Undefined()
	vm.global.Props["NaN"] = value.Number(math.NaN())
	vm.global.Props["Infinity"] = value.Number(math.Inf(1))

	for _, name := range []string{"undefined", "boolean", "number", "string", "object", "function"} {
		vm.typeNames[name] = value.StaticString(name)
	}
	return vm
}

// SetTraceHook registers a callback for instruction-level tracing.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// SetInstructionLimit caps the number of instructions executed per
// outermost Run/Call (0 for unlimited).
func (vm *VM) SetInstructionLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	vm.instLimit = limit
}

// SetOutput redirects what the print built-ins write.
func (vm *VM) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	vm.out = w
}

// Output is the writer used by the print built-ins.
func (vm *VM) Output() io.Writer {
	return vm.out
}

// Collector exposes the VM's garbage collector.
func (vm *VM) Collector() *gc.Collector {
	return vm.heap
}

// Collect runs a full synchronous collection.
func (vm *VM) Collect() {
	vm.heap.Collect()
}

// MarkRoots implements gc.RootSet.
func (vm *VM) MarkRoots(m value.Marker) {
	for i := 0; i < vm.sp; i++ {
		m.MarkValue(vm.stack[i])
	}
	for fr := vm.frame; fr != nil; fr = fr.upper {
		m.MarkObject(fr.fn)
		if fr.box != nil {
			m.MarkObject(fr.box)
		}
		if fr.env != nil {
			m.MarkObject(fr.env)
		}
		for _, c := range fr.unit.Constants {
			m.MarkValue(c)
		}
	}
	m.MarkObject(vm.global)
	m.MarkObject(vm.objectProto)
	m.MarkObject(vm.functionProto)
	for o := range vm.pins {
		m.MarkObject(o)
	}
}

// Run executes a compiled program unit against the global object.
func (vm *VM) Run(unit *bytecode.Unit) (value.Value, error) {
	if unit == nil {
		return value.Undefined(), vm.fail(ErrInternal, "nil unit")
	}
	fn := vm.newFunction(unit, nil, nil)
	log.Debugf("run %s", fn.Name)
	res, err := vm.invoke(value.Obj(fn), nil)
	if err != nil {
		log.Debugf("run %s failed: %s", fn.Name, err)
		return res, err
	}
	log.Debugf("run %s finished after %d instructions", fn.Name, vm.instCount)
	return res, nil
}

// Call invokes a global function by name.
func (vm *VM) Call(name string, args []value.Value) (value.Value, error) {
	fn, ok := vm.global.Props[name]
	if !ok {
		return value.Undefined(), vm.fail(ErrReference, "%s is not defined", name)
	}
	return vm.invoke(fn, args)
}

// CallValue invokes fn with args. Natives may use it to call back into
// script code; heap values they still need must stay reachable (on the
// stack, in globals or pinned) across the call.
func (vm *VM) CallValue(fn value.Value, args []value.Value) (value.Value, error) {
	return vm.invoke(fn, args)
}

func (vm *VM) invoke(callee value.Value, args []value.Value) (value.Value, error) {
	sp0, frame0, depth0 := vm.sp, vm.frame, vm.depth
	if frame0 == nil {
		vm.instCount = 0
	}
	if sp0+1+len(args) > len(vm.stack) {
		return value.Undefined(), vm.fail(ErrStackOverflow, "stack overflow")
	}
	vm.push(callee)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.call(len(args), true); err != nil {
		vm.unwind(sp0, frame0, depth0)
		return value.Undefined(), err
	}
	if vm.frame == frame0 {
		// native: the result replaced the callee
		return vm.pop(), nil
	}
	res, err := vm.execute()
	if err != nil {
		vm.unwind(sp0, frame0, depth0)
		return value.Undefined(), err
	}
	return res, nil
}

func (vm *VM) unwind(sp int, fr *Frame, depth int) {
	for i := sp; i < vm.sp; i++ {
		vm.stack[i] = value.Undefined()
	}
	vm.sp = sp
	vm.frame = fr
	vm.depth = depth
}

// call dispatches the callee sitting below argc arguments.
func (vm *VM) call(argc int, boundary bool) error {
	calleeSlot := vm.sp - argc - 1
	callee := vm.stack[calleeSlot]
	fn := asObject(callee)
	if fn == nil || !fn.Callable() {
		return vm.fail(ErrType, "%s is not a function", describe(callee))
	}
	if fn.Native != nil {
		res, err := fn.Native(vm, fn, vm.stack[calleeSlot+1:vm.sp])
		if err != nil {
			return vm.wrapError(err)
		}
		vm.sp = calleeSlot
		vm.push(res)
		return nil
	}
	return vm.enter(fn, calleeSlot, argc, boundary)
}

func (vm *VM) enter(fn *Object, calleeSlot, argc int, boundary bool) error {
	u := fn.Unit
	base := calleeSlot + 1
	top := base + u.LocalCount
	if top > len(vm.stack) {
		return vm.fail(ErrStackOverflow, "stack overflow calling %s", functionName(fn))
	}

	args := append(vm.argBuf[:0], vm.stack[base:base+argc]...)
	for i := base; i < top || i < base+argc; i++ {
		vm.stack[i] = value.Undefined()
	}

	fr := &Frame{
		upper:    vm.frame,
		fn:       fn,
		unit:     u,
		base:     base,
		lastOp:   -1,
		env:      fn.Env,
		boundary: boundary,
	}
	if u.ClosureVarCount > 0 {
		inherited := u.Inherited()
		fr.cells = make([]*value.Value, u.ClosureVarCount)
		copy(fr.cells[:inherited], fn.Cells)
		if u.ClosureLocalCount > 0 {
			box := &Box{
				Header: value.Header{Type: value.TypeBox},
				Cells:  make([]value.Value, u.ClosureLocalCount),
				Parent: fn.Env,
			}
			vm.heap.Alloc(box)
			fr.box, fr.env = box, box
			for i := range box.Cells {
				fr.cells[inherited+i] = &box.Cells[i]
			}
		}
	}
	for i, slot := range u.Params {
		v := value.Undefined()
		if i < argc {
			v = args[i]
		}
		if slot.Closure {
			*fr.cells[slot.Index] = v
		} else {
			vm.stack[base+slot.Index] = v
		}
	}
	for i := range args {
		args[i] = value.Undefined()
	}
	vm.argBuf = args

	vm.sp = top
	vm.frame = fr
	vm.depth++
	return nil
}

// leave pops the current frame. It reports true when the frame was a
// host boundary, in which case result is not pushed.
func (vm *VM) leave(result value.Value) bool {
	fr := vm.frame
	for i := fr.base - 1; i < vm.sp; i++ {
		vm.stack[i] = value.Undefined()
	}
	vm.sp = fr.base - 1
	vm.frame = fr.upper
	vm.depth--
	if fr.boundary {
		return true
	}
	vm.push(result)
	return false
}

// pushes is the most slots each opcode can add to the operand stack.
var pushes [256]int

func init() {
	for _, op := range []byte{
		bytecode.OP_CONST, bytecode.OP_UNDEFINED, bytecode.OP_NULL, bytecode.OP_TRUE,
		bytecode.OP_FALSE, bytecode.OP_DUP, bytecode.OP_DUP_X2, bytecode.OP_GET_GLOBAL,
		bytecode.OP_GET_LOCAL, bytecode.OP_GET_CLOSURE, bytecode.OP_NEW_OBJECT,
		bytecode.OP_CLOSURE,
	} {
		pushes[op] = 1
	}
	pushes[bytecode.OP_DUP2] = 2
}

func (vm *VM) execute() (value.Value, error) {
	for {
		fr := vm.frame
		code := fr.unit.Code
		if fr.ip >= len(code) {
			if vm.leave(value.Undefined()) {
				return value.Undefined(), nil
			}
			continue
		}

		vm.heap.Tick()

		fr.lastOp = fr.ip
		op := code[fr.ip]
		fr.ip++
		vm.instCount++
		if vm.instLimit > 0 && vm.instCount > vm.instLimit {
			return value.Undefined(), vm.fail(ErrInstructionLimit, "instruction limit %d exceeded", vm.instLimit)
		}
		vm.trace(fr, op)
		if vm.sp+pushes[op] > len(vm.stack) {
			return value.Undefined(), vm.fail(ErrStackOverflow, "stack overflow")
		}

		switch op {
		case bytecode.OP_NOP:
		case bytecode.OP_CONST:
			vm.push(fr.unit.Constants[vm.readU16(fr)])
		case bytecode.OP_UNDEFINED:
			vm.push(value.Undefined())
		case bytecode.OP_NULL:
			vm.push(value.Null())
		case bytecode.OP_TRUE:
			vm.push(value.Bool(true))
		case bytecode.OP_FALSE:
			vm.push(value.Bool(false))
		case bytecode.OP_POP:
			vm.sp--
		case bytecode.OP_DUP:
			vm.push(vm.stack[vm.sp-1])
		case bytecode.OP_DUP2:
			a, b := vm.stack[vm.sp-2], vm.stack[vm.sp-1]
			vm.push(a)
			vm.push(b)
		case bytecode.OP_DUP_X2:
			// a k v -> v a k v
			s, sp := vm.stack, vm.sp
			v := s[sp-1]
			s[sp] = v
			s[sp-1] = s[sp-2]
			s[sp-2] = s[sp-3]
			s[sp-3] = v
			vm.sp++

		case bytecode.OP_ADD:
			b := vm.pop()
			a := vm.pop()
			if a.Kind == value.KindString || b.Kind == value.KindString {
				vm.push(vm.NewString(value.ToString(a) + value.ToString(b)))
			} else {
				vm.push(value.Number(value.ToNumber(a) + value.ToNumber(b)))
			}
		case bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_MOD:
			b := value.ToNumber(vm.pop())
			a := value.ToNumber(vm.pop())
			vm.push(value.Number(arith(op, a, b)))
		case bytecode.OP_NEG:
			vm.push(value.Number(-value.ToNumber(vm.pop())))
		case bytecode.OP_TO_NUM:
			vm.push(value.Number(value.ToNumber(vm.pop())))
		case bytecode.OP_NOT:
			vm.push(value.Bool(!value.Truthy(vm.pop())))
		case bytecode.OP_BW_NOT:
			vm.push(value.Number(float64(^value.ToInt32(vm.pop()))))
		case bytecode.OP_BW_AND, bytecode.OP_BW_OR, bytecode.OP_BW_XOR,
			bytecode.OP_LSHIFT, bytecode.OP_RSHIFT, bytecode.OP_URSHIFT:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Number(bitwise(op, a, b)))
		case bytecode.OP_TYPEOF:
			vm.push(value.Str(vm.typeNames[value.TypeOf(vm.pop())]))

		case bytecode.OP_EQ, bytecode.OP_NEQ:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.LooseEqual(a, b) == (op == bytecode.OP_EQ)))
		case bytecode.OP_STRICT_EQ, bytecode.OP_STRICT_NEQ:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(value.StrictEqual(a, b) == (op == bytecode.OP_STRICT_EQ)))
		case bytecode.OP_LT, bytecode.OP_LTE, bytecode.OP_GT, bytecode.OP_GTE:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(relational(op, a, b)))

		case bytecode.OP_GET_GLOBAL:
			name := vm.constName(fr)
			v, ok := vm.global.Props[name]
			if !ok {
				return value.Undefined(), vm.fail(ErrReference, "%s is not defined", name)
			}
			vm.push(v)
		case bytecode.OP_SET_GLOBAL:
			name := vm.constName(fr)
			v := vm.pop()
			vm.heap.Barrier(vm.global, v)
			vm.global.Props[name] = v
		case bytecode.OP_DEFINE_GLOBAL:
			name := vm.constName(fr)
			if _, ok := vm.global.Props[name]; !ok {
				vm.global.Props[name] = value.Undefined()
			}
		case bytecode.OP_GET_LOCAL:
			vm.push(vm.stack[fr.base+vm.readU16(fr)])
		case bytecode.OP_SET_LOCAL:
			idx := vm.readU16(fr)
			vm.stack[fr.base+idx] = vm.pop()
		case bytecode.OP_GET_CLOSURE:
			vm.push(*fr.cells[vm.readU16(fr)])
		case bytecode.OP_SET_CLOSURE:
			idx := vm.readU16(fr)
			v := vm.pop()
			if idx >= fr.unit.Inherited() {
				vm.heap.Barrier(fr.box, v)
			} else {
				// owned by an ancestor's box
				vm.heap.Barrier(nil, v)
			}
			*fr.cells[idx] = v

		case bytecode.OP_NEW_OBJECT:
			vm.push(value.Obj(vm.NewObject()))
		case bytecode.OP_INDEX:
			key := vm.pop()
			base := vm.pop()
			obj := asObject(base)
			if obj == nil {
				return value.Undefined(), vm.fail(ErrType, "cannot read property %q of %s", value.ToString(key), describe(base))
			}
			vm.push(obj.Get(value.ToString(key)))
		case bytecode.OP_INDEX_STORE:
			v := vm.pop()
			key := vm.pop()
			base := vm.pop()
			obj := asObject(base)
			if obj == nil {
				return value.Undefined(), vm.fail(ErrType, "cannot set property %q of %s", value.ToString(key), describe(base))
			}
			vm.heap.Barrier(obj, v)
			obj.Props[value.ToString(key)] = v

		case bytecode.OP_JUMP:
			off := int(bytecode.ReadI32(code, fr.ip))
			fr.ip += 4 + off
		case bytecode.OP_JUMP_IF, bytecode.OP_JUMP_UNLESS:
			off := int(bytecode.ReadI32(code, fr.ip))
			fr.ip += 4
			if value.Truthy(vm.pop()) == (op == bytecode.OP_JUMP_IF) {
				fr.ip += off
			}

		case bytecode.OP_CALL:
			argc := vm.readU16(fr)
			if err := vm.call(argc, false); err != nil {
				return value.Undefined(), err
			}
		case bytecode.OP_RET:
			res := vm.pop()
			if vm.leave(res) {
				return res, nil
			}
		case bytecode.OP_END:
			if vm.leave(value.Undefined()) {
				return value.Undefined(), nil
			}
		case bytecode.OP_CLOSURE:
			tpl, ok := fr.unit.Constants[vm.readU16(fr)].Ref.(*bytecode.Template)
			if !ok {
				return value.Undefined(), vm.fail(ErrInternal, "closure constant is not a template")
			}
			vm.push(value.Obj(vm.newFunction(tpl.Unit, fr.env, fr.cells)))

		default:
			return value.Undefined(), vm.fail(ErrType, "unknown opcode 0x%02x", op)
		}
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) readU16(fr *Frame) int {
	v := bytecode.ReadU16(fr.unit.Code, fr.ip)
	fr.ip += 2
	return int(v)
}

func (vm *VM) constName(fr *Frame) string {
	return value.ToString(fr.unit.Constants[vm.readU16(fr)])
}

func (vm *VM) newObject(class string, proto *Object) *Object {
	o := &Object{
		Header: value.Header{Type: value.TypeObject},
		Props:  make(map[string]value.Value),
		Proto:  proto,
		Class:  class,
	}
	vm.heap.Alloc(o)
	return o
}

func (vm *VM) newFunction(u *bytecode.Unit, env *Box, cells []*value.Value) *Object {
	fn := vm.newObject("Function", vm.functionProto)
	fn.Unit = u
	fn.Env = env
	fn.Cells = cells
	fn.Name = u.Name
	return fn
}

func asObject(v value.Value) *Object {
	if v.Kind != value.KindObject {
		return nil
	}
	o, _ := v.Ref.(*Object)
	return o
}

func functionName(fn *Object) string {
	if fn.Name == "" {
		return "<anon>"
	}
	return fn.Name
}

func arith(op byte, a, b float64) float64 {
	switch op {
	case bytecode.OP_SUB:
		return a - b
	case bytecode.OP_MUL:
		return a * b
	case bytecode.OP_DIV:
		return a / b
	default:
		return math.Mod(a, b)
	}
}

func bitwise(op byte, a, b value.Value) float64 {
	shift := value.ToUint32(b) & 31
	switch op {
	case bytecode.OP_BW_AND:
		return float64(value.ToInt32(a) & value.ToInt32(b))
	case bytecode.OP_BW_OR:
		return float64(value.ToInt32(a) | value.ToInt32(b))
	case bytecode.OP_BW_XOR:
		return float64(value.ToInt32(a) ^ value.ToInt32(b))
	case bytecode.OP_LSHIFT:
		return float64(value.ToInt32(a) << shift)
	case bytecode.OP_RSHIFT:
		return float64(value.ToInt32(a) >> shift)
	default:
		return float64(value.ToUint32(a) >> shift)
	}
}

func relational(op byte, a, b value.Value) bool {
	c, ok := value.Compare(a, b)
	if !ok {
		return false
	}
	switch op {
	case bytecode.OP_LT:
		return c < 0
	case bytecode.OP_LTE:
		return c <= 0
	case bytecode.OP_GT:
		return c > 0
	default:
		return c >= 0
	}
}

// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm implements the Daedalus stack machine: opcode dispatch over a loaded script.Script, a data stack of
// tagged value/reference frames, a call stack of saved program
// counters and instance contexts, and host external dispatch.
package vm

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kharnas/zengin/daedalus/script"
)

// kind discriminates a data stack frame's payload.
type kind int

const (
	kindInt kind = iota
	kindFloat
	kindInstance
	kindRef
)

// frame is one data stack entry. A reference frame names a symbol and
// an index to dereference on read or write, bound to the context that
// was current when it was pushed.
type frame struct {
	kind     kind
	context  *script.Instance
	ref      *script.Symbol
	index    uint8
	intVal   int32
	floatVal float32
	instVal  *script.Instance
}

// callFrame is one call stack entry.
type callFrame struct {
	fn      *script.Symbol
	pc      uint32
	context *script.Instance
}

// External is a host callback bound to a Daedalus external symbol.
// Use RegisterExternal to bind a typed Go function instead of
// implementing this directly.
type External func(vm *VM) error

// Override replaces the body of an internal script function (bound to
// its address, i.e. an `op_call` target) with a host callback, bypassing
// the script entirely.
type Override func(vm *VM) error

// DefaultExternalHandler is invoked for a `be` instruction whose symbol
// has no registered External; it must pop the declared parameters and
// push a zero value of the declared return type
type DefaultExternalHandler func(vm *VM, sym *script.Symbol) error

// VM runs a loaded script.
type VM struct {
	Script *script.Script

	pc       uint32
	instance *script.Instance

	dataStack []frame
	callStack []callFrame

	externals       map[*script.Symbol]External
	overrides       map[uint32]Override
	defaultExternal DefaultExternalHandler

	stringSlot *script.Symbol
}

// New creates a VM over a loaded script.
func New(scr *script.Script) *VM {
	return &VM{
		Script:     scr,
		externals:  make(map[*script.Symbol]External),
		overrides:  make(map[uint32]Override),
		stringSlot: scr.StringPool(),
	}
}

// ErrSymbolNotFound is returned when a name fails to resolve to any
// known symbol.
type ErrSymbolNotFound struct{ Name string }

func (e *ErrSymbolNotFound) Error() string { return "vm: symbol not found: " + e.Name }

// ErrNoSymbolAtAddress/ErrNoSymbolAtIndex are raised when an
// instruction's operand fails to resolve against the script's symbol
// table — a malformed or truncated script, not a guarded runtime check.
type ErrNoSymbolAtAddress struct{ Address uint32 }

func (e *ErrNoSymbolAtAddress) Error() string {
	return fmt.Sprintf("vm: no symbol found for address %d", e.Address)
}

type ErrNoSymbolAtIndex struct{ Index uint32 }

func (e *ErrNoSymbolAtIndex) Error() string {
	return fmt.Sprintf("vm: no symbol found for index %d", e.Index)
}

// ErrNoExternal is raised by `be` when no External and no default
// handler are registered for the target symbol.
type ErrNoExternal struct{ Symbol string }

func (e *ErrNoExternal) Error() string { return "vm: no external registered for " + e.Symbol }

// ErrIllegalAddress is raised by a jump past the end of the text
// segment.
type ErrIllegalAddress struct{ Address uint32 }

func (e *ErrIllegalAddress) Error() string {
	return fmt.Sprintf("vm: cannot jump to %d: illegal address", e.Address)
}

// RegisterDefaultExternal installs the handler invoked for any `be`
// instruction whose symbol has no registered External.
func (v *VM) RegisterDefaultExternal(h DefaultExternalHandler) { v.defaultExternal = h }

// RegisterOverride binds fn to run instead of the script function at
// symbol's address, the way an internal call (`bl`) can be intercepted
// without modifying the compiled script.
func (v *VM) RegisterOverride(symbolName string, fn Override) error {
	sym, ok := v.Script.BySymbolName(symbolName)
	if !ok {
		return &ErrSymbolNotFound{Name: symbolName}
	}
	v.overrides[uint32(sym.Address)] = fn
	return nil
}

// RegisterExternal binds a Go function to a Daedalus external symbol.
// fn's signature must match the symbol's declared Daedalus parameter
// and return types: int32 for TypeInt, float32 for TypeFloat, string
// for TypeString, *script.Instance for TypeInstance. Mismatches are
// reported at registration time rather than at call
// time.
func (v *VM) RegisterExternal(symbolName string, fn interface{}) error {
	sym, ok := v.Script.BySymbolName(symbolName)
	if !ok {
		return &ErrSymbolNotFound{Name: symbolName}
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("vm: external %s: not a function", symbolName)
	}

	params := v.Script.ParametersOf(sym)
	if ft.NumIn() != len(params) {
		return &ErrExternalParam{Symbol: symbolName, Index: uint8(len(params)), Provided: "wrong arity"}
	}
	for i, p := range params {
		if !kindMatches(p.Type, ft.In(i).Kind()) {
			return &ErrExternalParam{Symbol: symbolName, Index: uint8(i), Provided: ft.In(i).String()}
		}
	}

	if sym.Flags.HasReturn() {
		if ft.NumOut() != 1 || !kindMatches(sym.ReturnType, ft.Out(0).Kind()) {
			provided := "void"
			if ft.NumOut() > 0 {
				provided = ft.Out(0).String()
			}
			return &ErrExternalRType{Symbol: symbolName, Provided: provided}
		}
	}

	v.externals[sym] = func(vm *VM) error {
		args := make([]reflect.Value, len(params))
		for i := len(params) - 1; i >= 0; i-- {
			p := params[i]
			switch p.Type {
			case script.TypeInt:
				n, err := vm.PopInt()
				if err != nil {
					return err
				}
				args[i] = reflect.ValueOf(n)
			case script.TypeFloat:
				f, err := vm.PopFloat()
				if err != nil {
					return err
				}
				args[i] = reflect.ValueOf(f)
			case script.TypeString:
				s, err := vm.PopString()
				if err != nil {
					return err
				}
				args[i] = reflect.ValueOf(s)
			case script.TypeInstance:
				inst, err := vm.PopInstance()
				if err != nil {
					return err
				}
				args[i] = reflect.ValueOf(inst)
			default:
				args[i] = reflect.Zero(ft.In(i))
			}
		}

		results := fv.Call(args)
		if sym.Flags.HasReturn() {
			switch sym.ReturnType {
			case script.TypeInt:
				vm.PushInt(int32(results[0].Int()))
			case script.TypeFloat:
				vm.PushFloat(float32(results[0].Float()))
			case script.TypeString:
				vm.PushString(results[0].String())
			}
		}
		return nil
	}
	return nil
}

func kindMatches(dt script.DataType, k reflect.Kind) bool {
	switch dt {
	case script.TypeInt:
		return k == reflect.Int32 || k == reflect.Int
	case script.TypeFloat:
		return k == reflect.Float32
	case script.TypeString:
		return k == reflect.String
	case script.TypeInstance:
		return k == reflect.Ptr
	default:
		return false
	}
}

// ErrExternalRType is returned when a registered external's Go return
// type does not match its symbol's declared Daedalus return type
//.
type ErrExternalRType struct {
	Symbol   string
	Provided string
}

func (e *ErrExternalRType) Error() string {
	return fmt.Sprintf("vm: external %s has illegal return type %q", e.Symbol, e.Provided)
}

// ErrExternalParam is returned when a registered external's Go
// parameter type does not match its symbol's declared Daedalus
// parameter type.
type ErrExternalParam struct {
	Symbol   string
	Provided string
	Index    uint8
}

func (e *ErrExternalParam) Error() string {
	return fmt.Sprintf("vm: external %s has illegal parameter type %q (no. %d)", e.Symbol, e.Provided, e.Index)
}

// InitInstance allocates and runs a class instance's initializer: an
// Instance is created over value (which must be an addressable struct
// pointer matching className's registered field layout) and its
// Daedalus constructor code, if any, is executed with the instance
// bound as the current context.
func (v *VM) InitInstance(instanceSymbolName string, className string, value reflect.Value, fields map[string]reflect.Value) (*script.Instance, error) {
	sym, ok := v.Script.BySymbolName(instanceSymbolName)
	if !ok {
		return nil, &ErrSymbolNotFound{Name: instanceSymbolName}
	}

	inst := script.NewInstance(className, sym, value, fields)

	saved := v.instance
	v.instance = inst
	defer func() { v.instance = saved }()

	if err := v.Call(sym); err != nil {
		return nil, err
	}
	return inst, nil
}

// Call invokes sym's code from the top, running until its matching
// op_return.
func (v *VM) Call(sym *script.Symbol) error {
	v.pushCall(sym)
	if err := v.jump(uint32(sym.Address)); err != nil {
		return err
	}

	for {
		cont, err := v.step()
		if err != nil {
			fmt.Fprintf(errWriter, "+++ error while executing script: %s +++\n\n", err)
			v.PrintStackTrace()
			v.popCall()
			return err
		}
		if !cont {
			break
		}
	}

	v.popCall()
	return nil
}

// CallFunction is the host entry point: it resolves name to a symbol
// and calls it, leaving any return value on top of the data stack.
func (v *VM) CallFunction(name string) error {
	sym, ok := v.Script.BySymbolName(name)
	if !ok {
		return &ErrSymbolNotFound{Name: name}
	}
	return v.Call(sym)
}

func (v *VM) pushCall(sym *script.Symbol) {
	v.callStack = append(v.callStack, callFrame{fn: sym, pc: v.pc, context: v.instance})
}

func (v *VM) popCall() {
	n := len(v.callStack)
	if n == 0 {
		return
	}
	top := v.callStack[n-1]
	v.callStack = v.callStack[:n-1]
	v.pc = top.pc
	v.instance = top.context
}

func (v *VM) jump(address uint32) error {
	if uint64(address) > v.Script.Text.Limit() {
		return &ErrIllegalAddress{Address: address}
	}
	v.pc = address
	return nil
}

// step decodes and executes one instruction, advancing pc. It reports
// false when execution should stop (op_return reached).
func (v *VM) step() (bool, error) {
	instr, err := v.Script.InstructionAt(v.pc)
	if err != nil {
		return false, err
	}

	switch instr.Op {
	case script.OpAdd:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a + b)

	case script.OpSubtract:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a - b)

	case script.OpMultiply:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a * b)

	case script.OpDivide:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a / b)

	case script.OpModulo:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a % b)

	case script.OpBitOr:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a | b)

	case script.OpBitAnd:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a & b)

	case script.OpShiftLeft:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a << uint32(b))

	case script.OpShiftRight:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(a >> uint32(b))

	case script.OpLess, script.OpGreater, script.OpLessOrEqual, script.OpGreaterOrEqual:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(boolInt(compareOp(instr.Op, a, b)))

	case script.OpEqual:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(boolInt(a == b))

	case script.OpNotEqual:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(boolInt(a != b))

	case script.OpLogOr:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(boolInt(a != 0 || b != 0))

	case script.OpLogAnd:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		b, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(boolInt(a != 0 && b != 0))

	case script.OpPlus:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(+a)

	case script.OpMinus:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(-a)

	case script.OpNot:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(boolInt(a == 0))

	case script.OpComplement:
		a, err := v.PopInt()
		if err != nil {
			return false, err
		}
		v.PushInt(^a)

	case script.OpNoop:
		// nothing

	case script.OpReturn:
		return false, nil

	case script.OpCall:
		if override, ok := v.overrides[instr.Address]; ok {
			v.pushCall(nil)
			if err := override(v); err != nil {
				return false, err
			}
			v.popCall()
			break
		}
		sym, ok := v.Script.BySymbolAddress(int32(instr.Address))
		if !ok {
			return false, &ErrNoSymbolAtAddress{Address: instr.Address}
		}
		if err := v.Call(sym); err != nil {
			return false, err
		}

	case script.OpCallExternal:
		sym, ok := v.Script.BySymbolIndex(instr.Symbol)
		if !ok {
			return false, &ErrNoSymbolAtIndex{Index: instr.Symbol}
		}
		cb, ok := v.externals[sym]
		if !ok {
			if v.defaultExternal == nil {
				return false, &ErrNoExternal{Symbol: sym.Name}
			}
			v.pushCall(sym)
			if err := v.defaultExternal(v, sym); err != nil {
				return false, err
			}
			v.popCall()
			break
		}
		v.pushCall(sym)
		if err := cb(v); err != nil {
			return false, err
		}
		v.popCall()

	case script.OpPushInt:
		v.PushInt(instr.Immediate)

	case script.OpPushVar, script.OpPushInstance:
		sym, ok := v.Script.BySymbolIndex(instr.Symbol)
		if !ok {
			return false, &ErrNoSymbolAtIndex{Index: instr.Symbol}
		}
		v.pushRef(sym, 0)

	case script.OpAssignInt, script.OpAssignFunc:
		ref, idx, ctx, err := v.popRef()
		if err != nil {
			return false, err
		}
		val, err := v.PopInt()
		if err != nil {
			return false, err
		}
		if err := ref.SetInt(val, idx, ctx); err != nil {
			return false, err
		}

	case script.OpAssignFloat:
		ref, idx, ctx, err := v.popRef()
		if err != nil {
			return false, err
		}
		val, err := v.PopFloat()
		if err != nil {
			return false, err
		}
		if err := ref.SetFloat(val, idx, ctx); err != nil {
			return false, err
		}

	case script.OpAssignString:
		ref, idx, ctx, err := v.popRef()
		if err != nil {
			return false, err
		}
		val, err := v.PopString()
		if err != nil {
			return false, err
		}
		if err := ref.SetString(val, idx, ctx); err != nil {
			return false, err
		}

	case script.OpAssignStringRef:
		// Same wire shape as OpAssignString: the source is already
		// popped as a reference and dereferenced via PopString. Real
		// compiled scripts emit this opcode instead of OpAssignString
		// when the right-hand side is itself a variable rather than a
		// literal; the VM-side handling is identical either way.
		ref, idx, ctx, err := v.popRef()
		if err != nil {
			return false, err
		}
		val, err := v.PopString()
		if err != nil {
			return false, err
		}
		if err := ref.SetString(val, idx, ctx); err != nil {
			return false, err
		}

	case script.OpAssignAdd, script.OpAssignSubtract, script.OpAssignMultiply, script.OpAssignDivide:
		ref, idx, ctx, err := v.popRef()
		if err != nil {
			return false, err
		}
		rhs, err := v.PopInt()
		if err != nil {
			return false, err
		}
		cur, err := ref.GetInt(idx, ctx)
		if err != nil {
			return false, err
		}
		var result int32
		switch instr.Op {
		case script.OpAssignAdd:
			result = cur + rhs
		case script.OpAssignSubtract:
			result = cur - rhs
		case script.OpAssignMultiply:
			result = cur * rhs
		case script.OpAssignDivide:
			result = cur / rhs
		}
		if err := ref.SetInt(result, idx, ctx); err != nil {
			return false, err
		}

	case script.OpAssignInstance:
		_, _, _, err := v.popRef()
		if err != nil {
			return false, err
		}
		if _, err := v.PopInstance(); err != nil {
			return false, err
		}
		// Assigning to an instance-typed symbol requires a settable
		// instance slot on script.Symbol, which this loader does not
		// model (instance values live on host-registered structs, not
		// symbol storage); scripts exercising this opcode are outside
		// this VM's supported subset.

	case script.OpJump:
		if err := v.jump(instr.Address); err != nil {
			return false, err
		}
		return true, nil

	case script.OpJumpIfZero:
		cond, err := v.PopInt()
		if err != nil {
			return false, err
		}
		if cond == 0 {
			if err := v.jump(instr.Address); err != nil {
				return false, err
			}
			return true, nil
		}

	case script.OpSetInstance:
		_, ok := v.Script.BySymbolIndex(instr.Symbol)
		if !ok {
			return false, &ErrNoSymbolAtIndex{Index: instr.Symbol}
		}
		// Loading a registered instance pointer from a symbol requires
		// the same instance-value-on-symbol storage noted above; this
		// opcode is a no-op placeholder until that storage exists.

	case script.OpPushArrayVar:
		sym, ok := v.Script.BySymbolIndex(instr.Symbol)
		if !ok {
			return false, &ErrNoSymbolAtIndex{Index: instr.Symbol}
		}
		v.pushRef(sym, instr.Index)

	default:
		return false, fmt.Errorf("vm: unhandled opcode %s (%d)", instr.Op, instr.Op)
	}

	v.pc += instr.Size
	return true, nil
}

func compareOp(op script.Opcode, a, b int32) bool {
	switch op {
	case script.OpLess:
		return a < b
	case script.OpGreater:
		return a > b
	case script.OpLessOrEqual:
		return a <= b
	case script.OpGreaterOrEqual:
		return a >= b
	default:
		return false
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// PushInt pushes an immediate int value.
func (v *VM) PushInt(val int32) {
	v.dataStack = append(v.dataStack, frame{kind: kindInt, intVal: val})
}

// PushFloat pushes an immediate float value.
func (v *VM) PushFloat(val float32) {
	v.dataStack = append(v.dataStack, frame{kind: kindFloat, floatVal: val})
}

// PushInstance pushes an immediate instance value.
func (v *VM) PushInstance(inst *script.Instance) {
	v.dataStack = append(v.dataStack, frame{kind: kindInstance, instVal: inst})
}

// PushString stores value into the synthetic string pool and pushes a
// reference to it.
func (v *VM) PushString(value string) {
	v.stringSlot.Strings[0] = value
	v.pushRef(v.stringSlot, 0)
}

func (v *VM) pushRef(sym *script.Symbol, index uint8) {
	v.dataStack = append(v.dataStack, frame{kind: kindRef, context: v.instance, ref: sym, index: index})
}

// PopInt pops an int value, dereferencing a reference frame if needed.
// Popping from an empty stack yields 0, matching the tolerant behavior
// scripts compiled against slightly different symbol tables rely on.
func (v *VM) PopInt() (int32, error) {
	f, ok := v.pop()
	if !ok {
		return 0, nil
	}
	switch f.kind {
	case kindRef:
		return f.ref.GetInt(f.index, f.context)
	case kindInt:
		return f.intVal, nil
	default:
		return 0, fmt.Errorf("vm: popped frame is not an int")
	}
}

// PopFloat pops a float value, dereferencing a reference frame if
// needed.
func (v *VM) PopFloat() (float32, error) {
	f, ok := v.pop()
	if !ok {
		return 0, fmt.Errorf("vm: popping from empty stack")
	}
	switch f.kind {
	case kindRef:
		return f.ref.GetFloat(f.index, f.context)
	case kindFloat:
		return f.floatVal, nil
	case kindInt:
		return float32(f.intVal), nil
	default:
		return 0, fmt.Errorf("vm: popped frame is not a float")
	}
}

// PopString pops a string reference and dereferences it.
func (v *VM) PopString() (string, error) {
	ref, idx, ctx, err := v.popRef()
	if err != nil {
		return "", err
	}
	return ref.GetString(idx, ctx)
}

// PopInstance pops an instance value, dereferencing a reference frame
// if needed.
func (v *VM) PopInstance() (*script.Instance, error) {
	f, ok := v.pop()
	if !ok {
		return nil, fmt.Errorf("vm: popping from empty stack")
	}
	switch f.kind {
	case kindRef:
		if f.context == nil {
			return nil, fmt.Errorf("vm: reference %s has no bound instance", f.ref.Name)
		}
		return f.context, nil
	case kindInstance:
		return f.instVal, nil
	default:
		return nil, fmt.Errorf("vm: popped frame is not an instance")
	}
}

func (v *VM) popRef() (*script.Symbol, uint8, *script.Instance, error) {
	f, ok := v.pop()
	if !ok {
		return nil, 0, nil, fmt.Errorf("vm: popping from empty stack")
	}
	if f.kind != kindRef {
		return nil, 0, nil, fmt.Errorf("vm: popped frame is not a reference")
	}
	return f.ref, f.index, f.context, nil
}

func (v *VM) pop() (frame, bool) {
	n := len(v.dataStack)
	if n == 0 {
		return frame{}, false
	}
	f := v.dataStack[n-1]
	v.dataStack = v.dataStack[:n-1]
	return f, true
}

// PrintStackTrace writes the call stack (most recent call first) and
// the data stack (most recent push first) to the VM's trace writer,
// resolving each reference frame to its current value.
func (v *VM) PrintStackTrace() {
	fmt.Fprintln(errWriter, "\n------- CALL STACK (MOST RECENT CALL FIRST) -------")
	lastPC := v.pc
	for i := len(v.callStack) - 1; i >= 0; i-- {
		cf := v.callStack[i]
		name := "<override>"
		if cf.fn != nil {
			name = cf.fn.Name
		}
		fmt.Fprintf(errWriter, "in %s at 0x%x\n", name, lastPC)
		lastPC = cf.pc
	}

	fmt.Fprintln(errWriter, "\n------- STACK (MOST RECENT PUSH FIRST) -------")
	for i := len(v.dataStack) - 1; i >= 0; i-- {
		f := v.dataStack[i]
		n := len(v.dataStack) - 1 - i
		switch f.kind {
		case kindRef:
			switch f.ref.Type {
			case script.TypeFloat:
				val, _ := f.ref.GetFloat(f.index, f.context)
				fmt.Fprintf(errWriter, "%d: [REFERENCE] %s[%d] = %v\n", n, f.ref.Name, f.index, val)
			case script.TypeInt:
				val, _ := f.ref.GetInt(f.index, f.context)
				fmt.Fprintf(errWriter, "%d: [REFERENCE] %s[%d] = %v\n", n, f.ref.Name, f.index, val)
			case script.TypeString:
				val, _ := f.ref.GetString(f.index, f.context)
				fmt.Fprintf(errWriter, "%d: [REFERENCE] %s[%d] = %q\n", n, f.ref.Name, f.index, val)
			case script.TypeInstance:
				if f.context != nil {
					fmt.Fprintf(errWriter, "%d: [REFERENCE] %s = <instance of %q>\n", n, f.ref.Name, f.context.ClassName)
				} else {
					fmt.Fprintf(errWriter, "%d: [REFERENCE] %s = NULL\n", n, f.ref.Name)
				}
			default:
				fmt.Fprintf(errWriter, "%d: [REFERENCE] %s[%d]\n", n, f.ref.Name, f.index)
			}
		case kindFloat:
			fmt.Fprintf(errWriter, "%d: [IMMEDIATE FLOAT] = %v\n", n, f.floatVal)
		case kindInt:
			fmt.Fprintf(errWriter, "%d: [IMMEDIATE INT] = %v\n", n, f.intVal)
		case kindInstance:
			if f.instVal != nil {
				fmt.Fprintf(errWriter, "%d: [IMMEDIATE INSTANCE] = <instance of %q>\n", n, f.instVal.ClassName)
			} else {
				fmt.Fprintf(errWriter, "%d: [IMMEDIATE INSTANCE] = NULL\n", n)
			}
		}
	}
	fmt.Fprintln(errWriter)
}

// disassemble renders an instruction in the mnemonic-plus-operand form
// a Daedalus disassembler uses ("bl 236", "pushv 10", …).
func disassemble(instr script.Instruction) string {
	switch instr.Op {
	case script.OpCall, script.OpJump, script.OpJumpIfZero:
		return fmt.Sprintf("%s %d", instr.Op, instr.Address)
	case script.OpPushInt:
		return fmt.Sprintf("%s %d", instr.Op, instr.Immediate)
	case script.OpCallExternal, script.OpPushVar, script.OpPushInstance, script.OpSetInstance:
		return fmt.Sprintf("%s %d", instr.Op, instr.Symbol)
	case script.OpPushArrayVar:
		return fmt.Sprintf("%s %d %d", instr.Op, instr.Symbol, instr.Index)
	default:
		return instr.Op.String()
	}
}

// Disassemble renders the sequence of instructions starting at
// address until (and including) the first op_return, joined by ", ".
func Disassemble(scr *script.Script, address uint32) (string, error) {
	var parts []string
	pc := address
	for {
		if err := scr.Text.SetPosition(uint64(pc)); err != nil {
			return "", err
		}
		instr, err := scr.InstructionAt(pc)
		if err != nil {
			return "", err
		}
		parts = append(parts, disassemble(instr))
		pc += instr.Size
		if instr.Op == script.OpReturn {
			break
		}
	}
	return strings.Join(parts, ", "), nil
}

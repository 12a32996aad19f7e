// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package script loads compiled Daedalus bytecode (`.DAT` files): a
// flat symbol table plus a text segment, indexed
// by position, uppercased name, and (for prototypes, instances and
// const non-member functions) address, the way
// golang-debug/debug/dwarf/symbol.go builds several lookup indices over
// one decoded table.
package script

import (
	"fmt"
	"strings"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// DataType is the Daedalus symbol/value type discriminant.
type DataType uint8

const (
	TypeVoid DataType = iota
	TypeFloat
	TypeInt
	TypeString
	TypeClass
	TypeFunction
	TypePrototype
	TypeInstance
)

func (t DataType) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeClass:
		return "class"
	case TypeFunction:
		return "function"
	case TypePrototype:
		return "prototype"
	case TypeInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// Flags is the bit-packed symbol flag set.
type Flags uint8

const (
	FlagConst Flags = 1 << iota
	FlagReturn
	FlagMember
	FlagExternal
	FlagMerged
)

func (f Flags) IsConst() bool    { return f&FlagConst != 0 }
func (f Flags) HasReturn() bool  { return f&FlagReturn != 0 }
func (f Flags) IsMember() bool   { return f&FlagMember != 0 }
func (f Flags) IsExternal() bool { return f&FlagExternal != 0 }
func (f Flags) IsMerged() bool   { return f&FlagMerged != 0 }

// stringPoolName is the synthetic symbol this loader appends to serve as
// scratch storage for VM temporary string pushes.
const stringPoolName = "$VM_STRING_POOL"

// Symbol is one entry of a script's symbol table.
type Symbol struct {
	Name       string
	Generated  bool // true if the name began with the compiler's marker byte
	Type       DataType
	Count      uint16 // 12-bit on-disk field
	Flags      Flags
	Parent     int32 // -1 if none
	FileIndex  uint32
	LineStart  uint32
	LineCount  uint32
	CharStart  uint32
	CharCount  uint32
	Index      uint32

	// Exactly one of these is populated depending on Type, only when
	// !Flags.IsMember(): MemberOffset is instead populated when
	// Flags.IsMember() is set, regardless of Type.
	MemberOffset uint32
	ClassSize    uint32
	ClassOffset  int32
	ReturnType   DataType
	Address      int32

	Ints    []int32
	Floats  []float32
	Strings []string
}

// Script is a fully loaded `.DAT` file: its symbol table and code
// segment, indexed three ways.
type Script struct {
	Version     uint8
	Symbols     []Symbol
	byName      map[string]uint32
	byAddress   map[int32]uint32
	Text        *buffer.Buffer
	StringsSlot uint32 // index of the synthetic string pool symbol
}

// Load decodes a complete script from b.
func Load(b *buffer.Buffer) (*Script, error) {
	r := stream.New(b)

	version, err := r.U8()
	if err != nil {
		return nil, err
	}
	symbolCount, err := r.U32()
	if err != nil {
		return nil, err
	}

	if err := b.Skip(uint64(symbolCount) * 4); err != nil { // sort table, rebuilt below
		return nil, err
	}

	scr := &Script{
		Version:   version,
		Symbols:   make([]Symbol, 0, symbolCount+1),
		byName:    make(map[string]uint32, symbolCount+1),
		byAddress: make(map[int32]uint32, symbolCount),
	}

	for i := uint32(0); i < symbolCount; i++ {
		sym, err := parseSymbol(r)
		if err != nil {
			return nil, err
		}
		sym.Index = i
		scr.Symbols = append(scr.Symbols, sym)
		scr.byName[strings.ToUpper(sym.Name)] = i

		if sym.Type == TypePrototype || sym.Type == TypeInstance ||
			(sym.Type == TypeFunction && sym.Flags.IsConst() && !sym.Flags.IsMember()) {
			scr.byAddress[sym.Address] = i
		}
	}

	pool := Symbol{
		Name:      stringPoolName,
		Generated: true,
		Type:      TypeString,
		Count:     1,
		Strings:   make([]string, 1),
		Index:     uint32(len(scr.Symbols)),
	}
	scr.StringsSlot = pool.Index
	scr.Symbols = append(scr.Symbols, pool)
	scr.byName[strings.ToUpper(pool.Name)] = pool.Index

	textSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	text, err := b.Fork(uint64(textSize))
	if err != nil {
		return nil, err
	}
	scr.Text = text

	return scr, nil
}

func parseSymbol(r *stream.Reader) (Symbol, error) {
	var sym Symbol

	named, err := r.U32()
	if err != nil {
		return sym, err
	}
	if named != 0 {
		name, err := r.Line(false)
		if err != nil {
			return sym, err
		}
		if len(name) > 0 && name[0] == '\xFF' {
			name = "$" + name[1:]
			sym.Generated = true
		}
		sym.Name = name
	}

	vary, err := r.U32()
	if err != nil {
		return sym, err
	}
	properties, err := r.U32()
	if err != nil {
		return sym, err
	}

	sym.Count = uint16(properties & 0xFFF)
	sym.Type = DataType((properties >> 12) & 0xF)
	sym.Flags = Flags((properties >> 16) & 0x3F)

	if sym.Flags.IsMember() {
		sym.MemberOffset = vary
	} else if sym.Type == TypeClass {
		sym.ClassSize = vary
	} else if sym.Type == TypeFunction {
		sym.ReturnType = DataType(vary)
	}

	v, err := r.U32()
	if err != nil {
		return sym, err
	}
	sym.FileIndex = v & 0x7FFFF

	if v, err = r.U32(); err != nil {
		return sym, err
	}
	sym.LineStart = v & 0x7FFFF

	if v, err = r.U32(); err != nil {
		return sym, err
	}
	sym.LineCount = v & 0x7FFFF

	if v, err = r.U32(); err != nil {
		return sym, err
	}
	sym.CharStart = v & 0xFFFFFF

	if v, err = r.U32(); err != nil {
		return sym, err
	}
	sym.CharCount = v & 0xFFFFFF

	if !sym.Flags.IsMember() {
		switch sym.Type {
		case TypeFloat:
			sym.Floats = make([]float32, sym.Count)
			for i := range sym.Floats {
				if sym.Floats[i], err = r.Float32(); err != nil {
					return sym, err
				}
			}
		case TypeInt:
			sym.Ints = make([]int32, sym.Count)
			for i := range sym.Ints {
				if sym.Ints[i], err = r.I32(); err != nil {
					return sym, err
				}
			}
		case TypeString:
			sym.Strings = make([]string, sym.Count)
			for i := range sym.Strings {
				if sym.Strings[i], err = r.LineEscaped(); err != nil {
					return sym, err
				}
			}
		case TypeClass:
			if sym.ClassOffset, err = r.I32(); err != nil {
				return sym, err
			}
		case TypeInstance, TypeFunction, TypePrototype:
			if sym.Address, err = r.I32(); err != nil {
				return sym, err
			}
		}
	}

	parent, err := r.I32()
	if err != nil {
		return sym, err
	}
	sym.Parent = parent

	return sym, nil
}

// Opcode is the Daedalus bytecode operation discriminant. Numeric
// values match the on-disk encoding every compiled `.DAT` file uses.
type Opcode uint8

const (
	OpAdd              Opcode = 0
	OpSubtract         Opcode = 1
	OpMultiply         Opcode = 2
	OpDivide           Opcode = 3
	OpModulo           Opcode = 4
	OpBitOr            Opcode = 5
	OpBitAnd           Opcode = 6
	OpLess             Opcode = 7
	OpGreater          Opcode = 8
	OpAssignInt        Opcode = 9
	OpLogOr            Opcode = 11
	OpLogAnd           Opcode = 12
	OpShiftLeft        Opcode = 13
	OpShiftRight       Opcode = 14
	OpLessOrEqual      Opcode = 15
	OpEqual            Opcode = 16
	OpNotEqual         Opcode = 17
	OpGreaterOrEqual   Opcode = 18
	OpAssignAdd        Opcode = 19
	OpAssignSubtract   Opcode = 20
	OpAssignMultiply   Opcode = 21
	OpAssignDivide     Opcode = 22
	OpPlus             Opcode = 30
	OpMinus            Opcode = 31
	OpNot              Opcode = 32
	OpComplement       Opcode = 33
	OpNoop             Opcode = 45
	OpReturn           Opcode = 60
	OpCall             Opcode = 61
	OpCallExternal     Opcode = 62
	OpPushInt          Opcode = 63
	OpPushVar          Opcode = 64
	OpPushInstance     Opcode = 65
	OpAssignString     Opcode = 66
	OpAssignStringRef  Opcode = 67
	OpAssignFunc       Opcode = 68
	OpAssignFloat      Opcode = 69
	OpAssignInstance   Opcode = 70
	OpJump             Opcode = 71
	OpJumpIfZero       Opcode = 72
	OpSetInstance      Opcode = 73
	OpPushArrayVar     Opcode = 245
)

func (op Opcode) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSubtract:
		return "sub"
	case OpMultiply:
		return "mul"
	case OpDivide:
		return "div"
	case OpModulo:
		return "mod"
	case OpBitOr:
		return "bitor"
	case OpBitAnd:
		return "bitand"
	case OpLess:
		return "lt"
	case OpGreater:
		return "gt"
	case OpAssignInt:
		return "movi"
	case OpLogOr:
		return "or"
	case OpLogAnd:
		return "and"
	case OpShiftLeft:
		return "shl"
	case OpShiftRight:
		return "shr"
	case OpLessOrEqual:
		return "le"
	case OpEqual:
		return "eq"
	case OpNotEqual:
		return "ne"
	case OpGreaterOrEqual:
		return "ge"
	case OpAssignAdd:
		return "movvf"
	case OpAssignSubtract:
		return "movvf-"
	case OpAssignMultiply:
		return "movvf*"
	case OpAssignDivide:
		return "movvf/"
	case OpPlus:
		return "plus"
	case OpMinus:
		return "minus"
	case OpNot:
		return "not"
	case OpComplement:
		return "cpl"
	case OpNoop:
		return "noop"
	case OpReturn:
		return "ret"
	case OpCall:
		return "bl"
	case OpCallExternal:
		return "be"
	case OpPushInt:
		return "pushi"
	case OpPushVar:
		return "pushv"
	case OpPushInstance:
		return "pushvi"
	case OpAssignString:
		return "movs"
	case OpAssignStringRef:
		return "movss"
	case OpAssignFunc:
		return "movif"
	case OpAssignFloat:
		return "movf"
	case OpAssignInstance:
		return "movsi"
	case OpJump:
		return "b"
	case OpJumpIfZero:
		return "bz"
	case OpSetInstance:
		return "gmovi"
	case OpPushArrayVar:
		return "pushvv"
	default:
		return "unknown"
	}
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Op       Opcode
	Address  uint32 // bl, b, bz
	Immediate int32 // pushi
	Symbol   uint32 // be, pushv, pushvi, gmovi, pushvv
	Index    uint8  // pushvv only
	Size     uint32 // total bytes consumed, including the opcode byte
}

// InstructionAt decodes the instruction at the given text-segment
// address.
func (s *Script) InstructionAt(address uint32) (Instruction, error) {
	if err := s.Text.SetPosition(uint64(address)); err != nil {
		return Instruction{}, err
	}
	return decodeInstruction(stream.New(s.Text))
}

func decodeInstruction(r *stream.Reader) (Instruction, error) {
	var in Instruction

	op, err := r.U8()
	if err != nil {
		return in, err
	}
	in.Op = Opcode(op)
	in.Size = 1

	switch in.Op {
	case OpCall, OpJump, OpJumpIfZero:
		addr, err := r.U32()
		if err != nil {
			return in, err
		}
		in.Address = addr
		in.Size += 4

	case OpPushInt:
		imm, err := r.I32()
		if err != nil {
			return in, err
		}
		in.Immediate = imm
		in.Size += 4

	case OpCallExternal, OpPushVar, OpPushInstance, OpSetInstance:
		sym, err := r.U32()
		if err != nil {
			return in, err
		}
		in.Symbol = sym
		in.Size += 4

	case OpPushArrayVar:
		sym, err := r.U32()
		if err != nil {
			return in, err
		}
		idx, err := r.U8()
		if err != nil {
			return in, err
		}
		in.Symbol = sym
		in.Index = idx
		in.Size += 5
	}

	return in, nil
}

// BySymbolIndex returns the symbol at the given table index.
func (s *Script) BySymbolIndex(index uint32) (*Symbol, bool) {
	if index >= uint32(len(s.Symbols)) {
		return nil, false
	}
	return &s.Symbols[index], true
}

// BySymbolName looks a symbol up case-insensitively.
func (s *Script) BySymbolName(name string) (*Symbol, bool) {
	idx, ok := s.byName[strings.ToUpper(name)]
	if !ok {
		return nil, false
	}
	return &s.Symbols[idx], true
}

// BySymbolAddress looks up a prototype, instance, or const
// non-member function by its text-segment address.
func (s *Script) BySymbolAddress(address int32) (*Symbol, bool) {
	idx, ok := s.byAddress[address]
	if !ok {
		return nil, false
	}
	return &s.Symbols[idx], true
}

// ParametersOf returns every symbol named "parent.name.<x>", in table
// order, the way Daedalus class-method parameters are linearized.
func (s *Script) ParametersOf(parent *Symbol) []*Symbol {
	prefix := parent.Name + "."
	var out []*Symbol
	for i := range s.Symbols {
		if strings.HasPrefix(s.Symbols[i].Name, prefix) {
			out = append(out, &s.Symbols[i])
		}
	}
	return out
}

// StringPool returns the synthetic symbol used as scratch storage for
// VM temporary string pushes.
func (s *Script) StringPool() *Symbol {
	return &s.Symbols[s.StringsSlot]
}

// ErrType is returned when a typed accessor is called against a symbol
// of a different DataType.
type ErrType struct {
	Symbol   string
	Expected DataType
	Actual   DataType
}

func (e *ErrType) Error() string {
	return fmt.Sprintf("script: illegal access of type %s on symbol %s which is type %s", e.Expected, e.Symbol, e.Actual)
}

// ErrIndex is returned for an out-of-bounds symbol index read/write
//.
type ErrIndex struct {
	Symbol string
	Index  uint8
}

func (e *ErrIndex) Error() string {
	return fmt.Sprintf("script: illegal access of out-of-bounds index %d on symbol %s", e.Index, e.Symbol)
}

// ErrConst is returned when writing to a const symbol.
type ErrConst struct{ Symbol string }

func (e *ErrConst) Error() string {
	return fmt.Sprintf("script: illegal mutable access of const symbol %s", e.Symbol)
}

// GetInt returns the symbol's scalar int value at index, or its member
// value bound to context. context is ignored for non-member symbols.
func (sym *Symbol) GetInt(index uint8, context *Instance) (int32, error) {
	if sym.Type != TypeInt && sym.Type != TypeFunction {
		return 0, &ErrType{Symbol: sym.Name, Expected: TypeInt, Actual: sym.Type}
	}
	if int(index) >= int(sym.Count) {
		return 0, &ErrIndex{Symbol: sym.Name, Index: index}
	}
	if sym.Flags.IsMember() {
		if context == nil {
			return 0, &ErrNoContext{Symbol: sym.Name}
		}
		return context.getInt(sym, index), nil
	}
	return sym.Ints[index], nil
}

// SetInt writes the symbol's scalar int value at index.
func (sym *Symbol) SetInt(value int32, index uint8, context *Instance) error {
	if sym.Flags.IsConst() {
		return &ErrConst{Symbol: sym.Name}
	}
	if sym.Type != TypeInt && sym.Type != TypeFunction {
		return &ErrType{Symbol: sym.Name, Expected: TypeInt, Actual: sym.Type}
	}
	if int(index) >= int(sym.Count) {
		return &ErrIndex{Symbol: sym.Name, Index: index}
	}
	if sym.Flags.IsMember() {
		if context == nil {
			return &ErrNoContext{Symbol: sym.Name}
		}
		context.setInt(sym, index, value)
		return nil
	}
	sym.Ints[index] = value
	return nil
}

// GetFloat returns the symbol's scalar float value at index.
func (sym *Symbol) GetFloat(index uint8, context *Instance) (float32, error) {
	if sym.Type != TypeFloat {
		return 0, &ErrType{Symbol: sym.Name, Expected: TypeFloat, Actual: sym.Type}
	}
	if int(index) >= int(sym.Count) {
		return 0, &ErrIndex{Symbol: sym.Name, Index: index}
	}
	if sym.Flags.IsMember() {
		if context == nil {
			return 0, &ErrNoContext{Symbol: sym.Name}
		}
		return context.getFloat(sym, index), nil
	}
	return sym.Floats[index], nil
}

// SetFloat writes the symbol's scalar float value at index.
func (sym *Symbol) SetFloat(value float32, index uint8, context *Instance) error {
	if sym.Flags.IsConst() {
		return &ErrConst{Symbol: sym.Name}
	}
	if sym.Type != TypeFloat {
		return &ErrType{Symbol: sym.Name, Expected: TypeFloat, Actual: sym.Type}
	}
	if int(index) >= int(sym.Count) {
		return &ErrIndex{Symbol: sym.Name, Index: index}
	}
	if sym.Flags.IsMember() {
		if context == nil {
			return &ErrNoContext{Symbol: sym.Name}
		}
		context.setFloat(sym, index, value)
		return nil
	}
	sym.Floats[index] = value
	return nil
}

// GetString returns the symbol's scalar string value at index.
func (sym *Symbol) GetString(index uint8, context *Instance) (string, error) {
	if sym.Type != TypeString {
		return "", &ErrType{Symbol: sym.Name, Expected: TypeString, Actual: sym.Type}
	}
	if int(index) >= int(sym.Count) {
		return "", &ErrIndex{Symbol: sym.Name, Index: index}
	}
	if sym.Flags.IsMember() {
		if context == nil {
			return "", &ErrNoContext{Symbol: sym.Name}
		}
		return context.getString(sym, index), nil
	}
	return sym.Strings[index], nil
}

// SetString writes the symbol's scalar string value at index.
func (sym *Symbol) SetString(value string, index uint8, context *Instance) error {
	if sym.Flags.IsConst() {
		return &ErrConst{Symbol: sym.Name}
	}
	if sym.Type != TypeString {
		return &ErrType{Symbol: sym.Name, Expected: TypeString, Actual: sym.Type}
	}
	if int(index) >= int(sym.Count) {
		return &ErrIndex{Symbol: sym.Name, Index: index}
	}
	if sym.Flags.IsMember() {
		if context == nil {
			return &ErrNoContext{Symbol: sym.Name}
		}
		context.setString(sym, index, value)
		return nil
	}
	sym.Strings[index] = value
	return nil
}

// ErrNoContext is returned when a member symbol is accessed with no
// instance bound.
type ErrNoContext struct{ Symbol string }

func (e *ErrNoContext) Error() string {
	return fmt.Sprintf("script: illegal access of member %s without a context set", e.Symbol)
}

// ErrContextType is returned when a member is accessed through an
// instance of the wrong registered class.
type ErrContextType struct {
	Symbol       string
	RegisteredTo string
	ContextType  string
}

func (e *ErrContextType) Error() string {
	return fmt.Sprintf("script: cannot access member %s on context of type %s, registered to %s",
		e.Symbol, e.ContextType, e.RegisteredTo)
}

// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script

import (
	"reflect"
	"strings"
)

// Instance binds a Daedalus class instance to a host-provided Go
// struct value, the way the VM's externals bind script calls to host
// closures: member symbols read and write the struct's fields via
// reflection, matched to symbol names once at registration time rather
// than re-resolved on every access.
type Instance struct {
	ClassName string
	Symbol    *Symbol // the instance symbol this value was created from, if any
	value     reflect.Value
	fields    map[string]reflect.Value
}

// NewInstance wraps an addressable struct value as a class instance.
// fields maps each bound member symbol's uppercased name to the
// reflect.Value of the struct field (or slice, for array members) it
// reads and writes.
func NewInstance(className string, sym *Symbol, value reflect.Value, fields map[string]reflect.Value) *Instance {
	return &Instance{ClassName: className, Symbol: sym, value: value, fields: fields}
}

// Value returns the underlying host struct value.
func (inst *Instance) Value() reflect.Value { return inst.value }

func (inst *Instance) field(sym *Symbol) (reflect.Value, bool) {
	fv, ok := inst.fields[strings.ToUpper(sym.Name)]
	return fv, ok
}

func (inst *Instance) getInt(sym *Symbol, index uint8) int32 {
	fv, ok := inst.field(sym)
	if !ok {
		return 0
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		fv = fv.Index(int(index))
	}
	return int32(fv.Int())
}

func (inst *Instance) setInt(sym *Symbol, index uint8, v int32) {
	fv, ok := inst.field(sym)
	if !ok {
		return
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		fv = fv.Index(int(index))
	}
	fv.SetInt(int64(v))
}

func (inst *Instance) getFloat(sym *Symbol, index uint8) float32 {
	fv, ok := inst.field(sym)
	if !ok {
		return 0
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		fv = fv.Index(int(index))
	}
	return float32(fv.Float())
}

func (inst *Instance) setFloat(sym *Symbol, index uint8, v float32) {
	fv, ok := inst.field(sym)
	if !ok {
		return
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		fv = fv.Index(int(index))
	}
	fv.SetFloat(float64(v))
}

func (inst *Instance) getString(sym *Symbol, index uint8) string {
	fv, ok := inst.field(sym)
	if !ok {
		return ""
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		fv = fv.Index(int(index))
	}
	return fv.String()
}

func (inst *Instance) setString(sym *Symbol, index uint8, v string) {
	fv, ok := inst.field(sym)
	if !ok {
		return
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array {
		fv = fv.Index(int(index))
	}
	fv.SetString(v)
}

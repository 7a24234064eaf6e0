// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package payload models request bodies sent to the content backend.
//
// A Value distinguishes a field that is absent (Omit) from one that is
// explicitly erased (Null), which the backend treats differently on PATCH.
package payload

import (
	"strconv"
)

// Kind identifies the active variant of a Value.
type Kind int

// Value kinds.
const (
	KindOmit Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindFile
	KindObject
	KindArray
)

// File is a binary staged for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Value is a tagged union over the shapes a payload field can take.
// The zero Value is Omit.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	file *File
	obj  *Object
	arr  []Value
}

// Omit returns a value that is left out of the payload entirely.
func Omit() Value { return Value{} }

// Null returns an explicit null.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// FileValue returns a binary value. A nil file yields Omit.
func FileValue(f *File) Value {
	if f == nil {
		return Omit()
	}
	return Value{kind: KindFile, file: f}
}

// ObjectValue wraps an object. A nil object yields Omit.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Omit()
	}
	return Value{kind: KindObject, obj: o}
}

// Array returns an array value. Omit elements are dropped.
func Array(items ...Value) Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		if it.kind != KindOmit {
			out = append(out, it)
		}
	}
	return Value{kind: KindArray, arr: out}
}

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsOmit reports whether the value is absent.
func (v Value) IsOmit() bool { return v.kind == KindOmit }

// IsNull reports whether the value is an explicit null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload (empty for non-strings).
func (v Value) Str() string { return v.str }

// Num returns the numeric payload.
func (v Value) Num() float64 { return v.num }

// Boolean returns the boolean payload.
func (v Value) Boolean() bool { return v.b }

// File returns the staged file, or nil.
func (v Value) File() *File { return v.file }

// Object returns the nested object, or nil.
func (v Value) Object() *Object { return v.obj }

// Items returns the array elements.
func (v Value) Items() []Value { return v.arr }

// HasFile reports whether the value contains a File at any depth.
func (v Value) HasFile() bool {
	switch v.kind {
	case KindFile:
		return true
	case KindObject:
		return v.obj.HasFile()
	case KindArray:
		for _, it := range v.arr {
			if it.HasFile() {
				return true
			}
		}
	}
	return false
}

// formString renders a scalar for a multipart text part.
// Null becomes the empty string since form fields cannot carry a null.
func (v Value) formString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Object is an insertion-ordered set of named values.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set assigns a field. Setting Omit removes the field.
func (o *Object) Set(key string, v Value) *Object {
	if v.kind == KindOmit {
		o.Delete(key)
		return o
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
	return o
}

// Delete removes a field if present.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Get returns a field and whether it is present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether a field is present.
func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// Keys returns field names in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }

// HasFile reports whether any field holds a File at any depth.
func (o *Object) HasFile() bool {
	if o == nil {
		return false
	}
	for _, k := range o.keys {
		if o.vals[k].HasFile() {
			return true
		}
	}
	return false
}

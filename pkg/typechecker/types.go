package typechecker

import (
	"sort"
	"strings"
)

// Type represents an NG type understood by the checker.
type Type interface {
	Name() string
}

type PrimitiveKind string

const (
	PrimitiveBool   PrimitiveKind = "bool"
	PrimitiveString PrimitiveKind = "string"
	PrimitiveUnit   PrimitiveKind = "unit"
)

type PrimitiveType struct {
	Kind PrimitiveKind
}

func (p PrimitiveType) Name() string { return string(p.Kind) }

type IntegerType struct {
	Suffix string
}

func (i IntegerType) Name() string { return i.Suffix }

type FloatType struct {
	Suffix string
}

func (f FloatType) Name() string { return f.Suffix }

type ArrayType struct{}

func (ArrayType) Name() string { return "array" }

type TupleType struct {
	Elements []Type
}

func (t TupleType) Name() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = typeName(e)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// StructType is a user-declared `type`.
type StructType struct {
	TypeName   string
	Properties []string
	Methods    map[string]*FunctionType
}

func (s StructType) Name() string { return "type " + s.TypeName }

func (s StructType) HasProperty(name string) bool {
	for _, p := range s.Properties {
		if p == name {
			return true
		}
	}
	return false
}

// StructInstanceType is a value built with `new T {...}`.
type StructInstanceType struct {
	Struct StructType
}

func (s StructInstanceType) Name() string { return s.Struct.TypeName }

// FunctionType records parameter names and the inferred return type.
type FunctionType struct {
	Params []string
	Return Type
}

func (f *FunctionType) Name() string {
	return "fun(" + strings.Join(f.Params, ", ") + ") -> " + typeName(f.Return)
}

// ModuleType is a module bound under an alias; Symbols is nil when its exports are unknown.
type ModuleType struct {
	Module  string
	Symbols Index
}

func (m ModuleType) Name() string { return "module " + m.Module }

type UnknownType struct{}

func (UnknownType) Name() string { return "unknown" }

// Index maps the module-level names of one module to their inferred types.
type Index map[string]Type

// Names lists the indexed names in sorted order.
func (idx Index) Names() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typeName(t Type) string {
	if t == nil {
		return "unknown"
	}
	return t.Name()
}

func isUnknownType(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(UnknownType)
	return ok
}

func isNumericType(t Type) bool {
	switch t.(type) {
	case IntegerType, FloatType:
		return true
	}
	return false
}

func isIntegerType(t Type) bool {
	_, ok := t.(IntegerType)
	return ok
}

func isStringType(t Type) bool {
	p, ok := t.(PrimitiveType)
	return ok && p.Kind == PrimitiveString
}

// sameType compares by name; unknown matches nothing.
func sameType(a, b Type) bool {
	if isUnknownType(a) || isUnknownType(b) {
		return false
	}
	return a.Name() == b.Name()
}

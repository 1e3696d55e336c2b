package runtime

import (
	"strconv"
	"strings"
	"sync"
)

var (
	builtinMu    sync.Mutex
	builtinTypes = map[string]*TypeDescriptor{}
)

// builtinType returns the shared descriptor for a builtin kind, creating it on first use.
func builtinType(name string) *TypeDescriptor {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	if td, ok := builtinTypes[name]; ok {
		return td
	}
	td := NewTypeDescriptor(name, nil)
	switch name {
	case "string":
		installStringMethods(td)
	case "array":
		installArrayMethods(td)
	case "tuple":
		installTupleMethods(td)
	}
	builtinTypes[name] = td
	return td
}

// Boolean

type Boolean struct {
	Base
	Val bool
}

var (
	True  = Boolean{Val: true}
	False = Boolean{Val: false}
)

func NewBoolean(v bool) Boolean {
	if v {
		return True
	}
	return False
}

func (b Boolean) Kind() Kind            { return KindBoolean }
func (b Boolean) Bool() bool            { return b.Val }
func (b Boolean) Show() string          { return strconv.FormatBool(b.Val) }
func (b Boolean) Type() *TypeDescriptor { return builtinType("bool") }

func (b Boolean) Equal(rhs Object) bool {
	o, ok := rhs.(Boolean)
	return ok && o.Val == b.Val
}

// Unit is the empty value, also used for omitted structural properties.
type Unit struct {
	Base
}

var UnitValue = Unit{}

func (Unit) Kind() Kind            { return KindUnit }
func (Unit) Bool() bool            { return false }
func (Unit) Show() string          { return "()" }
func (Unit) Type() *TypeDescriptor { return builtinType("unit") }

func (Unit) Equal(rhs Object) bool {
	_, ok := rhs.(Unit)
	return ok
}

// String is an immutable byte string.
type String struct {
	Base
	Val string
}

func NewString(s string) String { return String{Val: s} }

func (s String) Kind() Kind            { return KindString }
func (s String) Bool() bool            { return s.Val != "" }
func (s String) Show() string          { return s.Val }
func (s String) Type() *TypeDescriptor { return builtinType("string") }

func (s String) Equal(rhs Object) bool {
	o, ok := rhs.(String)
	return ok && o.Val == s.Val
}

func (s String) Compare(rhs Object) Ordering {
	o, ok := rhs.(String)
	if !ok {
		return Unordered
	}
	return Ordering(strings.Compare(s.Val, o.Val))
}

func (s String) Add(rhs Object) (Object, error) {
	o, ok := rhs.(String)
	if !ok {
		return nil, IllegalTypef("cannot concatenate string and %s", TypeName(rhs))
	}
	return NewString(s.Val + o.Val), nil
}

// Index yields the byte code at idx.
func (s String) Index(idx Object) (Object, error) {
	i, err := IndexOf(idx, len(s.Val))
	if err != nil {
		return nil, err
	}
	return NewU8(s.Val[i]), nil
}

func selfString(call *NativeCallContext) (String, error) {
	s, ok := call.Self.(String)
	if !ok {
		return String{}, IllegalTypef("string method called on %s", TypeName(call.Self))
	}
	return s, nil
}

func installStringMethods(td *TypeDescriptor) {
	td.DefineMethod(NewNativeFunction("size", 0, func(call *NativeCallContext, _ []Object) (Object, error) {
		s, err := selfString(call)
		if err != nil {
			return nil, err
		}
		return NewI32(int64(len(s.Val))), nil
	}))
	td.DefineMethod(NewNativeFunction("charAt", 1, func(call *NativeCallContext, args []Object) (Object, error) {
		s, err := selfString(call)
		if err != nil {
			return nil, err
		}
		return s.Index(args[0])
	}))
	td.DefineMethod(NewNativeFunction("substr", 2, func(call *NativeCallContext, args []Object) (Object, error) {
		s, err := selfString(call)
		if err != nil {
			return nil, err
		}
		start, err := IndexOf(args[0], len(s.Val)+1)
		if err != nil {
			return nil, err
		}
		n, err := IndexOf(args[1], len(s.Val)-start+1)
		if err != nil {
			return nil, err
		}
		return NewString(s.Val[start : start+n]), nil
	}))
}

func showElements(elems []Object) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = showElement(e)
	}
	return strings.Join(parts, ", ")
}

func equalElements(a, b []Object) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Array is a growable, mutable sequence.
type Array struct {
	Base
	Elements []Object
}

func NewArray(elems []Object) *Array { return &Array{Elements: elems} }

func (a *Array) Kind() Kind            { return KindArray }
func (a *Array) Bool() bool            { return len(a.Elements) > 0 }
func (a *Array) Show() string          { return "[" + showElements(a.Elements) + "]" }
func (a *Array) Type() *TypeDescriptor { return builtinType("array") }

func (a *Array) Equal(rhs Object) bool {
	o, ok := rhs.(*Array)
	return ok && (o == a || equalElements(a.Elements, o.Elements))
}

func (a *Array) Index(idx Object) (Object, error) {
	i, err := IndexOf(idx, len(a.Elements))
	if err != nil {
		return nil, err
	}
	return a.Elements[i], nil
}

func (a *Array) SetIndex(idx Object, value Object) error {
	i, err := IndexOf(idx, len(a.Elements))
	if err != nil {
		return err
	}
	a.Elements[i] = value
	return nil
}

// Shl appends rhs in place and returns the receiver.
func (a *Array) Shl(rhs Object) (Object, error) {
	a.Elements = append(a.Elements, rhs)
	return a, nil
}

func installArrayMethods(td *TypeDescriptor) {
	td.DefineMethod(NewNativeFunction("size", 0, func(call *NativeCallContext, _ []Object) (Object, error) {
		arr, ok := call.Self.(*Array)
		if !ok {
			return nil, IllegalTypef("array method called on %s", TypeName(call.Self))
		}
		return NewI32(int64(len(arr.Elements))), nil
	}))
	td.DefineMethod(NewNativeFunction("pop", 0, func(call *NativeCallContext, _ []Object) (Object, error) {
		arr, ok := call.Self.(*Array)
		if !ok {
			return nil, IllegalTypef("array method called on %s", TypeName(call.Self))
		}
		if len(arr.Elements) == 0 {
			return nil, RuntimeErrorf("pop from empty array")
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		return last, nil
	}))
}

// Tuple is a fixed-size sequence.
type Tuple struct {
	Base
	Elements []Object
}

func NewTuple(elems []Object) *Tuple { return &Tuple{Elements: elems} }

func (t *Tuple) Kind() Kind            { return KindTuple }
func (t *Tuple) Bool() bool            { return len(t.Elements) > 0 }
func (t *Tuple) Type() *TypeDescriptor { return builtinType("tuple") }

func (t *Tuple) Show() string {
	if len(t.Elements) == 1 {
		return "(" + showElement(t.Elements[0]) + ",)"
	}
	return "(" + showElements(t.Elements) + ")"
}

func (t *Tuple) Equal(rhs Object) bool {
	o, ok := rhs.(*Tuple)
	return ok && (o == t || equalElements(t.Elements, o.Elements))
}

func (t *Tuple) Index(idx Object) (Object, error) {
	i, err := IndexOf(idx, len(t.Elements))
	if err != nil {
		return nil, err
	}
	return t.Elements[i], nil
}

func (t *Tuple) SetIndex(idx Object, value Object) error {
	i, err := IndexOf(idx, len(t.Elements))
	if err != nil {
		return err
	}
	t.Elements[i] = value
	return nil
}

func installTupleMethods(td *TypeDescriptor) {
	td.DefineMethod(NewNativeFunction("size", 0, func(call *NativeCallContext, _ []Object) (Object, error) {
		tup, ok := call.Self.(*Tuple)
		if !ok {
			return nil, IllegalTypef("tuple method called on %s", TypeName(call.Self))
		}
		return NewI32(int64(len(tup.Elements))), nil
	}))
}

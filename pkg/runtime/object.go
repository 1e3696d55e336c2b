package runtime

import (
	"errors"
	"fmt"

	"ng/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindBoolean Kind = iota
	KindString
	KindArray
	KindTuple
	KindUnit
	KindStructural
	KindIntegral
	KindFloat
	KindModule
	KindType
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindUnit:
		return "unit"
	case KindStructural:
		return "structural"
	case KindIntegral:
		return "integral"
	case KindFloat:
		return "float"
	case KindModule:
		return "module"
	case KindType:
		return "type"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Ordering is the result of a three-way comparison.
type Ordering int8

const (
	Less      Ordering = -1
	Equal     Ordering = 0
	Greater   Ordering = 1
	Unordered Ordering = 2
)

// Negate flips the ordering for swapped operands.
func (o Ordering) Negate() Ordering {
	switch o {
	case Less:
		return Greater
	case Greater:
		return Less
	default:
		return o
	}
}

func (o Ordering) String() string {
	switch o {
	case Less:
		return "LT"
	case Equal:
		return "EQ"
	case Greater:
		return "GT"
	default:
		return "UNORDERED"
	}
}

// Operators is the operator protocol every value answers.
type Operators interface {
	Add(rhs Object) (Object, error)
	Sub(rhs Object) (Object, error)
	Mul(rhs Object) (Object, error)
	Div(rhs Object) (Object, error)
	Mod(rhs Object) (Object, error)
	Shl(rhs Object) (Object, error)
	Shr(rhs Object) (Object, error)
	Neg() (Object, error)
	Equal(rhs Object) bool
	Compare(rhs Object) Ordering
	Index(idx Object) (Object, error)
	SetIndex(idx Object, value Object) error
}

// Object is the shared behaviour of all NG runtime values.
type Object interface {
	Kind() Kind
	Show() string
	Bool() bool
	Type() *TypeDescriptor
	Operators
}

// Responder is implemented by values that customise dynamic member dispatch.
type Responder interface {
	Respond(name string, ctx *Context, args []Object) (Object, error)
}

var errOperatorMissing = errors.New("operator missing")

// Base supplies the default operator protocol: every operator is unimplemented
// and values are unordered. Concrete values embed it and override what they support.
type Base struct{}

func (Base) Add(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Sub(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Mul(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Div(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Mod(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Shl(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Shr(Object) (Object, error)      { return nil, errOperatorMissing }
func (Base) Neg() (Object, error)            { return nil, errOperatorMissing }
func (Base) Compare(Object) Ordering         { return Unordered }
func (Base) Index(Object) (Object, error)    { return nil, errOperatorMissing }
func (Base) SetIndex(Object, Object) error   { return errOperatorMissing }

// TypeName is the descriptor name of v, used in diagnostics.
func TypeName(v Object) string {
	if v == nil {
		return "<nil>"
	}
	if td := v.Type(); td != nil {
		return td.Name
	}
	return v.Kind().String()
}

func missing(err error, op string, v Object) error {
	if errors.Is(err, errOperatorMissing) {
		return NotImplementedf("operator %s is not implemented for %s", op, TypeName(v))
	}
	return err
}

// Apply evaluates a binary operator through the left operand's protocol.
func Apply(op ast.Operator, lhs, rhs Object) (Object, error) {
	if op.IsRelational() {
		return NewBoolean(Relate(op, lhs, rhs)), nil
	}
	var (
		res Object
		err error
	)
	switch op {
	case ast.OpAdd:
		res, err = lhs.Add(rhs)
	case ast.OpSub:
		res, err = lhs.Sub(rhs)
	case ast.OpMul:
		res, err = lhs.Mul(rhs)
	case ast.OpDiv:
		res, err = lhs.Div(rhs)
	case ast.OpMod:
		res, err = lhs.Mod(rhs)
	case ast.OpShl:
		res, err = lhs.Shl(rhs)
	case ast.OpShr:
		res, err = lhs.Shr(rhs)
	default:
		return nil, RuntimeErrorf("unsupported binary operator %s", op)
	}
	if err != nil {
		return nil, missing(err, string(op), lhs)
	}
	return res, nil
}

// Negate evaluates unary minus.
func Negate(v Object) (Object, error) {
	res, err := v.Neg()
	if err != nil {
		return nil, missing(err, "unary -", v)
	}
	return res, nil
}

// Relate derives all six relational operators from Equal and Compare.
func Relate(op ast.Operator, lhs, rhs Object) bool {
	switch op {
	case ast.OpEq:
		return lhs.Equal(rhs)
	case ast.OpNe:
		return !lhs.Equal(rhs)
	}
	ord := lhs.Compare(rhs)
	switch op {
	case ast.OpLt:
		return ord == Less
	case ast.OpGt:
		return ord == Greater
	case ast.OpLe:
		return ord == Less || ord == Equal
	case ast.OpGe:
		return ord == Greater || ord == Equal
	}
	return false
}

// GetIndex is the index-get operator.
func GetIndex(recv, idx Object) (Object, error) {
	res, err := recv.Index(idx)
	if err != nil {
		return nil, missing(err, "[]", recv)
	}
	return res, nil
}

// PutIndex is the index-set operator.
func PutIndex(recv, idx, value Object) error {
	if err := recv.SetIndex(idx, value); err != nil {
		return missing(err, "[]=", recv)
	}
	return nil
}

// Respond performs dynamic member dispatch (`recv.name(args...)`).
func Respond(recv Object, name string, ctx *Context, args []Object) (Object, error) {
	if r, ok := recv.(Responder); ok {
		return r.Respond(name, ctx, args)
	}
	return DefaultRespond(recv, name, ctx, args)
}

// DefaultRespond looks name up in the receiver's type descriptor and invokes it
// with self bound to the receiver.
func DefaultRespond(recv Object, name string, ctx *Context, args []Object) (Object, error) {
	if td := recv.Type(); td != nil {
		if fn, ok := td.Method(name); ok {
			return fn.Invoke(ctx, recv, args)
		}
	}
	return nil, RuntimeErrorf("%s has no member '%s'", TypeName(recv), name)
}

// showElement renders v inside a collection, quoting strings.
func showElement(v Object) string {
	if v == nil {
		return "<nil>"
	}
	if s, ok := v.(String); ok {
		return fmt.Sprintf("%q", s.Val)
	}
	return v.Show()
}

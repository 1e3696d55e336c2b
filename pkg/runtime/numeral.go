package runtime

import (
	"math"
	"strconv"
	"strings"

	"ng/interpreter-go/pkg/ast"
)

// Numeral is implemented by integral and floating point values.
type Numeral interface {
	Object
	ByteSize() int
	IsFloat() bool
	IsSigned() bool
}

// Integral is a fixed-width two's complement integer.
type Integral struct {
	Base
	width  int
	signed bool
	bits   uint64
}

// NewIntegral wraps v to the given byte width. Width must be 1, 2, 4 or 8.
func NewIntegral(width int, signed bool, v int64) Integral {
	return Integral{width: width, signed: signed, bits: wrapBits(uint64(v), width)}
}

// NewUnsigned builds an integral from an unsigned magnitude.
func NewUnsigned(width int, signed bool, v uint64) Integral {
	return Integral{width: width, signed: signed, bits: wrapBits(v, width)}
}

// NewI32 builds the default integral representation.
func NewI32(v int64) Integral { return NewIntegral(4, true, v) }

// NewU8 is the representation of character codes.
func NewU8(v byte) Integral { return NewUnsigned(1, false, uint64(v)) }

// IntegralFromLiteral validates a literal magnitude against its suffix.
func IntegralFromLiteral(v uint64, t ast.IntegerType) (Integral, error) {
	return integralFromLiteral(v, t, false)
}

// NegatedIntegralFromLiteral builds -v. A signed type admits one more magnitude
// when negated, so -128i8 is valid while 128i8 is not.
func NegatedIntegralFromLiteral(v uint64, t ast.IntegerType) (Integral, error) {
	return integralFromLiteral(v, t, true)
}

func integralFromLiteral(v uint64, t ast.IntegerType, negated bool) (Integral, error) {
	width, signed, ok := IntegerLayout(t)
	if !ok {
		return Integral{}, IllegalTypef("unknown integer type %q", t)
	}
	limit := ^uint64(0) >> (64 - 8*width)
	if signed {
		limit >>= 1
		if negated {
			limit++
		}
	}
	if v > limit {
		if negated {
			return Integral{}, RuntimeErrorf("literal -%d overflows %s", v, integralName(width, signed))
		}
		return Integral{}, RuntimeErrorf("literal %d overflows %s", v, integralName(width, signed))
	}
	if negated {
		v = -v
	}
	return NewUnsigned(width, signed, v), nil
}

// IntegerLayout maps a literal suffix to width and signedness; the empty suffix is i32.
func IntegerLayout(t ast.IntegerType) (width int, signed bool, ok bool) {
	switch t {
	case "", ast.IntegerTypeI32:
		return 4, true, true
	case ast.IntegerTypeI8:
		return 1, true, true
	case ast.IntegerTypeI16:
		return 2, true, true
	case ast.IntegerTypeI64:
		return 8, true, true
	case ast.IntegerTypeU8:
		return 1, false, true
	case ast.IntegerTypeU16:
		return 2, false, true
	case ast.IntegerTypeU32:
		return 4, false, true
	case ast.IntegerTypeU64:
		return 8, false, true
	}
	return 0, false, false
}

func wrapBits(v uint64, width int) uint64 {
	if width >= 8 {
		return v
	}
	return v & (uint64(1)<<(8*width) - 1)
}

func integralName(width int, signed bool) string {
	prefix := "u"
	if signed {
		prefix = "i"
	}
	return prefix + strconv.Itoa(width*8)
}

func (i Integral) Kind() Kind            { return KindIntegral }
func (i Integral) ByteSize() int         { return i.width }
func (i Integral) IsFloat() bool         { return false }
func (i Integral) IsSigned() bool        { return i.signed }
func (i Integral) Bool() bool            { return i.bits != 0 }
func (i Integral) Type() *TypeDescriptor { return builtinType(integralName(i.width, i.signed)) }

// Int64 is the value sign-extended (signed) or reinterpreted (unsigned).
func (i Integral) Int64() int64 {
	if !i.signed {
		return int64(i.bits)
	}
	shift := uint(64 - 8*i.width)
	return int64(i.bits<<shift) >> shift
}

func (i Integral) Uint64() uint64 { return i.bits }

func (i Integral) negative() bool { return i.signed && i.Int64() < 0 }

func (i Integral) Show() string {
	if i.signed {
		return strconv.FormatInt(i.Int64(), 10)
	}
	return strconv.FormatUint(i.bits, 10)
}

// promoteIntegral converts i to a representation at least as wide.
func promoteIntegral(i Integral, width int, signed bool) (Integral, error) {
	if i.width > width {
		return Integral{}, IllegalTypef("cannot promote %s to %s", integralName(i.width, i.signed), integralName(width, signed))
	}
	return NewUnsigned(width, signed, uint64(i.Int64())), nil
}

func (i Integral) toFloat(width int) (Float, error) {
	if i.width > width {
		return Float{}, IllegalTypef("cannot promote %s to f%d", integralName(i.width, i.signed), width*8)
	}
	if i.signed {
		return NewFloat(width, float64(i.Int64())), nil
	}
	return NewFloat(width, float64(i.bits)), nil
}

// unify brings two numerals to the representation of the wider one.
func unify(lhs, rhs Numeral) (Numeral, Numeral, error) {
	li, lInt := lhs.(Integral)
	ri, rInt := rhs.(Integral)
	switch {
	case lInt && rInt:
		width, signed := li.width, li.signed
		switch {
		case ri.width > li.width:
			width, signed = ri.width, ri.signed
		case ri.width == li.width:
			signed = li.signed && ri.signed
		}
		a, err := promoteIntegral(li, width, signed)
		if err != nil {
			return nil, nil, err
		}
		b, err := promoteIntegral(ri, width, signed)
		if err != nil {
			return nil, nil, err
		}
		return a, b, nil
	case lInt:
		rf := rhs.(Float)
		a, err := li.toFloat(mixedFloatWidth(li, rf))
		if err != nil {
			return nil, nil, err
		}
		return a, rf.widen(a.width), nil
	case rInt:
		lf := lhs.(Float)
		b, err := ri.toFloat(mixedFloatWidth(ri, lf))
		if err != nil {
			return nil, nil, err
		}
		return lf.widen(b.width), b, nil
	default:
		lf, rf := lhs.(Float), rhs.(Float)
		width := max(lf.width, rf.width)
		return lf.widen(width), rf.widen(width), nil
	}
}

func mixedFloatWidth(i Integral, f Float) int {
	if i.width == 8 {
		return 8
	}
	return max(i.width, f.width)
}

func numeralOperand(op string, lhs Object, rhs Object) (Numeral, error) {
	n, ok := rhs.(Numeral)
	if !ok {
		return nil, IllegalTypef("operator %s expects a numeral operand for %s, got %s", op, TypeName(lhs), TypeName(rhs))
	}
	return n, nil
}

type intOp func(a, b Integral) (Integral, error)
type floatOp func(a, b Float) (Float, error)

func arith(op string, lhs Numeral, rhs Object, iop intOp, fop floatOp) (Object, error) {
	n, err := numeralOperand(op, lhs, rhs)
	if err != nil {
		return nil, err
	}
	a, b, err := unify(lhs, n)
	if err != nil {
		return nil, err
	}
	if ai, ok := a.(Integral); ok {
		res, err := iop(ai, b.(Integral))
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	if fop == nil {
		return nil, NotImplementedf("operator %s is not implemented for %s", op, TypeName(a))
	}
	res, err := fop(a.(Float), b.(Float))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (i Integral) with(bits uint64) Integral {
	return Integral{width: i.width, signed: i.signed, bits: wrapBits(bits, i.width)}
}

func (i Integral) Add(rhs Object) (Object, error) {
	return arith("+", i, rhs,
		func(a, b Integral) (Integral, error) { return a.with(a.bits + b.bits), nil },
		func(a, b Float) (Float, error) { return NewFloat(a.width, a.val+b.val), nil })
}

func (i Integral) Sub(rhs Object) (Object, error) {
	return arith("-", i, rhs,
		func(a, b Integral) (Integral, error) { return a.with(a.bits - b.bits), nil },
		func(a, b Float) (Float, error) { return NewFloat(a.width, a.val-b.val), nil })
}

func (i Integral) Mul(rhs Object) (Object, error) {
	return arith("*", i, rhs,
		func(a, b Integral) (Integral, error) { return a.with(a.bits * b.bits), nil },
		func(a, b Float) (Float, error) { return NewFloat(a.width, a.val*b.val), nil })
}

func (i Integral) Div(rhs Object) (Object, error) {
	return arith("/", i, rhs, integralDiv, floatDiv)
}

func (i Integral) Mod(rhs Object) (Object, error) {
	return arith("%", i, rhs, integralMod, nil)
}

func integralDiv(a, b Integral) (Integral, error) {
	if b.bits == 0 {
		return Integral{}, RuntimeErrorf("division by zero")
	}
	if a.signed {
		return a.with(uint64(a.Int64() / b.Int64())), nil
	}
	return a.with(a.bits / b.bits), nil
}

func integralMod(a, b Integral) (Integral, error) {
	if b.bits == 0 {
		return Integral{}, RuntimeErrorf("modulus by zero")
	}
	if a.signed {
		return a.with(uint64(a.Int64() % b.Int64())), nil
	}
	return a.with(a.bits % b.bits), nil
}

func floatDiv(a, b Float) (Float, error) { return NewFloat(a.width, a.val/b.val), nil }

func shiftCount(op string, lhs Integral, rhs Object) (uint, error) {
	n, ok := rhs.(Integral)
	if !ok {
		return 0, IllegalTypef("operator %s expects an integral shift count, got %s", op, TypeName(rhs))
	}
	if n.negative() {
		return 0, RuntimeErrorf("negative shift count %s", n.Show())
	}
	if n.bits >= 64 {
		return 64, nil
	}
	return uint(n.bits), nil
}

func (i Integral) Shl(rhs Object) (Object, error) {
	n, err := shiftCount("<<", i, rhs)
	if err != nil {
		return nil, err
	}
	if n >= 64 {
		return i.with(0), nil
	}
	return i.with(i.bits << n), nil
}

func (i Integral) Shr(rhs Object) (Object, error) {
	n, err := shiftCount(">>", i, rhs)
	if err != nil {
		return nil, err
	}
	if i.signed {
		if n >= 64 {
			n = 63
		}
		return i.with(uint64(i.Int64() >> n)), nil
	}
	if n >= 64 {
		return i.with(0), nil
	}
	return i.with(i.bits >> n), nil
}

func (i Integral) Neg() (Object, error) { return i.with(-i.bits), nil }

func (i Integral) Equal(rhs Object) bool { return i.Compare(rhs) == Equal }

// Compare is exact across signedness; a wider or floating operand takes over
// the comparison with the result negated.
func (i Integral) Compare(rhs Object) Ordering {
	n, ok := rhs.(Numeral)
	if !ok {
		return Unordered
	}
	if n.IsFloat() || n.ByteSize() > i.width {
		return n.Compare(i).Negate()
	}
	o := n.(Integral)
	switch {
	case i.negative() && !o.negative():
		return Less
	case !i.negative() && o.negative():
		return Greater
	case i.negative():
		return orderInts(i.Int64(), o.Int64())
	default:
		return orderUints(uint64(i.Int64()), uint64(o.Int64()))
	}
}

func orderInts(a, b int64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}

func orderUints(a, b uint64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}

// Float is an IEEE-754 value of width 4 or 8.
type Float struct {
	Base
	width int
	val   float64
}

// NewFloat rounds v through float32 when width is 4.
func NewFloat(width int, v float64) Float {
	if width == 4 {
		v = float64(float32(v))
	}
	return Float{width: width, val: v}
}

func NewF64(v float64) Float { return NewFloat(8, v) }

// FloatFromLiteral maps a literal suffix to a float; the empty suffix is f64.
func FloatFromLiteral(v float64, t ast.FloatType) (Float, error) {
	switch t {
	case "", ast.FloatTypeF64:
		return NewFloat(8, v), nil
	case ast.FloatTypeF32:
		return NewFloat(4, v), nil
	}
	return Float{}, IllegalTypef("unknown float type %q", t)
}

func (f Float) widen(width int) Float {
	if width <= f.width {
		return f
	}
	return Float{width: width, val: f.val}
}

func (f Float) Kind() Kind            { return KindFloat }
func (f Float) ByteSize() int         { return f.width }
func (f Float) IsFloat() bool         { return true }
func (f Float) IsSigned() bool        { return true }
func (f Float) Bool() bool            { return f.val != 0 && !math.IsNaN(f.val) }
func (f Float) Type() *TypeDescriptor { return builtinType("f" + strconv.Itoa(f.width*8)) }
func (f Float) Float64() float64      { return f.val }

func (f Float) Show() string {
	s := strconv.FormatFloat(f.val, 'g', -1, f.width*8)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

func (f Float) Add(rhs Object) (Object, error) {
	return arith("+", f, rhs, nil, func(a, b Float) (Float, error) { return NewFloat(a.width, a.val+b.val), nil })
}

func (f Float) Sub(rhs Object) (Object, error) {
	return arith("-", f, rhs, nil, func(a, b Float) (Float, error) { return NewFloat(a.width, a.val-b.val), nil })
}

func (f Float) Mul(rhs Object) (Object, error) {
	return arith("*", f, rhs, nil, func(a, b Float) (Float, error) { return NewFloat(a.width, a.val*b.val), nil })
}

func (f Float) Div(rhs Object) (Object, error) {
	return arith("/", f, rhs, nil, floatDiv)
}

func (f Float) Mod(Object) (Object, error) {
	return nil, NotImplementedf("operator %% is not implemented for %s", TypeName(f))
}

func (f Float) Neg() (Object, error) { return NewFloat(f.width, -f.val), nil }

func (f Float) Equal(rhs Object) bool { return f.Compare(rhs) == Equal }

func (f Float) Compare(rhs Object) Ordering {
	n, ok := rhs.(Numeral)
	if !ok {
		return Unordered
	}
	if n.IsFloat() && n.ByteSize() > f.width {
		return n.Compare(f).Negate()
	}
	var other float64
	switch o := n.(type) {
	case Float:
		other = o.val
	case Integral:
		if o.signed {
			other = float64(o.Int64())
		} else {
			other = float64(o.bits)
		}
	}
	switch {
	case math.IsNaN(f.val) || math.IsNaN(other):
		return Unordered
	case f.val < other:
		return Less
	case f.val > other:
		return Greater
	}
	return Equal
}

// IndexOf converts an integral index into a slice position of a collection of size n.
func IndexOf(idx Object, n int) (int, error) {
	i, ok := idx.(Integral)
	if !ok {
		return 0, IllegalTypef("index must be integral, got %s", TypeName(idx))
	}
	if i.negative() || i.bits >= uint64(n) {
		return 0, RuntimeErrorf("index %s out of range [0, %d)", i.Show(), n)
	}
	return int(i.bits), nil
}

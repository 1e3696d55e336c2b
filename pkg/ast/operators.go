package ast

// Operator enumerates the tokens used by unary and binary expressions.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpEq  Operator = "=="
	OpNe  Operator = "!="
	OpLt  Operator = "<"
	OpGt  Operator = ">"
	OpLe  Operator = "<="
	OpGe  Operator = ">="
	OpShl Operator = "<<"
	OpShr Operator = ">>"
	OpAnd Operator = "&&"
	OpOr  Operator = "||"
	OpNot Operator = "!"
	OpNeg Operator = "-"
)

// IsRelational reports whether op is one of the six ordering/equality operators.
func (op Operator) IsRelational() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		return true
	}
	return false
}

// IsLogical reports whether op short-circuits.
func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

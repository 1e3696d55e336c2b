package ast

type NodeType string

const (
	NodeIdentifier          NodeType = "Identifier"
	NodeIntegerLiteral      NodeType = "IntegerLiteral"
	NodeFloatLiteral        NodeType = "FloatLiteral"
	NodeStringLiteral       NodeType = "StringLiteral"
	NodeCharLiteral         NodeType = "CharLiteral"
	NodeBooleanLiteral      NodeType = "BooleanLiteral"
	NodeUnitLiteral         NodeType = "UnitLiteral"
	NodeArrayLiteral        NodeType = "ArrayLiteral"
	NodeTupleLiteral        NodeType = "TupleLiteral"
	NodeUnaryExpression     NodeType = "UnaryExpression"
	NodeBinaryExpression    NodeType = "BinaryExpression"
	NodeFunctionCall        NodeType = "FunctionCall"
	NodeMemberAccess        NodeType = "MemberAccess"
	NodeMethodCall          NodeType = "MethodCall"
	NodeIndexExpression     NodeType = "IndexExpression"
	NodeNewExpression       NodeType = "NewExpression"
	NodePropertyInitializer NodeType = "PropertyInitializer"
	NodeCompoundStatement   NodeType = "CompoundStatement"
	NodeIfStatement         NodeType = "IfStatement"
	NodeReturnStatement     NodeType = "ReturnStatement"
	NodeAssignment          NodeType = "Assignment"
	NodeIndexAssignment     NodeType = "IndexAssignment"
	NodeMemberAssignment    NodeType = "MemberAssignment"
	NodeLoopBinding         NodeType = "LoopBinding"
	NodeLoopStatement       NodeType = "LoopStatement"
	NodeNextStatement       NodeType = "NextStatement"
	NodeValDefinition       NodeType = "ValDefinition"
	NodeFunctionDefinition  NodeType = "FunctionDefinition"
	NodeTypeDefinition      NodeType = "TypeDefinition"
	NodeImportStatement     NodeType = "ImportStatement"
	NodeExportStatement     NodeType = "ExportStatement"
	NodeModule              NodeType = "Module"
)

type Node interface {
	NodeType() NodeType
	Span() Span
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
	Pos  Span     `json:"span,omitempty"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Span() Span         { return n.Pos }
func (n *nodeImpl) setSpan(span Span) { n.Pos = span }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

type Definition interface {
	Node
	definitionNode()
}

type definitionMarker struct{}

func (definitionMarker) definitionNode() {}

type Literal interface {
	Expression
	literalNode()
}

type literalMarker struct{}

func (literalMarker) literalNode() {}

// Identifier

type Identifier struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Literals

// IntegerType is the width/signedness suffix of an integer literal.
type IntegerType string

const (
	IntegerTypeI8  IntegerType = "i8"
	IntegerTypeI16 IntegerType = "i16"
	IntegerTypeI32 IntegerType = "i32"
	IntegerTypeI64 IntegerType = "i64"
	IntegerTypeU8  IntegerType = "u8"
	IntegerTypeU16 IntegerType = "u16"
	IntegerTypeU32 IntegerType = "u32"
	IntegerTypeU64 IntegerType = "u64"
)

type FloatType string

const (
	FloatTypeF32 FloatType = "f32"
	FloatTypeF64 FloatType = "f64"
)

type IntegerLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value       uint64      `json:"value"`
	IntegerType IntegerType `json:"integerType,omitempty"`
}

func NewIntegerLiteral(value uint64, integerType IntegerType) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value, IntegerType: integerType}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value     float64   `json:"value"`
	FloatType FloatType `json:"floatType,omitempty"`
}

func NewFloatLiteral(value float64, floatType FloatType) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value, FloatType: floatType}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

// CharLiteral evaluates to the character's code as an unsigned byte-wide integral.
type CharLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value byte `json:"value"`
}

func NewCharLiteral(value byte) *CharLiteral {
	return &CharLiteral{nodeImpl: newNodeImpl(NodeCharLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type UnitLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker
}

func NewUnitLiteral() *UnitLiteral {
	return &UnitLiteral{nodeImpl: newNodeImpl(NodeUnitLiteral)}
}

type ArrayLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Elements []Expression `json:"elements"`
}

func NewArrayLiteral(elements []Expression) *ArrayLiteral {
	return &ArrayLiteral{nodeImpl: newNodeImpl(NodeArrayLiteral), Elements: elements}
}

type TupleLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Elements []Expression `json:"elements"`
}

func NewTupleLiteral(elements []Expression) *TupleLiteral {
	return &TupleLiteral{nodeImpl: newNodeImpl(NodeTupleLiteral), Elements: elements}
}

// Expressions

type UnaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator Operator   `json:"operator"`
	Operand  Expression `json:"operand"`
}

func NewUnaryExpression(operator Operator, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator Operator   `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator Operator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

// FunctionCall invokes a function resolved by name in the active context.
type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    *Identifier  `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(callee *Identifier, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Callee: callee, Arguments: args}
}

// MemberAccess reads `receiver.member` through dynamic dispatch with no arguments.
type MemberAccess struct {
	nodeImpl
	expressionMarker
	statementMarker

	Receiver Expression  `json:"receiver"`
	Member   *Identifier `json:"member"`
}

func NewMemberAccess(receiver Expression, member *Identifier) *MemberAccess {
	return &MemberAccess{nodeImpl: newNodeImpl(NodeMemberAccess), Receiver: receiver, Member: member}
}

// MethodCall is `receiver.member(args...)`.
type MethodCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Receiver  Expression   `json:"receiver"`
	Member    *Identifier  `json:"member"`
	Arguments []Expression `json:"arguments"`
}

func NewMethodCall(receiver Expression, member *Identifier, args []Expression) *MethodCall {
	return &MethodCall{nodeImpl: newNodeImpl(NodeMethodCall), Receiver: receiver, Member: member, Arguments: args}
}

type IndexExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Receiver Expression `json:"receiver"`
	Index    Expression `json:"index"`
}

func NewIndexExpression(receiver, index Expression) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Receiver: receiver, Index: index}
}

type PropertyInitializer struct {
	nodeImpl

	Name  *Identifier `json:"name"`
	Value Expression  `json:"value"`
}

func NewPropertyInitializer(name *Identifier, value Expression) *PropertyInitializer {
	return &PropertyInitializer{nodeImpl: newNodeImpl(NodePropertyInitializer), Name: name, Value: value}
}

// NewExpression constructs a structural object: `new T { a: 1 }`.
type NewExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	TypeName   *Identifier            `json:"typeName"`
	Properties []*PropertyInitializer `json:"properties"`
}

func NewNewExpression(typeName *Identifier, props []*PropertyInitializer) *NewExpression {
	return &NewExpression{nodeImpl: newNodeImpl(NodeNewExpression), TypeName: typeName, Properties: props}
}

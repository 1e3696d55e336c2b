package ast

// Statements

type CompoundStatement struct {
	nodeImpl
	statementMarker

	Body []Statement `json:"body"`
}

func NewCompoundStatement(body []Statement) *CompoundStatement {
	return &CompoundStatement{nodeImpl: newNodeImpl(NodeCompoundStatement), Body: body}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Then      Statement  `json:"then"`
	Else      Statement  `json:"else,omitempty"`
}

func NewIfStatement(condition Expression, then, els Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: condition, Then: then, Else: els}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

// Assignment rebinds an existing name: `x = e`.
type Assignment struct {
	nodeImpl
	statementMarker

	Target *Identifier `json:"target"`
	Value  Expression  `json:"value"`
}

func NewAssignment(target *Identifier, value Expression) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Target: target, Value: value}
}

type IndexAssignment struct {
	nodeImpl
	statementMarker

	Receiver Expression `json:"receiver"`
	Index    Expression `json:"index"`
	Value    Expression `json:"value"`
}

func NewIndexAssignment(receiver, index, value Expression) *IndexAssignment {
	return &IndexAssignment{nodeImpl: newNodeImpl(NodeIndexAssignment), Receiver: receiver, Index: index, Value: value}
}

type MemberAssignment struct {
	nodeImpl
	statementMarker

	Receiver Expression  `json:"receiver"`
	Member   *Identifier `json:"member"`
	Value    Expression  `json:"value"`
}

func NewMemberAssignment(receiver Expression, member *Identifier, value Expression) *MemberAssignment {
	return &MemberAssignment{nodeImpl: newNodeImpl(NodeMemberAssignment), Receiver: receiver, Member: member, Value: value}
}

type LoopBinding struct {
	nodeImpl

	Name  *Identifier `json:"name"`
	Value Expression  `json:"value"`
}

func NewLoopBinding(name *Identifier, value Expression) *LoopBinding {
	return &LoopBinding{nodeImpl: newNodeImpl(NodeLoopBinding), Name: name, Value: value}
}

// LoopStatement runs Body with its bindings until the body finishes without `next`.
type LoopStatement struct {
	nodeImpl
	statementMarker

	Bindings []*LoopBinding `json:"bindings"`
	Body     Statement      `json:"body"`
}

func NewLoopStatement(bindings []*LoopBinding, body Statement) *LoopStatement {
	return &LoopStatement{nodeImpl: newNodeImpl(NodeLoopStatement), Bindings: bindings, Body: body}
}

// NextStatement rebinds the innermost loop's variables positionally and restarts its body.
type NextStatement struct {
	nodeImpl
	statementMarker

	Values []Expression `json:"values"`
}

func NewNextStatement(values []Expression) *NextStatement {
	return &NextStatement{nodeImpl: newNodeImpl(NodeNextStatement), Values: values}
}

// Definitions

type ValDefinition struct {
	nodeImpl
	statementMarker
	definitionMarker

	ID    *Identifier `json:"id"`
	Value Expression  `json:"value"`
}

func NewValDefinition(id *Identifier, value Expression) *ValDefinition {
	return &ValDefinition{nodeImpl: newNodeImpl(NodeValDefinition), ID: id, Value: value}
}

type FunctionDefinition struct {
	nodeImpl
	statementMarker
	definitionMarker

	ID     *Identifier        `json:"id"`
	Params []*Identifier      `json:"params"`
	Body   *CompoundStatement `json:"body"`
}

func NewFunctionDefinition(id *Identifier, params []*Identifier, body *CompoundStatement) *FunctionDefinition {
	return &FunctionDefinition{nodeImpl: newNodeImpl(NodeFunctionDefinition), ID: id, Params: params, Body: body}
}

type TypeDefinition struct {
	nodeImpl
	statementMarker
	definitionMarker

	ID         *Identifier           `json:"id"`
	Properties []*Identifier         `json:"properties"`
	Methods    []*FunctionDefinition `json:"methods,omitempty"`
}

func NewTypeDefinition(id *Identifier, properties []*Identifier, methods []*FunctionDefinition) *TypeDefinition {
	return &TypeDefinition{nodeImpl: newNodeImpl(NodeTypeDefinition), ID: id, Properties: properties, Methods: methods}
}

// Modules

// Wildcard is the import/export name standing for "every exported name".
const Wildcard = "*"

type ImportStatement struct {
	nodeImpl

	Path  []string    `json:"path"`
	Names []string    `json:"names,omitempty"`
	Alias *Identifier `json:"alias,omitempty"`
}

func NewImportStatement(path []string, names []string, alias *Identifier) *ImportStatement {
	return &ImportStatement{nodeImpl: newNodeImpl(NodeImportStatement), Path: path, Names: names, Alias: alias}
}

type ExportStatement struct {
	nodeImpl

	Names []string `json:"names"`
}

func NewExportStatement(names []string) *ExportStatement {
	return &ExportStatement{nodeImpl: newNodeImpl(NodeExportStatement), Names: names}
}

// Module is the root of one compile unit.
type Module struct {
	nodeImpl

	Imports     []*ImportStatement `json:"imports,omitempty"`
	Exports     []*ExportStatement `json:"exports,omitempty"`
	Definitions []Definition       `json:"definitions,omitempty"`
	Body        []Statement        `json:"body"`
}

func NewModule(imports []*ImportStatement, exports []*ExportStatement, definitions []Definition, body []Statement) *Module {
	return &Module{nodeImpl: newNodeImpl(NodeModule), Imports: imports, Exports: exports, Definitions: definitions, Body: body}
}

// ExportedNames flattens every export statement of the module.
func (m *Module) ExportedNames() []string {
	var names []string
	for _, exp := range m.Exports {
		if exp == nil {
			continue
		}
		names = append(names, exp.Names...)
	}
	return names
}

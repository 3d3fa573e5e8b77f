// Package ast defines the surface syntax tree the parser produces and the
// HIR builder consumes. Struct fields and function arguments are ordered
// slices, not maps: source order matters for diagnostics and declared
// field order governs type layout.
package ast

import "github.com/arcturus-lang/armc/internal/typesys"

// Program is a whole parsed source file: its newtype declarations
// (already assembled into a type table, since the newtype dependency DAG
// must be known before any function body can be type-checked) and its
// function declarations.
type Program struct {
	TypeTable *typesys.Table
	Functions []*Function
}

// Param is one declared function argument, in declaration order.
type Param struct {
	Name string
	Type typesys.GenericType
}

// Function is one `fun` declaration.
type Function struct {
	Name       string
	TypeParams []string
	Args       []Param
	Body       []Statement
	RetType    typesys.GenericType
}

// Statement is the surface-level statement sum.
type Statement interface{ isStatement() }

type LetStmt struct {
	Var   string
	Type  typesys.GenericType
	Value Expression
}

type AssignStmt struct {
	Target LValue
	Value  Expression
}

type IfStmt struct {
	Condition Expression
	ThenBody  []Statement
	ElseBody  []Statement // nil means no else clause
}

type WhileStmt struct {
	Condition Expression
	Body      []Statement
}

type BreakStmt struct{}

type ContinueStmt struct{}

// ReturnStmt's Value is nil for a bare `return;` — the declared return
// type must be None in that case.
type ReturnStmt struct {
	Value Expression
}

type PrintStmt struct {
	Value Expression
}

func (LetStmt) isStatement()      {}
func (AssignStmt) isStatement()   {}
func (IfStmt) isStatement()       {}
func (WhileStmt) isStatement()    {}
func (BreakStmt) isStatement()    {}
func (ContinueStmt) isStatement() {}
func (ReturnStmt) isStatement()   {}
func (PrintStmt) isStatement()    {}

// LValue is the separate, narrower sum of assignable expressions, so that
// writing to a non-assignable expression is unrepresentable.
type LValue interface{ isLValue() }

type LVariable struct{ Name string }

type LFieldAccess struct {
	Of    LValue
	Field string
}

type LDeref struct{ Expr Expression }

func (LVariable) isLValue()    {}
func (LFieldAccess) isLValue() {}
func (LDeref) isLValue()       {}

// Expression is the surface expression sum.
type Expression interface{ isExpression() }

type IntLiteral struct{ Value int32 }

type BoolLiteral struct{ Value bool }

type VariableExpr struct{ Name string }

type BinOpExpr struct {
	Op    string // one of + - * % == <
	Left  Expression
	Right Expression
}

type FuncCallExpr struct {
	FuncName   string
	TypeArgs   []typesys.GenericType // explicit type arguments at a generic call site, e.g. f<&T>(...)
	Args       []Expression
}

type FieldAccessExpr struct {
	Expr  Expression
	Field string
}

// StructField is one field of a struct literal, in source order.
type StructField struct {
	Name  string
	Value Expression
}

type StructLiteralExpr struct {
	Type   typesys.GenericType
	Fields []StructField
}

type ReferenceExpr struct{ Expr Expression }

type DereferenceExpr struct{ Expr Expression }

func (IntLiteral) isExpression()        {}
func (BoolLiteral) isExpression()       {}
func (VariableExpr) isExpression()      {}
func (BinOpExpr) isExpression()         {}
func (FuncCallExpr) isExpression()      {}
func (FieldAccessExpr) isExpression()   {}
func (StructLiteralExpr) isExpression() {}
func (ReferenceExpr) isExpression()     {}
func (DereferenceExpr) isExpression()   {}

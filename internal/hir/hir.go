// Package hir is the HIR builder: name resolution, scope management,
// type-checking, and the lvalue/rvalue split. AST -> HIR.
package hir

import (
	"github.com/arcturus-lang/armc/internal/binops"
	"github.com/arcturus-lang/armc/internal/callgraph"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// Program is a whole lowered source file.
type Program struct {
	TypeTable *typesys.Table
	CallGraph *callgraph.Graph
	Functions map[ids.FuncID]*Function
	Entry     ids.FuncID
}

// Variable is a declared variable's name and type, keyed by VarID in
// Function.Variables.
type Variable struct {
	Name string
	Type typesys.GenericType
}

// Function is one lowered function body.
type Function struct {
	Name      string
	TypeVars  []ids.TypevarID
	Args      []ids.VarID
	Variables map[ids.VarID]Variable
	Body      []Statement
	RetType   typesys.GenericType
}

// Statement mirrors the AST statement sum, but operates over typed HIR
// expressions and places instead of surface syntax.
type Statement interface{ isHIRStatement() }

type LetStmt struct {
	Var   ids.VarID
	Value Expression
}

type AssignStmt struct {
	Target Place
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

// ReturnStmt.Value has a nil Kind for a bare `return;` and for the implicit
// `return;` that lowerFunction appends to the end of every None-returning
// body.
type ReturnStmt struct{ Value Expression }

type PrintStmt struct{ Value Expression }

func (LetStmt) isHIRStatement()      {}
func (AssignStmt) isHIRStatement()   {}
func (IfStmt) isHIRStatement()       {}
func (WhileStmt) isHIRStatement()    {}
func (BreakStmt) isHIRStatement()    {}
func (ContinueStmt) isHIRStatement() {}
func (ReturnStmt) isHIRStatement()   {}
func (PrintStmt) isHIRStatement()    {}

// Expression carries its inferred type alongside its kind.
type Expression struct {
	Type typesys.GenericType
	Kind ExpressionKind
}

type ExpressionKind interface{ isHIRExpressionKind() }

type IntLiteral struct{ Value int32 }
type BoolLiteral struct{ Value bool }
type VariableExpr struct{ Var ids.VarID }

type BinOpExpr struct {
	Op    binops.Operator
	Left  *Expression
	Right *Expression
}

type FuncCallExpr struct {
	Func       ids.FuncID
	TypeParams []typesys.GenericType
	Args       []Expression
}

type FieldAccessExpr struct {
	Expr  *Expression
	Field string
}

type StructLiteralExpr struct {
	Fields map[string]Expression
}

type ReferenceExpr struct{ Expr *Expression }
type DereferenceExpr struct{ Expr *Expression }

func (IntLiteral) isHIRExpressionKind()        {}
func (BoolLiteral) isHIRExpressionKind()       {}
func (VariableExpr) isHIRExpressionKind()      {}
func (BinOpExpr) isHIRExpressionKind()         {}
func (FuncCallExpr) isHIRExpressionKind()      {}
func (FieldAccessExpr) isHIRExpressionKind()   {}
func (StructLiteralExpr) isHIRExpressionKind() {}
func (ReferenceExpr) isHIRExpressionKind()     {}
func (DereferenceExpr) isHIRExpressionKind()   {}

// Place is an addressing expression, used only for assignment targets —
// the split that forbids writing to non-assignable expressions at the type
// level.
type Place struct {
	Type typesys.GenericType
	Kind PlaceKind
}

type PlaceKind interface{ isPlaceKind() }

type VariablePlace struct{ Var ids.VarID }

type StructFieldPlace struct {
	Of    *Place
	Field string
}

// DerefPlace's Expr is a full expression: the reference being dereferenced
// to obtain a place.
type DerefPlace struct{ Expr Expression }

func (VariablePlace) isPlaceKind()    {}
func (StructFieldPlace) isPlaceKind() {}
func (DerefPlace) isPlaceKind()       {}

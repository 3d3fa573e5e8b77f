// Package mir is the MIR builder: CFG construction. It flattens HIR's
// structured control flow into basic blocks with explicit terminators and
// introduces named temporary cells for every intermediate value. Types
// remain generic (GenericType) — monomorphization is the next stage's job.
package mir

import (
	"github.com/arcturus-lang/armc/internal/binops"
	"github.com/arcturus-lang/armc/internal/callgraph"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// Program is a whole lowered source file, still in terms of generic types.
// The call graph rides along unchanged from HIR: the monomorphizer closes
// over it rather than rediscovering callees from function bodies.
type Program struct {
	TypeTable *typesys.Table
	CallGraph *callgraph.Graph
	Functions map[ids.FuncID]*Function
	Entry     ids.FuncID
}

// Function is one lowered function body: its cells, its blocks, and the
// block execution enters through.
type Function struct {
	Name     string
	TypeVars []ids.TypevarID
	Args     []ids.CellID
	Cells    map[ids.CellID]Cell
	Blocks   map[ids.BlockID]*Block
	Entry    ids.BlockID
	RetType  typesys.GenericType
}

// Cell is a named storage location: a source variable, a function
// argument, or a compiler-introduced temporary.
type Cell struct {
	Type typesys.GenericType
	Kind CellKind
}

type CellKind interface{ isCellKind() }

type VarCell struct{ Name string }
type TempCell struct{}

func (VarCell) isCellKind()  {}
func (TempCell) isCellKind() {}

// Block is a straight-line statement sequence; every block ends with
// exactly one terminator and no statement follows it.
type Block struct {
	Statements []Statement
	Terminator Terminator
}

// Statement is a straight-line operation.
type Statement interface{ isMIRStatement() }

type Assign struct {
	Target Place
	Value  Value
}

type BinOp struct {
	Target Place
	Op     binops.Operator
	Left   Value
	Right  Value
}

type Call struct {
	Target     Place
	Func       ids.FuncID
	TypeParams []typesys.GenericType
	Args       []Value
}

type Print struct{ Value Value }

func (Assign) isMIRStatement()   {}
func (BinOp) isMIRStatement()    {}
func (Call) isMIRStatement()     {}
func (Print) isMIRStatement()    {}

// Terminator is the unique last operation of a block.
type Terminator interface{ isMIRTerminator() }

type Goto struct{ Target ids.BlockID }

type Branch struct {
	Condition Value
	Then      ids.BlockID
	Else      ids.BlockID
}

// Return's Value is the zero Value (untyped, nil Kind) when the function
// returns none and falls through without an explicit value.
type Return struct {
	Value    Value
	HasValue bool
}

func (Goto) isMIRTerminator()   {}
func (Branch) isMIRTerminator() {}
func (Return) isMIRTerminator() {}

// Value is a place-load, a literal, a struct literal, or an address-of.
type Value struct {
	Type typesys.GenericType
	Kind ValueKind
}

type ValueKind interface{ isMIRValueKind() }

type PlaceVal struct{ Place Place }
type IntLiteral struct{ Value int32 }
type BoolTrue struct{}
type BoolFalse struct{}
type StructLiteral struct{ Fields map[string]Value }
type ReferenceVal struct{ Place Place }

func (PlaceVal) isMIRValueKind()      {}
func (IntLiteral) isMIRValueKind()    {}
func (BoolTrue) isMIRValueKind()      {}
func (BoolFalse) isMIRValueKind()     {}
func (StructLiteral) isMIRValueKind() {}
func (ReferenceVal) isMIRValueKind()  {}

// Place is a cell-rooted addressing expression: a base cell (or a
// dereferenced reference cell) plus an ordered chain of field names.
type Place struct {
	Type       typesys.GenericType
	Base       PlaceBase
	FieldChain []string
}

type PlaceBase interface{ isPlaceBase() }

type CellBase struct{ Cell ids.CellID }
type DerefBase struct{ Cell ids.CellID }

func (CellBase) isPlaceBase()  {}
func (DerefBase) isPlaceBase() {}

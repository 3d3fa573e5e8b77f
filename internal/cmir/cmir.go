// Package cmir is the monomorphizer: MIR -> CMIR. It closes over the call
// graph from the entry point, clones each generic function once per
// concrete type-argument tuple reachable from main, and substitutes type
// variables everywhere. Every function id in a Program is monomorphic; no
// TypeVar is reachable from any cell, place, or value.
package cmir

import (
	"github.com/arcturus-lang/armc/internal/binops"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// Program is a whole monomorphized source file.
type Program struct {
	TypeTable *typesys.Table
	Functions map[ids.FuncID]*Function
	Entry     ids.FuncID
	// Newtypes is every concrete newtype instantiation reachable from the
	// monomorphized program (recursively, through struct fields), sorted by
	// its encoded (id, type arguments) key. The layout builder sorts it by genericity
	// rank before computing layouts.
	Newtypes []NewtypeInstance
}

// NewtypeInstance is one concrete instantiation of a user-declared newtype.
type NewtypeInstance struct {
	ID   ids.NewtypeID
	Args []typesys.ConcreteType
}

// Function is a single monomorphic function body.
type Function struct {
	Name    string
	Args    []ids.CellID
	Cells   map[ids.CellID]Cell
	Blocks  map[ids.BlockID]*Block
	Entry   ids.BlockID
	RetType typesys.ConcreteType
}

// Cell is a named storage location, now with a fully concrete type.
type Cell struct {
	Type typesys.ConcreteType
	Kind CellKind
}

type CellKind interface{ isCellKind() }

type VarCell struct{ Name string }
type TempCell struct{}

func (VarCell) isCellKind()  {}
func (TempCell) isCellKind() {}

type Block struct {
	Statements []Statement
	Terminator Terminator
}

type Statement interface{ isStatement() }

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

// Call no longer carries type parameters: Func already names the
// monomorphic target.
type Call struct {
	Target Place
	Func   ids.FuncID
	Args   []Value
}

type Print struct{ Value Value }

func (Assign) isStatement() {}
func (BinOp) isStatement()  {}
func (Call) isStatement()   {}
func (Print) isStatement()  {}

type Terminator interface{ isTerminator() }

type Goto struct{ Target ids.BlockID }

type Branch struct {
	Condition Value
	Then      ids.BlockID
	Else      ids.BlockID
}

type Return struct {
	Value    Value
	HasValue bool
}

func (Goto) isTerminator()   {}
func (Branch) isTerminator() {}
func (Return) isTerminator() {}

type Value struct {
	Type typesys.ConcreteType
	Kind ValueKind
}

type ValueKind interface{ isValueKind() }

type PlaceVal struct{ Place Place }
type IntLiteral struct{ Value int32 }
type BoolTrue struct{}
type BoolFalse struct{}
type StructLiteral struct{ Fields map[string]Value }
type ReferenceVal struct{ Place Place }

func (PlaceVal) isValueKind()      {}
func (IntLiteral) isValueKind()    {}
func (BoolTrue) isValueKind()      {}
func (BoolFalse) isValueKind()     {}
func (StructLiteral) isValueKind() {}
func (ReferenceVal) isValueKind()  {}

type Place struct {
	Type       typesys.ConcreteType
	Base       PlaceBase
	FieldChain []string
}

type PlaceBase interface{ isPlaceBase() }

type CellBase struct{ Cell ids.CellID }
type DerefBase struct{ Cell ids.CellID }

func (CellBase) isPlaceBase()  {}
func (DerefBase) isPlaceBase() {}

// Package lir is the layout & LIR builder: CMIR -> LIR. Types are erased
// entirely; every cell becomes a fixed-size stack chunk, every place
// becomes a concrete (base-chunk, byte-offset) pair, and aggregate moves
// are decomposed into per-field stores.
package lir

import (
	"github.com/arcturus-lang/armc/internal/binops"
	"github.com/arcturus-lang/armc/internal/ids"
)

type Program struct {
	Functions map[ids.FuncID]*Function
	Entry     ids.FuncID
}

// Function's Chunks maps every cell id (argument, local, or temporary) to
// its size in bytes; Args lists the argument cells in declaration order.
type Function struct {
	Blocks map[ids.BlockID]*Block
	Entry  ids.BlockID
	Chunks map[ids.CellID]int
	Args   []ids.CellID
}

type Block struct {
	Statements []Statement
	Terminator Terminator
}

type Statement interface{ isStatement() }

type Store struct {
	Dest  Place
	Value Value
}

type BinOp struct {
	Dest  Place
	Op    binops.Operator
	Left  Value
	Right Value
}

type Call struct {
	Dest Place
	Func ids.FuncID
	Args []Place
}

type Print struct{ Value Value }

func (Store) isStatement() {}
func (BinOp) isStatement() {}
func (Call) isStatement()  {}
func (Print) isStatement() {}

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

// Value carries its size alongside its kind — types are gone by this
// stage.
type Value struct {
	Size int
	Kind ValueKind
}

type ValueKind interface{ isValueKind() }

type PlaceVal struct{ Place Place }
type IntLiteral struct{ Value int32 }
type BoolTrue struct{}
type BoolFalse struct{}
type ReferenceVal struct{ Place Place }

func (PlaceVal) isValueKind()     {}
func (IntLiteral) isValueKind()   {}
func (BoolTrue) isValueKind()     {}
func (BoolFalse) isValueKind()    {}
func (ReferenceVal) isValueKind() {}

// Place is fully concrete: a chunk plus a byte offset, either a local
// (the chunk itself holds the data) or a deref (the chunk holds a pointer
// to the data).
type Place struct {
	Size int
	Kind PlaceKind
}

type PlaceKind interface{ isPlaceKind() }

type Local struct {
	Base   ids.CellID
	Offset int
}

type Deref struct {
	Pointer ids.CellID
	Offset  int
}

func (Local) isPlaceKind() {}
func (Deref) isPlaceKind() {}

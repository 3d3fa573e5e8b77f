// Package ids provides the typed, opaque identifiers used throughout every
// IR stage. Every cross-reference between IR nodes is one of these — an
// index into a map owned by the enclosing container — never a raw pointer,
// which keeps the graph-shaped IRs trivially printable and clonable.
package ids

// ID is satisfied by every identifier type below. It exists so that
// Factory can be written once and reused for functions, blocks, cells,
// variables, newtypes and type variables alike.
type ID interface {
	comparable
	raw() int
}

// FuncID names a function, generic or (post-monomorphization) concrete.
type FuncID struct{ n int }

func (f FuncID) raw() int { return f.n }

// BlockID names a basic block within one function's CFG.
type BlockID struct{ n int }

func (b BlockID) raw() int { return b.n }

// CellID names a Cell: a source variable, a compiler-introduced temporary,
// or a function argument. Also reused, post-layout, to index LIR chunks.
type CellID struct{ n int }

func (c CellID) raw() int { return c.n }

// VarID names a source-level variable at the HIR stage, before it is given
// a Cell by the MIR builder.
type VarID struct{ n int }

func (v VarID) raw() int { return v.n }

// NewtypeID names a user-declared struct/enum type definition.
type NewtypeID struct{ n int }

func (t NewtypeID) raw() int { return t.n }

// TypevarID names a type parameter bound by a generic function or newtype.
type TypevarID struct{ n int }

func (t TypevarID) raw() int { return t.n }

// Factory hands out a monotonically increasing sequence of ids of one type.
// Factories are owned by a single builder and never shared across passes;
// there is no process-wide counter.
type Factory[I ID] struct {
	next int
	make func(int) I
}

// NewFactory builds a Factory starting at zero, given the constructor for
// the id type in question (e.g. func(n int) FuncID { return FuncID{n} }).
func NewFactory[I ID](make func(int) I) *Factory[I] {
	return &Factory[I]{make: make}
}

// NewFactoryFrom is NewFactory, but starting the counter at start instead of
// zero — used when a pass needs its fresh ids to not collide with ids it
// carried over from the previous stage.
func NewFactoryFrom[I ID](start int, make func(int) I) *Factory[I] {
	return &Factory[I]{next: start, make: make}
}

// Next allocates and returns the next id in the sequence.
func (f *Factory[I]) Next() I {
	id := f.make(f.next)
	f.next++
	return id
}

func NewFuncID(n int) FuncID         { return FuncID{n} }
func NewBlockID(n int) BlockID       { return BlockID{n} }
func NewCellID(n int) CellID         { return CellID{n} }
func NewVarID(n int) VarID           { return VarID{n} }
func NewNewtypeID(n int) NewtypeID   { return NewtypeID{n} }
func NewTypevarID(n int) TypevarID   { return TypevarID{n} }

func (f FuncID) Raw() int     { return f.n }
func (b BlockID) Raw() int    { return b.n }
func (c CellID) Raw() int     { return c.n }
func (v VarID) Raw() int      { return v.n }
func (t NewtypeID) Raw() int  { return t.n }
func (t TypevarID) Raw() int  { return t.n }

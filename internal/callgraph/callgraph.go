// Package callgraph records, for every generic function, the calls it
// makes and the generic type arguments used at each call site. The
// monomorphizer closes over this graph from the entry point instead of
// re-walking HIR/MIR bodies to discover callees.
package callgraph

import (
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// Callee is one call site: the function called and the generic type
// arguments supplied at that site, still in terms of the caller's own type
// parameters.
type Callee struct {
	Func       ids.FuncID
	TypeParams []typesys.GenericType
}

// ConcreteCallee is a Callee after its type arguments have been
// monomorphized against a specific caller instantiation.
type ConcreteCallee struct {
	Func       ids.FuncID
	TypeParams []typesys.ConcreteType
}

// Graph maps every generic function to its declared type-parameter list and
// the calls it makes.
type Graph struct {
	typevars map[ids.FuncID][]ids.TypevarID
	calls    map[ids.FuncID][]Callee
}

// New builds an empty Graph seeded with every function's own type
// parameters, needed later to bind a caller's concrete type arguments
// against its declared type-parameter list before substituting them
// through its call sites.
func New(funcs map[ids.FuncID][]ids.TypevarID) *Graph {
	g := &Graph{
		typevars: make(map[ids.FuncID][]ids.TypevarID, len(funcs)),
		calls:    make(map[ids.FuncID][]Callee, len(funcs)),
	}
	for id, tvs := range funcs {
		g.typevars[id] = tvs
		g.calls[id] = nil
	}
	return g
}

// AddCallee records that caller calls callee with the given (still
// caller-generic) type parameters.
func (g *Graph) AddCallee(caller ids.FuncID, callee Callee) {
	g.calls[caller] = append(g.calls[caller], callee)
}

// ConcreteCallees binds the caller's own concrete type arguments against its
// declared type parameters, then substitutes them through every recorded
// call site, yielding each callee's fully concrete type-argument vector.
func (g *Graph) ConcreteCallees(caller ids.FuncID, typeParams []typesys.ConcreteType) []ConcreteCallee {
	tvs := g.typevars[caller]
	if len(tvs) != len(typeParams) {
		panic("callgraph: monomorphization requested with wrong number of type parameters")
	}
	binding := typesys.NewBinding()
	for i, tv := range tvs {
		binding.Bind(tv, typeParams[i])
	}
	out := make([]ConcreteCallee, 0, len(g.calls[caller]))
	for _, callee := range g.calls[caller] {
		concrete := make([]typesys.ConcreteType, len(callee.TypeParams))
		for i, tp := range callee.TypeParams {
			concrete[i] = tp.Monomorphize(binding)
		}
		out = append(out, ConcreteCallee{Func: callee.Func, TypeParams: concrete})
	}
	return out
}

package typesys

import "github.com/arcturus-lang/armc/internal/ids"

// Binding maps a generic function or newtype's type parameters to concrete
// types, the environment Monomorphize substitutes through a GenericType.
type Binding struct {
	vals map[ids.TypevarID]ConcreteType
}

// NewBinding returns an empty Binding.
func NewBinding() *Binding {
	return &Binding{vals: make(map[ids.TypevarID]ConcreteType)}
}

// Bind records that tv resolves to t.
func (b *Binding) Bind(tv ids.TypevarID, t ConcreteType) {
	b.vals[tv] = t
}

// Resolve looks up tv. Panics if tv is unbound — every TypeVar reachable
// at monomorphization time has been bound by the caller from the generic
// function's own type-parameter list.
func (b *Binding) Resolve(tv ids.TypevarID) ConcreteType {
	t, ok := b.vals[tv]
	if !ok {
		panic("typesys: unbound type variable in monomorphization")
	}
	return t
}

// GenericBinding maps type parameters to still-generic types, the
// environment Bind (as opposed to Monomorphize) substitutes through — used
// when a generic newtype is referenced from inside another generic context
// (its type arguments may themselves contain type variables).
type GenericBinding struct {
	vals map[ids.TypevarID]GenericType
}

func NewGenericBinding() *GenericBinding {
	return &GenericBinding{vals: make(map[ids.TypevarID]GenericType)}
}

func (b *GenericBinding) Bind(tv ids.TypevarID, t GenericType) {
	b.vals[tv] = t
}

func (b *GenericBinding) Resolve(tv ids.TypevarID) (GenericType, bool) {
	t, ok := b.vals[tv]
	return t, ok
}

// Monomorphize substitutes every TypeVar in t via binding, producing a
// fully concrete type.
func (t GenericType) Monomorphize(binding *Binding) ConcreteType {
	switch t.kind {
	case kindPrim:
		return PrimC(t.prim)
	case kindReference:
		inner := t.ref.Monomorphize(binding)
		return ReferenceC(inner)
	case kindNewType:
		args := make([]ConcreteType, len(t.typeArgs))
		for i, a := range t.typeArgs {
			args[i] = a.Monomorphize(binding)
		}
		return NewTypeC(t.newtype, args)
	case kindTypeVar:
		return binding.Resolve(t.typevar)
	default:
		panic("typesys: malformed GenericType")
	}
}

// Bind substitutes every TypeVar in t that appears in params, leaving any
// other type variable (e.g. one bound further out, in an enclosing
// generic's own parameter list) untouched. HIR typing needs this
// generic-to-generic form because a newtype's fields may be bound against
// type arguments that themselves still contain type variables (see
// Table.Bind).
func (t GenericType) Bind(params *GenericBinding) GenericType {
	switch t.kind {
	case kindPrim:
		return t
	case kindReference:
		inner := t.ref.Bind(params)
		return ReferenceG(inner)
	case kindNewType:
		args := make([]GenericType, len(t.typeArgs))
		for i, a := range t.typeArgs {
			args[i] = a.Bind(params)
		}
		return NewTypeG(t.newtype, args)
	case kindTypeVar:
		if resolved, ok := params.Resolve(t.typevar); ok {
			return resolved
		}
		return t
	default:
		panic("typesys: malformed GenericType")
	}
}

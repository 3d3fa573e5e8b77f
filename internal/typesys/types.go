// Package typesys is the type model and type table: the two parallel
// universes of generic and concrete types, newtype definitions, and the
// table that binds, monomorphizes, and ranks them.
//
// Field order within a struct is a plain ordered slice, preserved exactly
// as declared — it governs layout, so it must never depend on map
// iteration order or name sorting.
package typesys

import (
	"strconv"

	"github.com/arcturus-lang/armc/internal/ids"
)

// Prim is the three built-in primitive kinds.
type Prim int

const (
	Integer Prim = iota
	Bool
	None
)

func (p Prim) String() string {
	switch p {
	case Integer:
		return "int"
	case Bool:
		return "bool"
	case None:
		return "none"
	default:
		return "?"
	}
}

// kind discriminates the sum inside GenericType/ConcreteType. Both types
// share this tag set minus TypeVar, which only GenericType carries.
type kind int

const (
	kindPrim kind = iota
	kindReference
	kindNewType
	kindTypeVar
)

// GenericType is a type possibly still containing type variables, as seen
// before monomorphization (HIR/MIR).
type GenericType struct {
	kind     kind
	prim     Prim
	ref      *GenericType
	newtype  ids.NewtypeID
	typeArgs []GenericType
	typevar  ids.TypevarID
}

// ConcreteType is a fully resolved type, as seen after monomorphization
// (CMIR/LIR). It has no TypeVar case.
type ConcreteType struct {
	kind     kind
	prim     Prim
	ref      *ConcreteType
	newtype  ids.NewtypeID
	typeArgs []ConcreteType
}

// PrimG / PrimC build a primitive generic/concrete type.
func PrimG(p Prim) GenericType { return GenericType{kind: kindPrim, prim: p} }
func PrimC(p Prim) ConcreteType { return ConcreteType{kind: kindPrim, prim: p} }

// ReferenceG / ReferenceC build a reference type around an inner type.
func ReferenceG(inner GenericType) GenericType {
	return GenericType{kind: kindReference, ref: &inner}
}
func ReferenceC(inner ConcreteType) ConcreteType {
	return ConcreteType{kind: kindReference, ref: &inner}
}

// NewTypeG / NewTypeC build a reference to a user-declared newtype,
// instantiated with the given type arguments.
func NewTypeG(id ids.NewtypeID, args []GenericType) GenericType {
	return GenericType{kind: kindNewType, newtype: id, typeArgs: args}
}
func NewTypeC(id ids.NewtypeID, args []ConcreteType) ConcreteType {
	return ConcreteType{kind: kindNewType, newtype: id, typeArgs: args}
}

// TypeVarG builds an unresolved type-variable reference; only meaningful
// inside a GenericType.
func TypeVarG(id ids.TypevarID) GenericType {
	return GenericType{kind: kindTypeVar, typevar: id}
}

// Accessors so other packages can pattern-match without reaching into
// unexported fields.

func (t GenericType) IsPrim() (Prim, bool) {
	if t.kind == kindPrim {
		return t.prim, true
	}
	return 0, false
}
func (t GenericType) IsReference() (GenericType, bool) {
	if t.kind == kindReference {
		return *t.ref, true
	}
	return GenericType{}, false
}
func (t GenericType) IsNewType() (ids.NewtypeID, []GenericType, bool) {
	if t.kind == kindNewType {
		return t.newtype, t.typeArgs, true
	}
	return ids.NewtypeID{}, nil, false
}
func (t GenericType) IsTypeVar() (ids.TypevarID, bool) {
	if t.kind == kindTypeVar {
		return t.typevar, true
	}
	return ids.TypevarID{}, false
}

func (t ConcreteType) IsPrim() (Prim, bool) {
	if t.kind == kindPrim {
		return t.prim, true
	}
	return 0, false
}
func (t ConcreteType) IsReference() (ConcreteType, bool) {
	if t.kind == kindReference {
		return *t.ref, true
	}
	return ConcreteType{}, false
}
func (t ConcreteType) IsNewType() (ids.NewtypeID, []ConcreteType, bool) {
	if t.kind == kindNewType {
		return t.newtype, t.typeArgs, true
	}
	return ids.NewtypeID{}, nil, false
}

// Equal is deep structural equality, used by HIR typing (== requires equal
// operand types) and by tests comparing IR trees.
func (t GenericType) Equal(other GenericType) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case kindPrim:
		return t.prim == other.prim
	case kindReference:
		return t.ref.Equal(*other.ref)
	case kindNewType:
		if t.newtype != other.newtype || len(t.typeArgs) != len(other.typeArgs) {
			return false
		}
		for i := range t.typeArgs {
			if !t.typeArgs[i].Equal(other.typeArgs[i]) {
				return false
			}
		}
		return true
	case kindTypeVar:
		return t.typevar == other.typevar
	default:
		return false
	}
}

func (t ConcreteType) Equal(other ConcreteType) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case kindPrim:
		return t.prim == other.prim
	case kindReference:
		return t.ref.Equal(*other.ref)
	case kindNewType:
		if t.newtype != other.newtype || len(t.typeArgs) != len(other.typeArgs) {
			return false
		}
		for i := range t.typeArgs {
			if !t.typeArgs[i].Equal(other.typeArgs[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (t GenericType) String() string {
	switch t.kind {
	case kindPrim:
		return t.prim.String()
	case kindReference:
		return "&" + t.ref.String()
	case kindNewType:
		s := "newtype#" + strconv.Itoa(t.newtype.Raw())
		for _, a := range t.typeArgs {
			s += "<" + a.String() + ">"
		}
		return s
	case kindTypeVar:
		return "'t" + strconv.Itoa(t.typevar.Raw())
	default:
		return "?"
	}
}

func (t ConcreteType) String() string {
	switch t.kind {
	case kindPrim:
		return t.prim.String()
	case kindReference:
		return "&" + t.ref.String()
	case kindNewType:
		s := "newtype#" + strconv.Itoa(t.newtype.Raw())
		for _, a := range t.typeArgs {
			s += "<" + a.String() + ">"
		}
		return s
	default:
		return "?"
	}
}

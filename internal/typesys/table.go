package typesys

import (
	"errors"
	"fmt"

	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/depgraph"
	"github.com/arcturus-lang/armc/internal/ids"
)

// shapeKind discriminates NewtypeShape's two forms.
type shapeKind int

const (
	shapeStruct shapeKind = iota
	shapeEnum
)

// Field is one named field of a struct shape, in declaration order.
type Field[T any] struct {
	Name string
	Type T
}

// NewtypeShape is a newtype's definition body, parametric over whether its
// field/variant types are still generic or fully concrete.
type NewtypeShape[T any] struct {
	kind     shapeKind
	Fields   []Field[T]
	Variants []T
}

func StructShape[T any](fields []Field[T]) NewtypeShape[T] {
	return NewtypeShape[T]{kind: shapeStruct, Fields: fields}
}

func EnumShape[T any](variants []T) NewtypeShape[T] {
	return NewtypeShape[T]{kind: shapeEnum, Variants: variants}
}

func (s NewtypeShape[T]) IsStruct() ([]Field[T], bool) {
	if s.kind == shapeStruct {
		return s.Fields, true
	}
	return nil, false
}

func (s NewtypeShape[T]) IsEnum() ([]T, bool) {
	if s.kind == shapeEnum {
		return s.Variants, true
	}
	return nil, false
}

// NewtypeDef is a newtype's declared type parameters plus its generic
// shape, as assembled by the parser from struct declarations.
type NewtypeDef struct {
	TypeParams []ids.TypevarID
	Shape      NewtypeShape[GenericType]
}

// ErrUnimplementedEnum is returned wherever a struct literal, field access,
// bind, monomorphize, or layout step would need to operate on an Enum
// shape. Enum exists in the type model but has no lowering path yet; this
// is a distinct implementation-limit error, not one of the ten
// language-error taxonomy kinds in internal/cerrors, since no source
// program is "wrong" for naming an enum — the compiler simply cannot yet
// lower one.
var ErrUnimplementedEnum = errors.New("typesys: enum shapes are not yet implemented")

// Table is the single source of truth for the shape of every declared
// type.
type Table struct {
	defs      map[ids.NewtypeID]NewtypeDef
	topoOrder []ids.NewtypeID
}

// Build accepts the user's newtype definitions, computes their dependency
// DAG (a newtype depends on every NewType id mentioned in any field or
// variant), and topologically sorts it. Returns a CyclicTypes-flavored
// error (see internal/cerrors) if the sort is short, i.e. the graph has a
// cycle.
func Build(defs map[ids.NewtypeID]NewtypeDef) (*Table, error) {
	deps := make(map[ids.NewtypeID][]ids.NewtypeID, len(defs))
	for id, def := range defs {
		var ds []ids.NewtypeID
		switch {
		case def.Shape.kind == shapeStruct:
			for _, f := range def.Shape.Fields {
				if nt, _, ok := f.Type.IsNewType(); ok {
					ds = append(ds, nt)
				}
			}
		case def.Shape.kind == shapeEnum:
			for _, v := range def.Shape.Variants {
				if nt, _, ok := v.IsNewType(); ok {
					ds = append(ds, nt)
				}
			}
		}
		deps[id] = ds
	}

	order, ok := depgraph.Sort(deps)
	if !ok {
		return nil, cerrors.New(cerrors.CyclicTypes, "newtype definitions contain a cycle")
	}
	return &Table{defs: defs, topoOrder: order}, nil
}

// TopoOrder returns newtype ids in dependency-first order: every type
// appears after the types its fields/variants mention.
func (t *Table) TopoOrder() []ids.NewtypeID { return t.topoOrder }

// Def returns the raw declaration for id: its type parameters and its
// unbound shape.
func (t *Table) Def(id ids.NewtypeID) NewtypeDef { return t.defs[id] }

// Bind substitutes typeParams for id's type parameters in its declared
// shape, producing a shape that may still contain type variables bound
// further out (e.g. an enclosing generic function's own parameters) — used
// during HIR type-checking of a struct literal or field access inside a
// generic function body.
func (t *Table) Bind(id ids.NewtypeID, typeParams []GenericType) (NewtypeShape[GenericType], error) {
	def := t.defs[id]
	if def.Shape.kind == shapeEnum {
		return NewtypeShape[GenericType]{}, ErrUnimplementedEnum
	}
	if len(typeParams) != len(def.TypeParams) {
		return NewtypeShape[GenericType]{}, cerrors.New(cerrors.ArityMismatch,
			"type instantiated with %d type arguments; %d declared", len(typeParams), len(def.TypeParams))
	}
	params := NewGenericBinding()
	for i, tv := range def.TypeParams {
		params.Bind(tv, typeParams[i])
	}
	fields := make([]Field[GenericType], len(def.Shape.Fields))
	for i, f := range def.Shape.Fields {
		fields[i] = Field[GenericType]{Name: f.Name, Type: f.Type.Bind(params)}
	}
	return StructShape(fields), nil
}

// Monomorphize is Bind against a fully concrete environment, used by the
// monomorphizer and the layout builder.
func (t *Table) Monomorphize(id ids.NewtypeID, typeParams []ConcreteType) (NewtypeShape[ConcreteType], error) {
	def := t.defs[id]
	if def.Shape.kind == shapeEnum {
		return NewtypeShape[ConcreteType]{}, ErrUnimplementedEnum
	}
	if len(typeParams) != len(def.TypeParams) {
		return NewtypeShape[ConcreteType]{}, cerrors.New(cerrors.ArityMismatch,
			"type instantiated with %d type arguments; %d declared", len(typeParams), len(def.TypeParams))
	}
	binding := NewBinding()
	for i, tv := range def.TypeParams {
		binding.Bind(tv, typeParams[i])
	}
	fields := make([]Field[ConcreteType], len(def.Shape.Fields))
	for i, f := range def.Shape.Fields {
		fields[i] = Field[ConcreteType]{Name: f.Name, Type: f.Type.Monomorphize(binding)}
	}
	return StructShape(fields), nil
}

// GenericityRank is a recursive structural measure: primitives rank 0, a
// reference ranks one more than its pointee, and a struct ranks one more
// than the maximum rank of its fields after substitution. It governs the
// order in which layouts must be built so that a type's components always
// have their sizes computed first.
func (t *Table) GenericityRank(typ ConcreteType) (int, error) {
	if _, ok := typ.IsPrim(); ok {
		return 0, nil
	}
	if inner, ok := typ.IsReference(); ok {
		r, err := t.GenericityRank(inner)
		if err != nil {
			return 0, err
		}
		return r + 1, nil
	}
	id, args, ok := typ.IsNewType()
	if !ok {
		return 0, fmt.Errorf("typesys: malformed ConcreteType")
	}
	shape, err := t.Monomorphize(id, args)
	if err != nil {
		return 0, err
	}
	fields, _ := shape.IsStruct()
	if len(fields) == 0 {
		return 1, nil
	}
	max := -1
	for _, f := range fields {
		r, err := t.GenericityRank(f.Type)
		if err != nil {
			return 0, err
		}
		if r > max {
			max = r
		}
	}
	return max + 1, nil
}

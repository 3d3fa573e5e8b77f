package lir

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arcturus-lang/armc/internal/cmir"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// wordSize is the size in bytes of every primitive and reference, fixed
// regardless of the referent. No packing.
const wordSize = 8

// ChunkLayout is the computed size and, for structs, field layout of one
// concrete type.
type ChunkLayout struct {
	Size int
	Type typesys.ConcreteType
	Kind LayoutKind
}

type LayoutKind interface{ isLayoutKind() }

// Atomic covers primitives and references: fixed size, no internal
// structure.
type Atomic struct{}

// Struct is a struct's fields in declaration order, each already resolved
// to its own ChunkLayout's size implicitly via the table the layout was
// built against.
type Struct struct {
	Fields []typesys.Field[typesys.ConcreteType]
}

func (Atomic) isLayoutKind() {}
func (Struct) isLayoutKind() {}

// Table answers layout queries for every concrete type reachable from a
// monomorphized program.
type Table struct {
	typeTable *typesys.Table
	layouts   map[string]ChunkLayout
}

// BuildTable computes every struct layout in ascending genericity-rank
// order, so a struct's field sizes are always already known, from the full
// set of concrete newtype instantiations the monomorphizer recorded.
func BuildTable(typeTable *typesys.Table, newtypes []cmir.NewtypeInstance) (*Table, error) {
	t := &Table{typeTable: typeTable, layouts: make(map[string]ChunkLayout, len(newtypes))}

	type ranked struct {
		inst cmir.NewtypeInstance
		rank int
	}
	rs := make([]ranked, len(newtypes))
	for i, inst := range newtypes {
		r, err := typeTable.GenericityRank(typesys.NewTypeC(inst.ID, inst.Args))
		if err != nil {
			return nil, err
		}
		rs[i] = ranked{inst: inst, rank: r}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].rank < rs[j].rank })

	for _, r := range rs {
		shape, err := typeTable.Monomorphize(r.inst.ID, r.inst.Args)
		if err != nil {
			return nil, err
		}
		fields, _ := shape.IsStruct()
		size := 0
		for _, f := range fields {
			size += t.GetLayout(f.Type).Size
		}
		ct := typesys.NewTypeC(r.inst.ID, r.inst.Args)
		t.layouts[newtypeKey(r.inst.ID, r.inst.Args)] = ChunkLayout{
			Size: size,
			Type: ct,
			Kind: Struct{Fields: fields},
		}
	}
	return t, nil
}

// GetLayout returns typ's layout. typ must be a primitive, a reference, or
// a newtype instantiation already present in the set BuildTable was given
// — the monomorphizer is responsible for having recorded every reachable
// instantiation.
func (t *Table) GetLayout(typ typesys.ConcreteType) ChunkLayout {
	if _, ok := typ.IsPrim(); ok {
		return ChunkLayout{Size: wordSize, Type: typ, Kind: Atomic{}}
	}
	if _, ok := typ.IsReference(); ok {
		return ChunkLayout{Size: wordSize, Type: typ, Kind: Atomic{}}
	}
	id, args, ok := typ.IsNewType()
	if !ok {
		panic("lir: malformed ConcreteType")
	}
	layout, ok := t.layouts[newtypeKey(id, args)]
	if !ok {
		panic("lir: layout requested for a newtype instantiation never recorded by the monomorphizer")
	}
	return layout
}

func newtypeKey(id ids.NewtypeID, args []typesys.ConcreteType) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(id.Raw()))
	for _, a := range args {
		sb.WriteByte(';')
		sb.WriteString(a.String())
	}
	return sb.String()
}

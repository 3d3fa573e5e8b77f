package typesys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/ids"
)

func TestGenericityRankPrimitiveIsZero(t *testing.T) {
	table, err := Build(map[ids.NewtypeID]NewtypeDef{})
	require.NoError(t, err)

	rank, err := table.GenericityRank(PrimC(Integer))
	require.NoError(t, err)
	require.Equal(t, 0, rank)
}

func TestGenericityRankReferenceAddsOne(t *testing.T) {
	table, err := Build(map[ids.NewtypeID]NewtypeDef{})
	require.NoError(t, err)

	rank, err := table.GenericityRank(ReferenceC(ReferenceC(PrimC(Integer))))
	require.NoError(t, err)
	require.Equal(t, 2, rank)
}

func TestGenericityRankStructIsMaxFieldPlusOne(t *testing.T) {
	pairID := ids.NewNewtypeID(0)
	defs := map[ids.NewtypeID]NewtypeDef{
		pairID: {
			Shape: StructShape([]Field[GenericType]{
				{Name: "x", Type: PrimG(Integer)},
				{Name: "y", Type: ReferenceG(PrimG(Integer))},
			}),
		},
	}
	table, err := Build(defs)
	require.NoError(t, err)

	rank, err := table.GenericityRank(NewTypeC(pairID, nil))
	require.NoError(t, err)
	require.Equal(t, 2, rank) // max(field ranks 0, 1) + 1
}

func TestBuildRejectsCyclicNewtypes(t *testing.T) {
	a := ids.NewNewtypeID(0)
	b := ids.NewNewtypeID(1)
	defs := map[ids.NewtypeID]NewtypeDef{
		a: {Shape: StructShape([]Field[GenericType]{{Name: "b", Type: NewTypeG(b, nil)}})},
		b: {Shape: StructShape([]Field[GenericType]{{Name: "a", Type: NewTypeG(a, nil)}})},
	}
	_, err := Build(defs)
	require.Error(t, err)
}

func TestStructFieldOrderIsDeclarationOrderNotAlphabetical(t *testing.T) {
	id := ids.NewNewtypeID(0)
	defs := map[ids.NewtypeID]NewtypeDef{
		id: {Shape: StructShape([]Field[GenericType]{
			{Name: "zebra", Type: PrimG(Integer)},
			{Name: "apple", Type: PrimG(Bool)},
		})},
	}
	table, err := Build(defs)
	require.NoError(t, err)

	shape, err := table.Monomorphize(id, nil)
	require.NoError(t, err)
	fields, ok := shape.IsStruct()
	require.True(t, ok)
	require.Equal(t, "zebra", fields[0].Name)
	require.Equal(t, "apple", fields[1].Name)
}

func TestMonomorphizeSubstitutesTypeParams(t *testing.T) {
	boxID := ids.NewNewtypeID(0)
	tv := ids.NewTypevarID(0)
	defs := map[ids.NewtypeID]NewtypeDef{
		boxID: {
			TypeParams: []ids.TypevarID{tv},
			Shape: StructShape([]Field[GenericType]{
				{Name: "inner", Type: TypeVarG(tv)},
			}),
		},
	}
	table, err := Build(defs)
	require.NoError(t, err)

	shape, err := table.Monomorphize(boxID, []ConcreteType{PrimC(Bool)})
	require.NoError(t, err)
	fields, _ := shape.IsStruct()
	prim, ok := fields[0].Type.IsPrim()
	require.True(t, ok)
	require.Equal(t, Bool, prim)
}

func TestEnumMonomorphizeIsUnimplemented(t *testing.T) {
	id := ids.NewNewtypeID(0)
	defs := map[ids.NewtypeID]NewtypeDef{
		id: {Shape: EnumShape([]GenericType{PrimG(Integer)})},
	}
	table, err := Build(defs)
	require.NoError(t, err)

	_, err = table.Monomorphize(id, nil)
	require.ErrorIs(t, err, ErrUnimplementedEnum)
}

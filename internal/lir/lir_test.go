package lir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/cmir"
	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/lexer"
	"github.com/arcturus-lang/armc/internal/mir"
	"github.com/arcturus-lang/armc/internal/parser"
	"github.com/arcturus-lang/armc/internal/typesys"
)

func lowerToCMIR(t *testing.T, src string) *cmir.Program {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	astProg, err := parser.Parse(toks)
	require.NoError(t, err)
	hirProg, err := hir.LowerProgram(astProg)
	require.NoError(t, err)
	mirProg := mir.LowerProgram(hirProg)
	cmirProg, err := cmir.LowerProgram(mirProg)
	require.NoError(t, err)
	return cmirProg
}

func concreteNewType(inst cmir.NewtypeInstance) typesys.ConcreteType {
	return typesys.NewTypeC(inst.ID, inst.Args)
}

func TestLayoutOffsetsAreSumOfPrecedingFieldSizes(t *testing.T) {
	cmirProg := lowerToCMIR(t, `
		struct Point {
			x: int,
			y: int,
		}

		struct Line {
			start: Point,
			end: &int,
		}

		fun main() -> none {
			let p: Point = Point { x: 1, y: 2 };
			let l: Line = Line { start: p, end: ref p.x };
			print(l.start.y);
		}
	`)
	prog, err := LowerProgram(cmirProg)
	require.NoError(t, err)
	require.NotNil(t, prog)

	table, err := BuildTable(cmirProg.TypeTable, cmirProg.Newtypes)
	require.NoError(t, err)

	var lineInst, pointInst *cmir.NewtypeInstance
	for i := range cmirProg.Newtypes {
		inst := cmirProg.Newtypes[i]
		shape, err := cmirProg.TypeTable.Monomorphize(inst.ID, inst.Args)
		require.NoError(t, err)
		fields, _ := shape.IsStruct()
		if len(fields) == 2 && fields[0].Name == "x" {
			pointInst = &inst
		}
		if len(fields) == 2 && fields[0].Name == "start" {
			lineInst = &inst
		}
	}
	require.NotNil(t, pointInst)
	require.NotNil(t, lineInst)

	pointLayout := table.GetLayout(concreteNewType(*pointInst))
	require.Equal(t, 16, pointLayout.Size) // two 8-byte fields

	lineLayout := table.GetLayout(concreteNewType(*lineInst))
	lineFields, ok := lineLayout.Kind.(Struct)
	require.True(t, ok)
	require.Equal(t, "start", lineFields.Fields[0].Name)
	require.Equal(t, "end", lineFields.Fields[1].Name)
	require.Equal(t, 24, lineLayout.Size) // Point (16) + reference (8)
}

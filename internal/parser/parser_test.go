package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcturus-lang/armc/internal/ast"
	"github.com/arcturus-lang/armc/internal/lexer"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.Lex(src)
	require.NoError(t, err)
	prog, err := Parse(toks)
	require.NoError(t, err)
	return prog
}

func TestParseFunctionSignatureAndBody(t *testing.T) {
	prog := mustParse(t, `
		fun add(a: int, b: int) -> int {
			return a + b;
		}
	`)
	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Args, 2)
	require.Equal(t, "a", fn.Args[0].Name)
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(ast.BinOpExpr)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog := mustParse(t, `
		fun f() -> int {
			return 1 + 2 * 3;
		}
	`)
	ret := prog.Functions[0].Body[0].(ast.ReturnStmt)
	top, ok := ret.Value.(ast.BinOpExpr)
	require.True(t, ok)
	require.Equal(t, "+", top.Op)
	_, ok = top.Left.(ast.IntLiteral)
	require.True(t, ok)
	mul, ok := top.Right.(ast.BinOpExpr)
	require.True(t, ok)
	require.Equal(t, "*", mul.Op)
}

func TestParseStructDeclarationAndLiteral(t *testing.T) {
	prog := mustParse(t, `
		struct Point {
			x: int,
			y: int,
		}

		fun origin() -> Point {
			return Point { x: 0, y: 0 };
		}
	`)
	fn := prog.Functions[0]
	ret := fn.Body[0].(ast.ReturnStmt)
	lit, ok := ret.Value.(ast.StructLiteralExpr)
	require.True(t, ok)
	require.Len(t, lit.Fields, 2)
	require.Equal(t, "x", lit.Fields[0].Name)
	require.Equal(t, "y", lit.Fields[1].Name)
}

func TestParseFieldAccessAndAssignment(t *testing.T) {
	prog := mustParse(t, `
		struct Point {
			x: int,
			y: int,
		}

		fun bump(p: Point) -> none {
			p.x = p.x + 1;
		}
	`)
	fn := prog.Functions[0]
	assign, ok := fn.Body[0].(ast.AssignStmt)
	require.True(t, ok)
	target, ok := assign.Target.(ast.LFieldAccess)
	require.True(t, ok)
	require.Equal(t, "x", target.Field)
}

func TestParseReferenceAndDeref(t *testing.T) {
	prog := mustParse(t, `
		fun bump(p: &int) -> none {
			deref p = deref p + 1;
		}
	`)
	fn := prog.Functions[0]
	require.Equal(t, "p", fn.Args[0].Name)
	assign := fn.Body[0].(ast.AssignStmt)
	_, ok := assign.Target.(ast.LDeref)
	require.True(t, ok)
}

func TestParseGenericCallWithExplicitTypeArgs(t *testing.T) {
	prog := mustParse(t, `
		fun identity<T>(x: T) -> T {
			return x;
		}

		fun use() -> int {
			return identity<int>(1);
		}
	`)
	fn := prog.Functions[1]
	ret := fn.Body[0].(ast.ReturnStmt)
	call, ok := ret.Value.(ast.FuncCallExpr)
	require.True(t, ok)
	require.Equal(t, "identity", call.FuncName)
	require.Len(t, call.TypeArgs, 1)
}

func TestParseWhileAndControlFlow(t *testing.T) {
	prog := mustParse(t, `
		fun countdown(n: int) -> none {
			while n < 10 {
				n = n + 1;
				if n == 5 {
					break;
				}
				continue;
			}
		}
	`)
	fn := prog.Functions[0]
	loop, ok := fn.Body[0].(ast.WhileStmt)
	require.True(t, ok)
	require.Len(t, loop.Body, 3)
	_, ok = loop.Body[1].(ast.IfStmt)
	require.True(t, ok)
	_, ok = loop.Body[2].(ast.ContinueStmt)
	require.True(t, ok)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	toks, err := lexer.Lex(`fun f( { }`)
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}

// Package dump is the pretty-printer for every stage's intermediate
// representation: tokens, AST, HIR, MIR, CMIR, and LIR. It is diagnostic
// output only, not a serialization format — every exported function writes
// indented text onto a buffered writer and flushes it.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/arcturus-lang/armc/internal/ast"
	"github.com/arcturus-lang/armc/internal/cmir"
	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/lir"
	"github.com/arcturus-lang/armc/internal/mir"
	"github.com/arcturus-lang/armc/internal/token"
)

func indent(w *bufio.Writer, depth int) {
	w.WriteString(strings.Repeat("  ", depth))
}

// Tokens writes one line per lexed token.
func Tokens(w io.Writer, toks []token.Token) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for i, t := range toks {
		fmt.Fprintf(bw, "%4d  %-8s %-12q offset=%d\n", i, t.Kind.String(), t.Text, t.Offset)
	}
}

// AST writes the parsed program as an indented tree.
func AST(w io.Writer, prog *ast.Program) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for _, fn := range prog.Functions {
		dumpASTFunction(bw, fn, 0)
	}
}

func dumpASTFunction(w *bufio.Writer, fn *ast.Function, depth int) {
	indent(w, depth)
	fmt.Fprintf(w, "fun %s<%s>(...) -> %s\n", fn.Name, strings.Join(fn.TypeParams, ","), fn.RetType.String())
	for _, p := range fn.Args {
		indent(w, depth+1)
		fmt.Fprintf(w, "arg %s: %s\n", p.Name, p.Type.String())
	}
	for _, s := range fn.Body {
		dumpASTStmt(w, s, depth+1)
	}
}

func dumpASTStmt(w *bufio.Writer, stmt ast.Statement, depth int) {
	indent(w, depth)
	switch s := stmt.(type) {
	case ast.LetStmt:
		fmt.Fprintf(w, "let %s: %s = %s\n", s.Var, s.Type.String(), dumpASTExpr(s.Value))
	case ast.AssignStmt:
		fmt.Fprintf(w, "%s = %s\n", dumpASTLValue(s.Target), dumpASTExpr(s.Value))
	case ast.IfStmt:
		fmt.Fprintf(w, "if %s\n", dumpASTExpr(s.Condition))
		for _, b := range s.ThenBody {
			dumpASTStmt(w, b, depth+1)
		}
		if s.ElseBody != nil {
			indent(w, depth)
			w.WriteString("else\n")
			for _, b := range s.ElseBody {
				dumpASTStmt(w, b, depth+1)
			}
		}
	case ast.WhileStmt:
		fmt.Fprintf(w, "while %s\n", dumpASTExpr(s.Condition))
		for _, b := range s.Body {
			dumpASTStmt(w, b, depth+1)
		}
	case ast.BreakStmt:
		w.WriteString("break\n")
	case ast.ContinueStmt:
		w.WriteString("continue\n")
	case ast.ReturnStmt:
		if s.Value == nil {
			w.WriteString("return\n")
		} else {
			fmt.Fprintf(w, "return %s\n", dumpASTExpr(s.Value))
		}
	case ast.PrintStmt:
		fmt.Fprintf(w, "print %s\n", dumpASTExpr(s.Value))
	default:
		fmt.Fprintf(w, "<unknown statement %T>\n", s)
	}
}

func dumpASTLValue(lv ast.LValue) string {
	switch v := lv.(type) {
	case ast.LVariable:
		return v.Name
	case ast.LFieldAccess:
		return dumpASTLValue(v.Of) + "." + v.Field
	case ast.LDeref:
		return "*" + dumpASTExpr(v.Expr)
	default:
		return "?"
	}
}

func dumpASTExpr(e ast.Expression) string {
	switch v := e.(type) {
	case ast.IntLiteral:
		return fmt.Sprintf("%d", v.Value)
	case ast.BoolLiteral:
		return fmt.Sprintf("%t", v.Value)
	case ast.VariableExpr:
		return v.Name
	case ast.BinOpExpr:
		return fmt.Sprintf("(%s %s %s)", dumpASTExpr(v.Left), v.Op, dumpASTExpr(v.Right))
	case ast.FuncCallExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = dumpASTExpr(a)
		}
		return fmt.Sprintf("%s(%s)", v.FuncName, strings.Join(args, ", "))
	case ast.FieldAccessExpr:
		return dumpASTExpr(v.Expr) + "." + v.Field
	case ast.StructLiteralExpr:
		fields := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = fmt.Sprintf("%s: %s", f.Name, dumpASTExpr(f.Value))
		}
		return fmt.Sprintf("%s{%s}", v.Type.String(), strings.Join(fields, ", "))
	case ast.ReferenceExpr:
		return "&" + dumpASTExpr(v.Expr)
	case ast.DereferenceExpr:
		return "*" + dumpASTExpr(v.Expr)
	default:
		return "?"
	}
}

// HIR writes every function of a lowered program.
func HIR(w io.Writer, prog *hir.Program) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for _, id := range sortedFuncIDs(prog.Functions) {
		dumpHIRFunction(bw, id, prog.Functions[id])
	}
}

func dumpHIRFunction(w *bufio.Writer, id ids.FuncID, fn *hir.Function) {
	fmt.Fprintf(w, "func_%d %s(...) -> %s\n", id.Raw(), fn.Name, fn.RetType.String())
	varIDs := make([]ids.VarID, 0, len(fn.Variables))
	for varID := range fn.Variables {
		varIDs = append(varIDs, varID)
	}
	sort.Slice(varIDs, func(i, j int) bool { return varIDs[i].Raw() < varIDs[j].Raw() })
	for _, varID := range varIDs {
		v := fn.Variables[varID]
		fmt.Fprintf(w, "  var%d %s: %s\n", varID.Raw(), v.Name, v.Type.String())
	}
	for _, s := range fn.Body {
		dumpHIRStmt(w, s, 1)
	}
}

func dumpHIRStmt(w *bufio.Writer, stmt hir.Statement, depth int) {
	indent(w, depth)
	switch s := stmt.(type) {
	case hir.LetStmt:
		fmt.Fprintf(w, "let var%d = %s\n", s.Var.Raw(), dumpHIRExpr(s.Value))
	case hir.AssignStmt:
		fmt.Fprintf(w, "%s = %s\n", dumpHIRPlace(s.Target), dumpHIRExpr(s.Value))
	case hir.IfStmt:
		fmt.Fprintf(w, "if %s\n", dumpHIRExpr(s.Condition))
		for _, b := range s.ThenBody {
			dumpHIRStmt(w, b, depth+1)
		}
		if s.ElseBody != nil {
			indent(w, depth)
			w.WriteString("else\n")
			for _, b := range s.ElseBody {
				dumpHIRStmt(w, b, depth+1)
			}
		}
	case hir.WhileStmt:
		fmt.Fprintf(w, "while %s\n", dumpHIRExpr(s.Condition))
		for _, b := range s.Body {
			dumpHIRStmt(w, b, depth+1)
		}
	case hir.BreakStmt:
		w.WriteString("break\n")
	case hir.ContinueStmt:
		w.WriteString("continue\n")
	case hir.ReturnStmt:
		if s.Value.Kind == nil {
			w.WriteString("return\n")
		} else {
			fmt.Fprintf(w, "return %s\n", dumpHIRExpr(s.Value))
		}
	case hir.PrintStmt:
		fmt.Fprintf(w, "print %s\n", dumpHIRExpr(s.Value))
	default:
		fmt.Fprintf(w, "<unknown statement %T>\n", s)
	}
}

func dumpHIRPlace(p hir.Place) string {
	switch k := p.Kind.(type) {
	case hir.VariablePlace:
		return fmt.Sprintf("var%d", k.Var.Raw())
	case hir.StructFieldPlace:
		return dumpHIRPlace(*k.Of) + "." + k.Field
	case hir.DerefPlace:
		return "*" + dumpHIRExpr(k.Expr)
	default:
		return "?"
	}
}

func dumpHIRExpr(e hir.Expression) string {
	switch k := e.Kind.(type) {
	case hir.IntLiteral:
		return fmt.Sprintf("%d", k.Value)
	case hir.BoolLiteral:
		return fmt.Sprintf("%t", k.Value)
	case hir.VariableExpr:
		return fmt.Sprintf("var%d", k.Var.Raw())
	case hir.BinOpExpr:
		return fmt.Sprintf("(%s %s %s)", dumpHIRExpr(*k.Left), k.Op, dumpHIRExpr(*k.Right))
	case hir.FuncCallExpr:
		args := make([]string, len(k.Args))
		for i, a := range k.Args {
			args[i] = dumpHIRExpr(a)
		}
		return fmt.Sprintf("func_%d(%s)", k.Func.Raw(), strings.Join(args, ", "))
	case hir.FieldAccessExpr:
		return dumpHIRExpr(*k.Expr) + "." + k.Field
	case hir.StructLiteralExpr:
		names := make([]string, 0, len(k.Fields))
		for name := range k.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]string, len(names))
		for i, name := range names {
			fields[i] = fmt.Sprintf("%s: %s", name, dumpHIRExpr(k.Fields[name]))
		}
		return fmt.Sprintf("%s{%s}", e.Type.String(), strings.Join(fields, ", "))
	case hir.ReferenceExpr:
		return "&" + dumpHIRExpr(*k.Expr)
	case hir.DereferenceExpr:
		return "*" + dumpHIRExpr(*k.Expr)
	default:
		return "?"
	}
}

// MIR writes every function's basic-block CFG.
func MIR(w io.Writer, prog *mir.Program) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for _, id := range sortedFuncIDs(prog.Functions) {
		dumpMIRFunction(bw, id, prog.Functions[id])
	}
}

func dumpMIRFunction(w *bufio.Writer, id ids.FuncID, fn *mir.Function) {
	fmt.Fprintf(w, "func_%d %s -> %s\n", id.Raw(), fn.Name, fn.RetType.String())
	for _, blockID := range sortedBlockIDs(fn.Blocks) {
		block := fn.Blocks[blockID]
		fmt.Fprintf(w, "  block_%d:\n", blockID.Raw())
		for _, stmt := range block.Statements {
			fmt.Fprintf(w, "    %s\n", dumpMIRStmt(stmt))
		}
		fmt.Fprintf(w, "    %s\n", dumpMIRTerm(block.Terminator))
	}
}

func dumpMIRStmt(stmt mir.Statement) string {
	switch s := stmt.(type) {
	case mir.Assign:
		return fmt.Sprintf("%s = %s", dumpMIRPlace(s.Target), dumpMIRValue(s.Value))
	case mir.BinOp:
		return fmt.Sprintf("%s = %s %s %s", dumpMIRPlace(s.Target), dumpMIRValue(s.Left), s.Op, dumpMIRValue(s.Right))
	case mir.Call:
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = dumpMIRValue(a)
		}
		return fmt.Sprintf("%s = call func_%d(%s)", dumpMIRPlace(s.Target), s.Func.Raw(), strings.Join(args, ", "))
	case mir.Print:
		return fmt.Sprintf("print %s", dumpMIRValue(s.Value))
	default:
		return "?"
	}
}

func dumpMIRTerm(term mir.Terminator) string {
	switch t := term.(type) {
	case mir.Goto:
		return fmt.Sprintf("goto block_%d", t.Target.Raw())
	case mir.Branch:
		return fmt.Sprintf("branch %s then block_%d else block_%d", dumpMIRValue(t.Condition), t.Then.Raw(), t.Else.Raw())
	case mir.Return:
		if !t.HasValue {
			return "return"
		}
		return fmt.Sprintf("return %s", dumpMIRValue(t.Value))
	default:
		return "?"
	}
}

func dumpMIRValue(v mir.Value) string {
	switch k := v.Kind.(type) {
	case mir.PlaceVal:
		return dumpMIRPlace(k.Place)
	case mir.IntLiteral:
		return fmt.Sprintf("%d", k.Value)
	case mir.BoolTrue:
		return "true"
	case mir.BoolFalse:
		return "false"
	case mir.StructLiteral:
		names := make([]string, 0, len(k.Fields))
		for name := range k.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]string, len(names))
		for i, name := range names {
			fields[i] = fmt.Sprintf("%s: %s", name, dumpMIRValue(k.Fields[name]))
		}
		return fmt.Sprintf("%s{%s}", v.Type.String(), strings.Join(fields, ", "))
	case mir.ReferenceVal:
		return "&" + dumpMIRPlace(k.Place)
	default:
		return "?"
	}
}

func dumpMIRPlace(p mir.Place) string {
	var base string
	switch b := p.Base.(type) {
	case mir.CellBase:
		base = fmt.Sprintf("cell%d", b.Cell.Raw())
	case mir.DerefBase:
		base = fmt.Sprintf("*cell%d", b.Cell.Raw())
	default:
		base = "?"
	}
	for _, f := range p.FieldChain {
		base += "." + f
	}
	return base
}

// CMIR writes every monomorphic function's basic-block CFG, headed by its
// id, name and concrete return type; the type arguments of an
// instantiation are not shown.
func CMIR(w io.Writer, prog *cmir.Program) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for _, id := range sortedFuncIDs(prog.Functions) {
		dumpCMIRFunction(bw, id, prog.Functions[id])
	}
}

func dumpCMIRFunction(w *bufio.Writer, id ids.FuncID, fn *cmir.Function) {
	fmt.Fprintf(w, "func_%d %s -> %s\n", id.Raw(), fn.Name, fn.RetType.String())
	for _, blockID := range sortedBlockIDs(fn.Blocks) {
		block := fn.Blocks[blockID]
		fmt.Fprintf(w, "  block_%d:\n", blockID.Raw())
		for _, stmt := range block.Statements {
			fmt.Fprintf(w, "    %s\n", dumpCMIRStmt(stmt))
		}
		fmt.Fprintf(w, "    %s\n", dumpCMIRTerm(block.Terminator))
	}
}

func dumpCMIRStmt(stmt cmir.Statement) string {
	switch s := stmt.(type) {
	case cmir.Assign:
		return fmt.Sprintf("%s = %s", dumpCMIRPlace(s.Target), dumpCMIRValue(s.Value))
	case cmir.BinOp:
		return fmt.Sprintf("%s = %s %s %s", dumpCMIRPlace(s.Target), dumpCMIRValue(s.Left), s.Op, dumpCMIRValue(s.Right))
	case cmir.Call:
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = dumpCMIRValue(a)
		}
		return fmt.Sprintf("%s = call func_%d(%s)", dumpCMIRPlace(s.Target), s.Func.Raw(), strings.Join(args, ", "))
	case cmir.Print:
		return fmt.Sprintf("print %s", dumpCMIRValue(s.Value))
	default:
		return "?"
	}
}

func dumpCMIRTerm(term cmir.Terminator) string {
	switch t := term.(type) {
	case cmir.Goto:
		return fmt.Sprintf("goto block_%d", t.Target.Raw())
	case cmir.Branch:
		return fmt.Sprintf("branch %s then block_%d else block_%d", dumpCMIRValue(t.Condition), t.Then.Raw(), t.Else.Raw())
	case cmir.Return:
		if !t.HasValue {
			return "return"
		}
		return fmt.Sprintf("return %s", dumpCMIRValue(t.Value))
	default:
		return "?"
	}
}

func dumpCMIRValue(v cmir.Value) string {
	switch k := v.Kind.(type) {
	case cmir.PlaceVal:
		return dumpCMIRPlace(k.Place)
	case cmir.IntLiteral:
		return fmt.Sprintf("%d", k.Value)
	case cmir.BoolTrue:
		return "true"
	case cmir.BoolFalse:
		return "false"
	case cmir.StructLiteral:
		names := make([]string, 0, len(k.Fields))
		for name := range k.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fields := make([]string, len(names))
		for i, name := range names {
			fields[i] = fmt.Sprintf("%s: %s", name, dumpCMIRValue(k.Fields[name]))
		}
		return fmt.Sprintf("%s{%s}", v.Type.String(), strings.Join(fields, ", "))
	case cmir.ReferenceVal:
		return "&" + dumpCMIRPlace(k.Place)
	default:
		return "?"
	}
}

func dumpCMIRPlace(p cmir.Place) string {
	var base string
	switch b := p.Base.(type) {
	case cmir.CellBase:
		base = fmt.Sprintf("cell%d", b.Cell.Raw())
	case cmir.DerefBase:
		base = fmt.Sprintf("*cell%d", b.Cell.Raw())
	default:
		base = "?"
	}
	for _, f := range p.FieldChain {
		base += "." + f
	}
	return base
}

// LIR writes every function's type-erased block sequence with chunk sizes.
func LIR(w io.Writer, prog *lir.Program) {
	bw := bufio.NewWriter(w)
	defer bw.Flush()
	for _, id := range sortedFuncIDs(prog.Functions) {
		dumpLIRFunction(bw, id, prog.Functions[id])
	}
}

func dumpLIRFunction(w *bufio.Writer, id ids.FuncID, fn *lir.Function) {
	fmt.Fprintf(w, "func_%d\n", id.Raw())
	chunkIDs := make([]ids.CellID, 0, len(fn.Chunks))
	for cid := range fn.Chunks {
		chunkIDs = append(chunkIDs, cid)
	}
	sort.Slice(chunkIDs, func(i, j int) bool { return chunkIDs[i].Raw() < chunkIDs[j].Raw() })
	for _, cid := range chunkIDs {
		fmt.Fprintf(w, "  chunk%d: %d bytes\n", cid.Raw(), fn.Chunks[cid])
	}
	for _, blockID := range sortedBlockIDs(fn.Blocks) {
		block := fn.Blocks[blockID]
		fmt.Fprintf(w, "  block_%d:\n", blockID.Raw())
		for _, stmt := range block.Statements {
			fmt.Fprintf(w, "    %s\n", dumpLIRStmt(stmt))
		}
		fmt.Fprintf(w, "    %s\n", dumpLIRTerm(block.Terminator))
	}
}

func dumpLIRStmt(stmt lir.Statement) string {
	switch s := stmt.(type) {
	case lir.Store:
		return fmt.Sprintf("store %s <- %s", dumpLIRPlace(s.Dest), dumpLIRValue(s.Value))
	case lir.BinOp:
		return fmt.Sprintf("%s = %s %s %s", dumpLIRPlace(s.Dest), dumpLIRValue(s.Left), s.Op, dumpLIRValue(s.Right))
	case lir.Call:
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = dumpLIRPlace(a)
		}
		return fmt.Sprintf("%s = call func_%d(%s)", dumpLIRPlace(s.Dest), s.Func.Raw(), strings.Join(args, ", "))
	case lir.Print:
		return fmt.Sprintf("print %s", dumpLIRValue(s.Value))
	default:
		return "?"
	}
}

func dumpLIRTerm(term lir.Terminator) string {
	switch t := term.(type) {
	case lir.Goto:
		return fmt.Sprintf("goto block_%d", t.Target.Raw())
	case lir.Branch:
		return fmt.Sprintf("branch %s then block_%d else block_%d", dumpLIRValue(t.Condition), t.Then.Raw(), t.Else.Raw())
	case lir.Return:
		if !t.HasValue {
			return "return"
		}
		return fmt.Sprintf("return %s", dumpLIRValue(t.Value))
	default:
		return "?"
	}
}

func dumpLIRValue(v lir.Value) string {
	switch k := v.Kind.(type) {
	case lir.PlaceVal:
		return dumpLIRPlace(k.Place)
	case lir.IntLiteral:
		return fmt.Sprintf("%d", k.Value)
	case lir.BoolTrue:
		return "true"
	case lir.BoolFalse:
		return "false"
	case lir.ReferenceVal:
		return "&" + dumpLIRPlace(k.Place)
	default:
		return "?"
	}
}

func dumpLIRPlace(p lir.Place) string {
	switch k := p.Kind.(type) {
	case lir.Local:
		return fmt.Sprintf("chunk%d+%d", k.Base.Raw(), k.Offset)
	case lir.Deref:
		return fmt.Sprintf("*chunk%d+%d", k.Pointer.Raw(), k.Offset)
	default:
		return "?"
	}
}

func sortedFuncIDs[V any](m map[ids.FuncID]V) []ids.FuncID {
	out := make([]ids.FuncID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw() < out[j].Raw() })
	return out
}

func sortedBlockIDs[V any](m map[ids.BlockID]V) []ids.BlockID {
	out := make([]ids.BlockID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw() < out[j].Raw() })
	return out
}

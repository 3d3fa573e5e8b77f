package hir

import (
	"github.com/arcturus-lang/armc/internal/ast"
	"github.com/arcturus-lang/armc/internal/binops"
	"github.com/arcturus-lang/armc/internal/callgraph"
	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// funcKey is the resolution key for a call: name and type-param arity
// together narrow the candidate set; the argument-type vector picks the
// overload after the call's explicit type arguments have been substituted
// into each candidate's declared argument types. The argument types stay
// out of the key: keying on the raw declared types would compare a call
// site's concrete argument types against the declaration's unsubstituted
// type variables and never match a generic call.
type funcKey struct {
	name  string
	arity int
}

type funcEntry struct {
	id       ids.FuncID
	typevars []ids.TypevarID
	argTypes []typesys.GenericType
	retType  typesys.GenericType
}

// Builder walks an ast.Program and produces an hir.Program.
type Builder struct {
	functionMap map[funcKey][]funcEntry
	typeTable   *typesys.Table
	callGraph   *callgraph.Graph
}

// LowerProgram lowers a whole parsed program: AST -> HIR.
func LowerProgram(prog *ast.Program) (*Program, error) {
	funcIDs := ids.NewFactory(ids.NewFuncID)
	functionMap := make(map[funcKey][]funcEntry, len(prog.Functions))
	typevarFactories := make(map[ids.FuncID][]ids.TypevarID, len(prog.Functions))

	type indexed struct {
		id    ids.FuncID
		fn    *ast.Function
		entry funcEntry
	}
	var funcs []indexed

	for _, fn := range prog.Functions {
		id := funcIDs.Next()
		// The parser assigns each function's own type parameters a fresh,
		// zero-based ids.TypevarID sequence in declared order (see
		// internal/parser's paramScope), so fn.Args/fn.RetType already
		// reference the same ids this builder would otherwise have to
		// reallocate; numeric reuse across different functions' type
		// parameters is harmless since every Bind/Monomorphize call is
		// scoped to one function's own parameter list at a time.
		tvs := make([]ids.TypevarID, len(fn.TypeParams))
		for i := range fn.TypeParams {
			tvs[i] = ids.NewTypevarID(i)
		}
		argTypes := make([]typesys.GenericType, len(fn.Args))
		for i, a := range fn.Args {
			argTypes[i] = a.Type
		}
		key := funcKey{name: fn.Name, arity: len(fn.TypeParams)}
		entry := funcEntry{id: id, typevars: tvs, argTypes: argTypes, retType: fn.RetType}
		functionMap[key] = append(functionMap[key], entry)
		typevarFactories[id] = tvs
		funcs = append(funcs, indexed{id: id, fn: fn, entry: entry})
	}

	var entry ids.FuncID
	var haveEntry bool
	for _, e := range functionMap[funcKey{name: "main", arity: 0}] {
		if len(e.argTypes) == 0 {
			entry = e.id
			haveEntry = true
		}
	}
	if !haveEntry {
		return nil, cerrors.New(cerrors.MissingMain, "no function named main with arity 0 and no type parameters")
	}

	b := &Builder{
		functionMap: functionMap,
		typeTable:   prog.TypeTable,
		callGraph:   callgraph.New(typevarFactories),
	}

	functions := make(map[ids.FuncID]*Function, len(funcs))
	for _, item := range funcs {
		hf, err := b.lowerFunction(item.id, item.fn, item.entry)
		if err != nil {
			return nil, err
		}
		functions[item.id] = hf
	}

	return &Program{
		TypeTable: b.typeTable,
		CallGraph: b.callGraph,
		Functions: functions,
		Entry:     entry,
	}, nil
}

func (b *Builder) lowerFunction(id ids.FuncID, fn *ast.Function, entry funcEntry) (*Function, error) {
	sc := newScope(id, entry.typevars, entry.retType)

	args := make([]ids.VarID, len(fn.Args))
	for i, a := range fn.Args {
		args[i] = sc.addVar(Variable{Name: a.Name, Type: a.Type})
	}

	body, err := b.lowerBlock(sc, fn.Body, false)
	if err != nil {
		return nil, err
	}
	if prim, ok := entry.retType.IsPrim(); ok && prim == typesys.None {
		body = append(body, ReturnStmt{})
	}

	return &Function{
		Name:      fn.Name,
		TypeVars:  entry.typevars,
		Args:      args,
		Variables: sc.varMap,
		Body:      body,
		RetType:   entry.retType,
	}, nil
}

func (b *Builder) lowerBlock(sc *scope, stmts []ast.Statement, loopBlock bool) ([]Statement, error) {
	sc.pushScope(loopBlock)
	defer sc.popScope()
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		hs, err := b.lowerStatement(sc, s)
		if err != nil {
			return nil, err
		}
		out = append(out, hs)
	}
	return out, nil
}

func (b *Builder) lowerStatement(sc *scope, stmt ast.Statement) (Statement, error) {
	switch s := stmt.(type) {
	case ast.LetStmt:
		val, err := b.lowerExpression(sc, s.Value)
		if err != nil {
			return nil, err
		}
		if !val.Type.Equal(s.Type) {
			return nil, cerrors.New(cerrors.TypeMismatch, "let %s: declared type does not match value type", s.Var)
		}
		id := sc.addVar(Variable{Name: s.Var, Type: s.Type})
		return LetStmt{Var: id, Value: val}, nil

	case ast.AssignStmt:
		target, err := b.lowerLValue(sc, s.Target)
		if err != nil {
			return nil, err
		}
		val, err := b.lowerExpression(sc, s.Value)
		if err != nil {
			return nil, err
		}
		if !target.Type.Equal(val.Type) {
			return nil, cerrors.New(cerrors.TypeMismatch, "assignment target and value types differ")
		}
		return AssignStmt{Target: target, Value: val}, nil

	case ast.IfStmt:
		cond, err := b.lowerExpression(sc, s.Condition)
		if err != nil {
			return nil, err
		}
		if p, ok := cond.Type.IsPrim(); !ok || p != typesys.Bool {
			return nil, cerrors.New(cerrors.TypeMismatch, "if condition is not boolean")
		}
		thenBody, err := b.lowerBlock(sc, s.ThenBody, false)
		if err != nil {
			return nil, err
		}
		var elseBody []Statement
		if s.ElseBody != nil {
			elseBody, err = b.lowerBlock(sc, s.ElseBody, false)
			if err != nil {
				return nil, err
			}
		}
		return IfStmt{Condition: cond, ThenBody: thenBody, ElseBody: elseBody}, nil

	case ast.WhileStmt:
		cond, err := b.lowerExpression(sc, s.Condition)
		if err != nil {
			return nil, err
		}
		if p, ok := cond.Type.IsPrim(); !ok || p != typesys.Bool {
			return nil, cerrors.New(cerrors.TypeMismatch, "while condition is not boolean")
		}
		body, err := b.lowerBlock(sc, s.Body, true)
		if err != nil {
			return nil, err
		}
		return WhileStmt{Condition: cond, Body: body}, nil

	case ast.BreakStmt:
		if !sc.inLoop() {
			return nil, cerrors.New(cerrors.ControlOutsideLoop, "break outside of any loop")
		}
		return BreakStmt{}, nil

	case ast.ContinueStmt:
		if !sc.inLoop() {
			return nil, cerrors.New(cerrors.ControlOutsideLoop, "continue outside of any loop")
		}
		return ContinueStmt{}, nil

	case ast.ReturnStmt:
		if s.Value == nil {
			if p, ok := sc.retType.IsPrim(); !ok || p != typesys.None {
				return nil, cerrors.New(cerrors.TypeMismatch, "bare return in a function not returning none")
			}
			return ReturnStmt{}, nil
		}
		val, err := b.lowerExpression(sc, s.Value)
		if err != nil {
			return nil, err
		}
		if !val.Type.Equal(sc.retType) {
			return nil, cerrors.New(cerrors.TypeMismatch, "return value type does not match declared return type")
		}
		return ReturnStmt{Value: val}, nil

	case ast.PrintStmt:
		val, err := b.lowerExpression(sc, s.Value)
		if err != nil {
			return nil, err
		}
		return PrintStmt{Value: val}, nil

	default:
		return nil, cerrors.New(cerrors.Parse, "unknown statement kind")
	}
}

func (b *Builder) lowerLValue(sc *scope, lv ast.LValue) (Place, error) {
	switch v := lv.(type) {
	case ast.LVariable:
		id, typ, err := sc.lookup(v.Name)
		if err != nil {
			return Place{}, err
		}
		return Place{Type: typ, Kind: VariablePlace{Var: id}}, nil

	case ast.LFieldAccess:
		of, err := b.lowerLValue(sc, v.Of)
		if err != nil {
			return Place{}, err
		}
		ntID, args, ok := of.Type.IsNewType()
		if !ok {
			return Place{}, cerrors.New(cerrors.TypeMismatch, "field access on a non-struct expression")
		}
		shape, err := b.typeTable.Bind(ntID, args)
		if err != nil {
			return Place{}, err
		}
		fields, ok := shape.IsStruct()
		if !ok {
			return Place{}, cerrors.New(cerrors.TypeMismatch, "field access on a non-struct expression")
		}
		ft, ok := findField(fields, v.Field)
		if !ok {
			return Place{}, cerrors.New(cerrors.ArityMismatch, "no such field %q", v.Field)
		}
		return Place{Type: ft, Kind: StructFieldPlace{Of: &of, Field: v.Field}}, nil

	case ast.LDeref:
		e, err := b.lowerExpression(sc, v.Expr)
		if err != nil {
			return Place{}, err
		}
		inner, ok := e.Type.IsReference()
		if !ok {
			return Place{}, cerrors.New(cerrors.TypeMismatch, "dereference of a non-reference expression")
		}
		return Place{Type: inner, Kind: DerefPlace{Expr: e}}, nil

	default:
		return Place{}, cerrors.New(cerrors.Parse, "unknown lvalue kind")
	}
}

func (b *Builder) lowerExpression(sc *scope, expr ast.Expression) (Expression, error) {
	switch e := expr.(type) {
	case ast.IntLiteral:
		return Expression{Type: typesys.PrimG(typesys.Integer), Kind: IntLiteral{Value: e.Value}}, nil

	case ast.BoolLiteral:
		return Expression{Type: typesys.PrimG(typesys.Bool), Kind: BoolLiteral{Value: e.Value}}, nil

	case ast.VariableExpr:
		id, typ, err := sc.lookup(e.Name)
		if err != nil {
			return Expression{}, err
		}
		return Expression{Type: typ, Kind: VariableExpr{Var: id}}, nil

	case ast.BinOpExpr:
		left, err := b.lowerExpression(sc, e.Left)
		if err != nil {
			return Expression{}, err
		}
		right, err := b.lowerExpression(sc, e.Right)
		if err != nil {
			return Expression{}, err
		}
		op, ok := binopFromSymbol(e.Op)
		if !ok {
			return Expression{}, cerrors.New(cerrors.Parse, "unknown binary operator %q", e.Op)
		}
		resultType, ok := binops.Typecheck(op, left.Type, right.Type)
		if !ok {
			return Expression{}, cerrors.New(cerrors.TypeMismatch, "operator %s does not accept operand types", op)
		}
		return Expression{Type: resultType, Kind: BinOpExpr{Op: op, Left: &left, Right: &right}}, nil

	case ast.FuncCallExpr:
		args := make([]Expression, len(e.Args))
		argTypes := make([]typesys.GenericType, len(e.Args))
		for i, a := range e.Args {
			ha, err := b.lowerExpression(sc, a)
			if err != nil {
				return Expression{}, err
			}
			args[i] = ha
			argTypes[i] = ha.Type
		}
		entry, err := b.resolveCall(e.FuncName, e.TypeArgs, argTypes)
		if err != nil {
			return Expression{}, err
		}
		binding := typesys.NewGenericBinding()
		for i, tv := range entry.typevars {
			binding.Bind(tv, e.TypeArgs[i])
		}
		b.callGraph.AddCallee(sc.funcID, callgraph.Callee{Func: entry.id, TypeParams: e.TypeArgs})
		return Expression{Type: entry.retType.Bind(binding), Kind: FuncCallExpr{Func: entry.id, TypeParams: e.TypeArgs, Args: args}}, nil

	case ast.FieldAccessExpr:
		of, err := b.lowerExpression(sc, e.Expr)
		if err != nil {
			return Expression{}, err
		}
		ntID, typeArgs, ok := of.Type.IsNewType()
		if !ok {
			return Expression{}, cerrors.New(cerrors.TypeMismatch, "field access on a non-struct expression")
		}
		shape, err := b.typeTable.Bind(ntID, typeArgs)
		if err != nil {
			return Expression{}, err
		}
		fields, ok := shape.IsStruct()
		if !ok {
			return Expression{}, cerrors.New(cerrors.TypeMismatch, "field access on a non-struct expression")
		}
		ft, ok := findField(fields, e.Field)
		if !ok {
			return Expression{}, cerrors.New(cerrors.ArityMismatch, "no such field %q", e.Field)
		}
		return Expression{Type: ft, Kind: FieldAccessExpr{Expr: &of, Field: e.Field}}, nil

	case ast.StructLiteralExpr:
		ntID, typeArgs, ok := e.Type.IsNewType()
		if !ok {
			return Expression{}, cerrors.New(cerrors.TypeMismatch, "struct literal names a non-struct type")
		}
		shape, err := b.typeTable.Bind(ntID, typeArgs)
		if err != nil {
			return Expression{}, err
		}
		expectedFields, ok := shape.IsStruct()
		if !ok {
			return Expression{}, cerrors.New(cerrors.TypeMismatch, "struct literal of a non-struct type")
		}
		if len(expectedFields) != len(e.Fields) {
			return Expression{}, cerrors.New(cerrors.ArityMismatch, "struct literal has the wrong number of fields")
		}
		hirFields := make(map[string]Expression, len(e.Fields))
		for _, f := range e.Fields {
			hv, err := b.lowerExpression(sc, f.Value)
			if err != nil {
				return Expression{}, err
			}
			hirFields[f.Name] = hv
		}
		for _, f := range expectedFields {
			v, ok := hirFields[f.Name]
			if !ok {
				return Expression{}, cerrors.New(cerrors.ArityMismatch, "struct literal missing field %q", f.Name)
			}
			if !v.Type.Equal(f.Type) {
				return Expression{}, cerrors.New(cerrors.TypeMismatch, "struct literal field %q has the wrong type", f.Name)
			}
		}
		return Expression{Type: e.Type, Kind: StructLiteralExpr{Fields: hirFields}}, nil

	case ast.ReferenceExpr:
		inner, err := b.lowerExpression(sc, e.Expr)
		if err != nil {
			return Expression{}, err
		}
		return Expression{Type: typesys.ReferenceG(inner.Type), Kind: ReferenceExpr{Expr: &inner}}, nil

	case ast.DereferenceExpr:
		inner, err := b.lowerExpression(sc, e.Expr)
		if err != nil {
			return Expression{}, err
		}
		refd, ok := inner.Type.IsReference()
		if !ok {
			return Expression{}, cerrors.New(cerrors.TypeMismatch, "dereference of a non-reference expression")
		}
		return Expression{Type: refd, Kind: DereferenceExpr{Expr: &inner}}, nil

	default:
		return Expression{}, cerrors.New(cerrors.Parse, "unknown expression kind")
	}
}

// resolveCall finds the declaration a call site names: candidates share the
// call's name and type-argument count, and the match is the candidate whose
// declared argument types, after substituting the call's type arguments for
// its type parameters, equal the call's argument types positionally.
func (b *Builder) resolveCall(name string, typeArgs, argTypes []typesys.GenericType) (funcEntry, error) {
	candidates := b.functionMap[funcKey{name: name, arity: len(typeArgs)}]
	if len(candidates) == 0 {
		return funcEntry{}, cerrors.New(cerrors.UnboundName, "no function %q takes %d type parameters", name, len(typeArgs))
	}

	arityMatched := false
	for _, cand := range candidates {
		if len(cand.argTypes) != len(argTypes) {
			continue
		}
		arityMatched = true
		binding := typesys.NewGenericBinding()
		for i, tv := range cand.typevars {
			binding.Bind(tv, typeArgs[i])
		}
		matches := true
		for i, declared := range cand.argTypes {
			if !declared.Bind(binding).Equal(argTypes[i]) {
				matches = false
				break
			}
		}
		if matches {
			return cand, nil
		}
	}
	if !arityMatched {
		return funcEntry{}, cerrors.New(cerrors.ArityMismatch, "no overload of %q takes %d arguments", name, len(argTypes))
	}
	return funcEntry{}, cerrors.New(cerrors.TypeMismatch, "no overload of %q accepts these argument types", name)
}

func findField(fields []typesys.Field[typesys.GenericType], name string) (typesys.GenericType, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return typesys.GenericType{}, false
}

func binopFromSymbol(sym string) (binops.Operator, bool) {
	switch sym {
	case "+":
		return binops.Add, true
	case "-":
		return binops.Sub, true
	case "*":
		return binops.Mul, true
	case "==":
		return binops.Equals, true
	case "<":
		return binops.Less, true
	case "%":
		return binops.Modulo, true
	default:
		return 0, false
	}
}


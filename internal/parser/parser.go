// Package parser turns a token stream into the AST of internal/ast: a
// hand-written recursive descent, no parser generator and no combinator
// library.
package parser

import (
	"strconv"

	"github.com/arcturus-lang/armc/internal/ast"
	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/token"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// Parse builds a Program from a token stream already produced by
// internal/lexer.
func Parse(toks []token.Token) (*ast.Program, error) {
	p := &parser{
		toks:      toks,
		newtypeID: ids.NewFactory(ids.NewNewtypeID),
		names:     make(map[string]ids.NewtypeID),
	}
	return p.parseProgram()
}

type parser struct {
	toks []token.Token
	pos  int

	newtypeID *ids.Factory[ids.NewtypeID]
	names     map[string]ids.NewtypeID // struct name -> id, populated in pass 1

	// typeParams is the enclosing function's type-parameter scope while
	// parsing its signature and body; nil at top level.
	typeParams map[string]ids.TypevarID
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k token.Kind) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, cerrors.NewAt(cerrors.Parse, p.cur().Offset,
			"expected %s, found %s", k, p.cur().Kind)
	}
	return p.advance(), nil
}

func (p *parser) at(k token.Kind) bool { return p.cur().Kind == k }

// parseProgram runs two passes over the top level: first it collects every
// struct name (so forward references among struct fields resolve), then it
// parses the struct bodies (in no fixed order) and the function
// declarations (in source order).
func (p *parser) parseProgram() (*ast.Program, error) {
	type pending struct {
		typeParams []string
		bodyStart  int
	}
	structStarts := make(map[string]pending)

	save := p.pos
	for !p.at(token.EOF) {
		if p.at(token.Struct) {
			p.advance()
			name, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			tps, err := p.parseOptionalTypeParamDecl()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.LBrace); err != nil {
				return nil, err
			}
			structStarts[name.Text] = pending{typeParams: tps, bodyStart: p.pos}
			p.names[name.Text] = p.newtypeID.Next()
			if err := p.skipBalancedBraces(); err != nil {
				return nil, err
			}
			continue
		}
		if p.at(token.Fun) {
			if err := p.skipFunction(); err != nil {
				return nil, err
			}
			continue
		}
		return nil, cerrors.NewAt(cerrors.Parse, p.cur().Offset, "expected fun or struct, found %s", p.cur().Kind)
	}

	defs := make(map[ids.NewtypeID]typesys.NewtypeDef, len(structStarts))
	for name, pend := range structStarts {
		id := p.names[name]
		p.pos = pend.bodyStart
		p.typeParams = paramScope(pend.typeParams)
		fields, err := p.parseStructFields()
		if err != nil {
			return nil, err
		}
		tvs := make([]ids.TypevarID, len(pend.typeParams))
		for i, n := range pend.typeParams {
			tvs[i] = p.typeParams[n]
		}
		defs[id] = typesys.NewtypeDef{TypeParams: tvs, Shape: typesys.StructShape(fields)}
		p.typeParams = nil
	}

	table, err := typesys.Build(defs)
	if err != nil {
		return nil, err
	}

	p.pos = save
	var funcs []*ast.Function
	for !p.at(token.EOF) {
		if p.at(token.Struct) {
			p.advance()
			if _, err := p.expect(token.Ident); err != nil {
				return nil, err
			}
			if _, err := p.parseOptionalTypeParamDecl(); err != nil {
				return nil, err
			}
			if _, err := p.expect(token.LBrace); err != nil {
				return nil, err
			}
			if err := p.skipBalancedBraces(); err != nil {
				return nil, err
			}
			continue
		}
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	return &ast.Program{TypeTable: table, Functions: funcs}, nil
}

func paramScope(names []string) map[string]ids.TypevarID {
	f := ids.NewFactory(ids.NewTypevarID)
	scope := make(map[string]ids.TypevarID, len(names))
	for _, n := range names {
		scope[n] = f.Next()
	}
	return scope
}

// skipFunction and skipBalancedBraces let pass 1 jump over bodies whose
// contents (which may reference not-yet-registered struct names) are only
// meaningful once every struct name is known.
func (p *parser) skipFunction() error {
	p.advance() // 'fun'
	if _, err := p.expect(token.Ident); err != nil {
		return err
	}
	if _, err := p.parseOptionalTypeParamDecl(); err != nil {
		return err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		switch p.cur().Kind {
		case token.EOF:
			return cerrors.NewAt(cerrors.Parse, p.cur().Offset, "unterminated parameter list")
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		}
		p.advance()
	}
	if p.at(token.Arrow) {
		p.advance()
		if _, err := p.parseTypeSkip(); err != nil {
			return err
		}
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return err
	}
	return p.skipBalancedBraces()
}

// skipBalancedBraces consumes tokens up to and including the matching '}'
// for a '{' already consumed by the caller.
func (p *parser) skipBalancedBraces() error {
	depth := 1
	for depth > 0 {
		switch p.cur().Kind {
		case token.EOF:
			return cerrors.NewAt(cerrors.Parse, p.cur().Offset, "unterminated block")
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
		}
		p.advance()
	}
	return nil
}

// parseTypeSkip advances past one TYPE without building anything, used by
// the name-collection pass which doesn't yet have every struct name.
func (p *parser) parseTypeSkip() (struct{}, error) {
	for p.at(token.Amp) {
		p.advance()
	}
	if _, err := p.expect(token.Ident); err != nil {
		return struct{}{}, err
	}
	if p.at(token.Lt) {
		p.advance()
		for {
			if _, err := p.parseTypeSkip(); err != nil {
				return struct{}{}, err
			}
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.Gt); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, nil
}

func (p *parser) parseOptionalTypeParamDecl() ([]string, error) {
	if !p.at(token.Lt) {
		return nil, nil
	}
	p.advance()
	var names []string
	for {
		id, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		names = append(names, id.Text)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.Gt); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *parser) parseStructFields() ([]typesys.Field[typesys.GenericType], error) {
	var fields []typesys.Field[typesys.GenericType]
	for !p.at(token.RBrace) {
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, typesys.Field[typesys.GenericType]{Name: name.Text, Type: typ})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.advance() // '}'
	return fields, nil
}

func (p *parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(token.Fun); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	tps, err := p.parseOptionalTypeParamDecl()
	if err != nil {
		return nil, err
	}
	p.typeParams = paramScope(tps)
	defer func() { p.typeParams = nil }()

	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Param
	for !p.at(token.RParen) {
		aname, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Param{Name: aname.Text, Type: typ})
		if p.at(token.Comma) {
			p.advance()
		}
	}
	p.advance() // ')'

	retType := typesys.PrimG(typesys.None)
	if p.at(token.Arrow) {
		p.advance()
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.Function{Name: name.Text, TypeParams: tps, Args: args, Body: body, RetType: retType}, nil
}

// parseType parses `int | bool | none | &TYPE | NAME['<' TYPE,... '>']`,
// resolving NAME against the enclosing function/struct's in-scope type
// parameters first and the global struct-name table second.
func (p *parser) parseType() (typesys.GenericType, error) {
	if p.at(token.Amp) {
		p.advance()
		inner, err := p.parseType()
		if err != nil {
			return typesys.GenericType{}, err
		}
		return typesys.ReferenceG(inner), nil
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return typesys.GenericType{}, err
	}
	switch name.Text {
	case "int":
		return typesys.PrimG(typesys.Integer), nil
	case "bool":
		return typesys.PrimG(typesys.Bool), nil
	case "none":
		return typesys.PrimG(typesys.None), nil
	}
	if tv, ok := p.typeParams[name.Text]; ok {
		return typesys.TypeVarG(tv), nil
	}
	id, ok := p.names[name.Text]
	if !ok {
		return typesys.GenericType{}, cerrors.NewAt(cerrors.UnboundName, name.Offset, "unknown type %q", name.Text)
	}
	var args []typesys.GenericType
	if p.at(token.Lt) {
		p.advance()
		for {
			arg, err := p.parseType()
			if err != nil {
				return typesys.GenericType{}, err
			}
			args = append(args, arg)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.Gt); err != nil {
			return typesys.GenericType{}, err
		}
	}
	return typesys.NewTypeG(id, args), nil
}

func (p *parser) parseBlock() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !p.at(token.RBrace) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // '}'
	return stmts, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.Let:
		p.advance()
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Eq); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return ast.LetStmt{Var: name.Text, Type: typ, Value: val}, nil

	case token.If:
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LBrace); err != nil {
			return nil, err
		}
		thenBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		var elseBody []ast.Statement
		if p.at(token.Else) {
			p.advance()
			if _, err := p.expect(token.LBrace); err != nil {
				return nil, err
			}
			elseBody, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
		}
		return ast.IfStmt{Condition: cond, ThenBody: thenBody, ElseBody: elseBody}, nil

	case token.While:
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LBrace); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return ast.WhileStmt{Condition: cond, Body: body}, nil

	case token.Break:
		p.advance()
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return ast.BreakStmt{}, nil

	case token.Continue:
		p.advance()
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return ast.ContinueStmt{}, nil

	case token.Return:
		p.advance()
		if p.at(token.Semi) {
			p.advance()
			return ast.ReturnStmt{}, nil
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return ast.ReturnStmt{Value: val}, nil

	case token.Print:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return ast.PrintStmt{Value: val}, nil

	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.at(token.Eq) {
			p.advance()
			lv, err := exprToLValue(expr)
			if err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Semi); err != nil {
				return nil, err
			}
			return ast.AssignStmt{Target: lv, Value: val}, nil
		}
		return nil, cerrors.NewAt(cerrors.Parse, p.cur().Offset, "expected assignment or statement, found %s", p.cur().Kind)
	}
}

// exprToLValue reinterprets an already-parsed expression as a place,
// rejecting non-assignable shapes — the lvalue grammar and the expression
// grammar share a prefix (NAME, NAME.field, deref EXPR) so it is simplest
// to parse once and narrow, rather than duplicate the recursive descent.
func exprToLValue(e ast.Expression) (ast.LValue, error) {
	switch v := e.(type) {
	case ast.VariableExpr:
		return ast.LVariable{Name: v.Name}, nil
	case ast.FieldAccessExpr:
		of, err := exprToLValue(v.Expr)
		if err != nil {
			return nil, err
		}
		return ast.LFieldAccess{Of: of, Field: v.Field}, nil
	case ast.DereferenceExpr:
		return ast.LDeref{Expr: v.Expr}, nil
	default:
		return nil, cerrors.New(cerrors.Parse, "left-hand side of assignment is not assignable")
	}
}

// Precedence, lowest to highest: {==, <} < {+, -} < {*, %} < field access.

func (p *parser) parseExpr() (ast.Expression, error) { return p.parseComparison() }

func (p *parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(token.EqEq) || p.at(token.Lt) {
		op := "=="
		if p.at(token.Lt) {
			op = "<"
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.BinOpExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(token.Plus) || p.at(token.Minus) {
		op := "+"
		if p.at(token.Minus) {
			op = "-"
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.BinOpExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.Star) || p.at(token.Percent) {
		op := "*"
		if p.at(token.Percent) {
			op = "%"
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.BinOpExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expression, error) {
	switch p.cur().Kind {
	case token.Ref:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.ReferenceExpr{Expr: e}, nil
	case token.Deref:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.DereferenceExpr{Expr: e}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() (ast.Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at(token.Dot) {
		p.advance()
		field, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		e = ast.FieldAccessExpr{Expr: e, Field: field.Text}
	}
	return e, nil
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	switch p.cur().Kind {
	case token.Int:
		tok := p.advance()
		n, err := strconv.ParseInt(tok.Text, 10, 32)
		if err != nil {
			return nil, cerrors.NewAt(cerrors.Parse, tok.Offset, "invalid integer literal %q", tok.Text)
		}
		return ast.IntLiteral{Value: int32(n)}, nil

	case token.True:
		p.advance()
		return ast.BoolLiteral{Value: true}, nil

	case token.False:
		p.advance()
		return ast.BoolLiteral{Value: false}, nil

	case token.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil

	case token.Ident:
		name := p.advance()

		// Explicit type arguments at a generic call site or struct
		// literal, e.g. f<&T>(x) or Box<int>{ inner: 1 }.
		var typeArgs []typesys.GenericType
		if p.at(token.Lt) {
			checkpoint := p.pos
			args, ok := p.tryParseTypeArgList()
			if ok {
				typeArgs = args
			} else {
				p.pos = checkpoint
			}
		}

		if p.at(token.LParen) {
			p.advance()
			var args []ast.Expression
			for !p.at(token.RParen) {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(token.Comma) {
					p.advance()
				}
			}
			p.advance() // ')'
			return ast.FuncCallExpr{FuncName: name.Text, TypeArgs: typeArgs, Args: args}, nil
		}

		if structID, isStruct := p.names[name.Text]; isStruct && p.at(token.LBrace) {
			p.advance()
			var fields []ast.StructField
			for !p.at(token.RBrace) {
				fname, err := p.expect(token.Ident)
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(token.Colon); err != nil {
					return nil, err
				}
				val, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				fields = append(fields, ast.StructField{Name: fname.Text, Value: val})
				if p.at(token.Comma) {
					p.advance()
				}
			}
			p.advance() // '}'
			return ast.StructLiteralExpr{Type: typesys.NewTypeG(structID, typeArgs), Fields: fields}, nil
		}

		return ast.VariableExpr{Name: name.Text}, nil

	default:
		return nil, cerrors.NewAt(cerrors.Parse, p.cur().Offset, "unexpected token %s in expression", p.cur().Kind)
	}
}

// tryParseTypeArgList speculatively parses a '<' TYPE (',' TYPE)* '>' type
// argument list, used to disambiguate `f<T>(...)` and `Box<T>{...}` from
// `a < b`. The list must be followed by '(' or '{' to count — a lone
// `a < b > c` never is, since '>' is not an operator of the expression
// grammar. Returns ok=false (restoring is the caller's job) if what
// follows doesn't parse as a type list.
func (p *parser) tryParseTypeArgList() (_ []typesys.GenericType, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	p.advance() // '<'
	var args []typesys.GenericType
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, false
		}
		args = append(args, t)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if !p.at(token.Gt) {
		return nil, false
	}
	p.advance()
	if !p.at(token.LParen) && !p.at(token.LBrace) {
		return nil, false
	}
	return args, true
}

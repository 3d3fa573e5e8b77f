package mir

import (
	"sort"

	"github.com/arcturus-lang/armc/internal/hir"
	"github.com/arcturus-lang/armc/internal/ids"
)

// loweredStatement is the auxiliary sum statement lowering returns, letting
// a single source statement communicate to its caller whether straight-line
// lowering continues, the current block is now closed, or a fresh
// successor block was opened — what would otherwise need nonlocal control
// flow to express.
type loweredStatement interface{ isLoweredStatement() }

type lsStatements struct{ stmts []Statement }
type lsTermination struct {
	stmts []Statement
	term  Terminator
}
type lsTabulaRasa struct{ next ids.BlockID }

func (lsStatements) isLoweredStatement()  {}
func (lsTermination) isLoweredStatement() {}
func (lsTabulaRasa) isLoweredStatement()  {}

// builder owns the in-progress state of one function's CFG construction:
// the cell and block id factories, the cells collected so far, the loop
// stack, and the block bookkeeping — opening a basic block pushes its id
// onto the processing stack; closing it with a terminator pops and commits
// it to the collected map.
type builder struct {
	varMap        map[ids.VarID]ids.CellID
	cells         map[ids.CellID]Cell
	cellIDs       *ids.Factory[ids.CellID]
	blockIDs      *ids.Factory[ids.BlockID]
	loopStarts    []ids.BlockID
	loopEnds      []ids.BlockID
	collected     map[ids.BlockID]*Block
	wip           map[ids.BlockID][]Statement
	processing    []ids.BlockID
}

// LowerProgram flattens every function into CFG form: HIR -> MIR.
func LowerProgram(prog *hir.Program) *Program {
	funcs := make(map[ids.FuncID]*Function, len(prog.Functions))
	for id, fn := range prog.Functions {
		funcs[id] = lowerFunction(fn)
	}
	return &Program{TypeTable: prog.TypeTable, CallGraph: prog.CallGraph, Functions: funcs, Entry: prog.Entry}
}

func lowerFunction(fn *hir.Function) *Function {
	b := &builder{
		varMap:    make(map[ids.VarID]ids.CellID),
		cells:     make(map[ids.CellID]Cell),
		cellIDs:   ids.NewFactory(ids.NewCellID),
		blockIDs:  ids.NewFactory(ids.NewBlockID),
		collected: make(map[ids.BlockID]*Block),
		wip:       make(map[ids.BlockID][]Statement),
	}

	// Cells for declared variables are created in VarID order so that the
	// same source always numbers its cells the same way — map iteration
	// order must not leak into ids that end up in dumps and labels.
	varIDs := make([]ids.VarID, 0, len(fn.Variables))
	for varID := range fn.Variables {
		varIDs = append(varIDs, varID)
	}
	sort.Slice(varIDs, func(i, j int) bool { return varIDs[i].Raw() < varIDs[j].Raw() })
	for _, varID := range varIDs {
		v := fn.Variables[varID]
		cellID := b.addCell(Cell{Type: v.Type, Kind: VarCell{Name: v.Name}})
		b.varMap[varID] = cellID
	}

	entry := b.lowerStmtBlock(fn.Body, Return{})
	if len(b.wip) != 0 {
		panic("mir: function lowering finished with unterminated blocks")
	}

	args := make([]ids.CellID, len(fn.Args))
	for i, varID := range fn.Args {
		args[i] = b.varMap[varID]
	}

	return &Function{
		Name:     fn.Name,
		TypeVars: fn.TypeVars,
		Args:     args,
		Cells:    b.cells,
		Blocks:   b.collected,
		Entry:    entry,
		RetType:  fn.RetType,
	}
}

// lowerStmtBlock lowers a sequence of statements into a fresh block (and
// however many further blocks its control flow opens), closing the final
// open block with tailTerm when it falls off the end rather than ending in
// break/continue/return. Returns the id of the block execution enters
// through.
func (b *builder) lowerStmtBlock(stmts []hir.Statement, tailTerm Terminator) ids.BlockID {
	entryID := b.addNewBlock()
	currTop := entryID
	b.switchToBlock(entryID)

	for _, stmt := range stmts {
		b.switchToBlock(currTop)
		switch ls := b.lowerStmt(stmt).(type) {
		case lsStatements:
			b.pushToCurrentBlock(ls.stmts)
		case lsTermination:
			b.pushToCurrentBlock(ls.stmts)
			b.terminateCurrentBlock(ls.term)
			return entryID
		case lsTabulaRasa:
			currTop = ls.next
		}
	}

	// Falling off the end leaves exactly one block still open: currTop —
	// the entry itself, or the merge/after block a trailing if/while opened.
	// Close it unconditionally so every branch target the construct emitted
	// resolves to a committed, terminated block.
	b.switchToBlock(currTop)
	b.terminateCurrentBlock(tailTerm)
	return entryID
}

func (b *builder) lowerStmt(stmt hir.Statement) loweredStatement {
	switch s := stmt.(type) {
	case hir.LetStmt:
		cellID := b.varMap[s.Var]
		target := Place{Type: b.cells[cellID].Type, Base: CellBase{Cell: cellID}}
		val, valStmts := b.lowerExpr(s.Value)
		return lsStatements{stmts: append(valStmts, Assign{Target: target, Value: val})}

	case hir.AssignStmt:
		val, valStmts := b.lowerExpr(s.Value)
		target, targetStmts := b.lowerPlace(s.Target)
		stmts := append(valStmts, targetStmts...)
		stmts = append(stmts, Assign{Target: target, Value: val})
		return lsStatements{stmts: stmts}

	case hir.IfStmt:
		condVal, condStmts := b.lowerExpr(s.Condition)
		b.pushToCurrentBlock(condStmts)
		currID := b.currentBlockID()

		mergeID := b.addNewBlock()
		thenID := b.lowerStmtBlock(s.ThenBody, Goto{Target: mergeID})
		elseID := mergeID
		if s.ElseBody != nil {
			elseID = b.lowerStmtBlock(s.ElseBody, Goto{Target: mergeID})
		}

		b.switchToBlock(currID)
		b.terminateCurrentBlock(Branch{Condition: condVal, Then: thenID, Else: elseID})
		return lsTabulaRasa{next: mergeID}

	case hir.WhileStmt:
		headID := b.addNewBlock()
		b.loopStarts = append(b.loopStarts, headID)
		b.terminateCurrentBlock(Goto{Target: headID})

		afterID := b.addNewBlock()
		b.loopEnds = append(b.loopEnds, afterID)

		bodyID := b.lowerStmtBlock(s.Body, Goto{Target: headID})

		b.switchToBlock(headID)
		condVal, condStmts := b.lowerExpr(s.Condition)
		b.pushToCurrentBlock(condStmts)
		b.terminateCurrentBlock(Branch{Condition: condVal, Then: bodyID, Else: afterID})

		b.loopStarts = b.loopStarts[:len(b.loopStarts)-1]
		b.loopEnds = b.loopEnds[:len(b.loopEnds)-1]
		return lsTabulaRasa{next: afterID}

	case hir.BreakStmt:
		return lsTermination{term: Goto{Target: b.loopEnds[len(b.loopEnds)-1]}}

	case hir.ContinueStmt:
		return lsTermination{term: Goto{Target: b.loopStarts[len(b.loopStarts)-1]}}

	case hir.ReturnStmt:
		if s.Value.Kind == nil {
			return lsTermination{term: Return{}}
		}
		val, stmts := b.lowerExpr(s.Value)
		return lsTermination{stmts: stmts, term: Return{Value: val, HasValue: true}}

	case hir.PrintStmt:
		val, stmts := b.lowerExpr(s.Value)
		return lsStatements{stmts: append(stmts, Print{Value: val})}

	default:
		panic("mir: unknown HIR statement kind")
	}
}

func (b *builder) lowerPlace(place hir.Place) (Place, []Statement) {
	switch k := place.Kind.(type) {
	case hir.VariablePlace:
		cellID := b.varMap[k.Var]
		return Place{Type: place.Type, Base: CellBase{Cell: cellID}}, nil

	case hir.StructFieldPlace:
		of, stmts := b.lowerPlace(*k.Of)
		chain := append(append([]string{}, of.FieldChain...), k.Field)
		return Place{Type: place.Type, Base: of.Base, FieldChain: chain}, stmts

	case hir.DerefPlace:
		refVal, refStmts := b.lowerExpr(k.Expr)
		cellID := b.addCell(Cell{Type: refVal.Type, Kind: TempCell{}})
		assign := Assign{Target: Place{Type: refVal.Type, Base: CellBase{Cell: cellID}}, Value: refVal}
		return Place{Type: place.Type, Base: DerefBase{Cell: cellID}}, append(refStmts, assign)

	default:
		panic("mir: unknown HIR place kind")
	}
}

func (b *builder) lowerExpr(expr hir.Expression) (Value, []Statement) {
	switch e := expr.Kind.(type) {
	case hir.IntLiteral:
		return Value{Type: expr.Type, Kind: IntLiteral{Value: e.Value}}, nil

	case hir.BoolLiteral:
		if e.Value {
			return Value{Type: expr.Type, Kind: BoolTrue{}}, nil
		}
		return Value{Type: expr.Type, Kind: BoolFalse{}}, nil

	case hir.VariableExpr:
		cellID := b.varMap[e.Var]
		place := Place{Type: expr.Type, Base: CellBase{Cell: cellID}}
		return Value{Type: expr.Type, Kind: PlaceVal{Place: place}}, nil

	case hir.BinOpExpr:
		lVal, lStmts := b.lowerExpr(*e.Left)
		rVal, rStmts := b.lowerExpr(*e.Right)
		cellID := b.addCell(Cell{Type: expr.Type, Kind: TempCell{}})
		target := Place{Type: expr.Type, Base: CellBase{Cell: cellID}}
		stmts := append(append(lStmts, rStmts...), BinOp{Target: target, Op: e.Op, Left: lVal, Right: rVal})
		return Value{Type: expr.Type, Kind: PlaceVal{Place: target}}, stmts

	case hir.FuncCallExpr:
		var argVals []Value
		var stmts []Statement
		for _, a := range e.Args {
			v, s := b.lowerExpr(a)
			argVals = append(argVals, v)
			stmts = append(stmts, s...)
		}
		cellID := b.addCell(Cell{Type: expr.Type, Kind: TempCell{}})
		target := Place{Type: expr.Type, Base: CellBase{Cell: cellID}}
		stmts = append(stmts, Call{Target: target, Func: e.Func, TypeParams: e.TypeParams, Args: argVals})
		return Value{Type: expr.Type, Kind: PlaceVal{Place: target}}, stmts

	case hir.FieldAccessExpr:
		of, stmts := b.lowerExpr(*e.Expr)
		place, ok := of.Kind.(PlaceVal)
		if !ok {
			panic("mir: field access on a non-place value")
		}
		chain := append(append([]string{}, place.Place.FieldChain...), e.Field)
		accessPlace := Place{Type: expr.Type, Base: place.Place.Base, FieldChain: chain}
		return Value{Type: expr.Type, Kind: PlaceVal{Place: accessPlace}}, stmts

	case hir.StructLiteralExpr:
		fields := make(map[string]Value, len(e.Fields))
		var stmts []Statement
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v, s := b.lowerExpr(e.Fields[name])
			fields[name] = v
			stmts = append(stmts, s...)
		}
		return Value{Type: expr.Type, Kind: StructLiteral{Fields: fields}}, stmts

	case hir.ReferenceExpr:
		refd, stmts := b.lowerExpr(*e.Expr)
		switch rk := refd.Kind.(type) {
		case PlaceVal:
			return Value{Type: expr.Type, Kind: ReferenceVal{Place: rk.Place}}, stmts
		case ReferenceVal:
			// Reference to a reference: materialize a temporary cell to
			// give the inner reference a named address.
			cellID := b.addCell(Cell{Type: refd.Type, Kind: TempCell{}})
			tempPlace := Place{Type: refd.Type, Base: CellBase{Cell: cellID}}
			stmts = append(stmts, Assign{Target: tempPlace, Value: refd})
			return Value{Type: expr.Type, Kind: ReferenceVal{Place: tempPlace}}, stmts
		default:
			panic("mir: reference of a non-place, non-reference value")
		}

	case hir.DereferenceExpr:
		refVal, refStmts := b.lowerExpr(*e.Expr)
		cellID := b.addCell(Cell{Type: refVal.Type, Kind: TempCell{}})
		assign := Assign{Target: Place{Type: refVal.Type, Base: CellBase{Cell: cellID}}, Value: refVal}
		place := Place{Type: expr.Type, Base: DerefBase{Cell: cellID}}
		return Value{Type: expr.Type, Kind: PlaceVal{Place: place}}, append(refStmts, assign)

	default:
		panic("mir: unknown HIR expression kind")
	}
}

func (b *builder) addCell(c Cell) ids.CellID {
	id := b.cellIDs.Next()
	b.cells[id] = c
	return id
}

func (b *builder) addNewBlock() ids.BlockID {
	id := b.blockIDs.Next()
	b.wip[id] = nil
	return id
}

func (b *builder) switchToBlock(id ids.BlockID) {
	if _, ok := b.wip[id]; !ok {
		panic("mir: switched to a block that was never opened")
	}
	b.processing = append(b.processing, id)
}

func (b *builder) pushToCurrentBlock(stmts []Statement) {
	id := b.currentBlockID()
	b.wip[id] = append(b.wip[id], stmts...)
}

func (b *builder) currentBlockID() ids.BlockID {
	return b.processing[len(b.processing)-1]
}

// terminateCurrentBlock closes the innermost open block, committing it to
// the collected map and popping the processing stack. Forgetting to call
// this before the function returns is a builder bug — lowerFunction
// asserts the wip map is empty once lowering finishes.
func (b *builder) terminateCurrentBlock(term Terminator) {
	id := b.currentBlockID()
	stmts := b.wip[id]
	delete(b.wip, id)
	b.collected[id] = &Block{Statements: stmts, Terminator: term}
	b.processing = b.processing[:len(b.processing)-1]
}

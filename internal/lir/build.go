package lir

import (
	"sort"

	"github.com/arcturus-lang/armc/internal/cmir"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// LowerProgram erases types and assigns layout: CMIR -> LIR.
func LowerProgram(prog *cmir.Program) (*Program, error) {
	layoutTable, err := BuildTable(prog.TypeTable, prog.Newtypes)
	if err != nil {
		return nil, err
	}

	b := &builder{
		layoutTable:  layoutTable,
		cellChunkMap: make(map[ids.CellID]ids.CellID),
		chunkTable:   make(map[ids.CellID]ChunkLayout),
		chunkIDs:     ids.NewFactory(ids.NewCellID),
	}

	// One chunk-id factory serves the whole program, so functions are
	// lowered in id order to keep chunk numbering reproducible.
	funcIDs := make([]ids.FuncID, 0, len(prog.Functions))
	for id := range prog.Functions {
		funcIDs = append(funcIDs, id)
	}
	sort.Slice(funcIDs, func(i, j int) bool { return funcIDs[i].Raw() < funcIDs[j].Raw() })
	funcs := make(map[ids.FuncID]*Function, len(prog.Functions))
	for _, id := range funcIDs {
		funcs[id] = b.lowerFunction(prog.Functions[id])
	}
	return &Program{Functions: funcs, Entry: prog.Entry}, nil
}

// builder owns the chunk-id allocation for the whole program: one factory
// and one chunk table serve every function. currentTemps collects the
// chunks materialized while lowering whichever function is currently in
// progress, since those chunks (struct-literal and call-argument staging
// areas) have no corresponding CMIR cell to be discovered through.
type builder struct {
	layoutTable  *Table
	cellChunkMap map[ids.CellID]ids.CellID
	chunkTable   map[ids.CellID]ChunkLayout
	chunkIDs     *ids.Factory[ids.CellID]
	currentTemps []ids.CellID
}

func (b *builder) lowerFunction(fn *cmir.Function) *Function {
	b.currentTemps = nil

	// Chunk ids are assigned in cell-id order so the same program always
	// numbers its chunks the same way.
	cellIDs := make([]ids.CellID, 0, len(fn.Cells))
	for cellID := range fn.Cells {
		cellIDs = append(cellIDs, cellID)
	}
	sort.Slice(cellIDs, func(i, j int) bool { return cellIDs[i].Raw() < cellIDs[j].Raw() })
	for _, cellID := range cellIDs {
		chunkID := b.chunkIDs.Next()
		b.cellChunkMap[cellID] = chunkID
		b.chunkTable[chunkID] = b.layoutTable.GetLayout(fn.Cells[cellID].Type)
	}

	blockIDs := make([]ids.BlockID, 0, len(fn.Blocks))
	for id := range fn.Blocks {
		blockIDs = append(blockIDs, id)
	}
	sort.Slice(blockIDs, func(i, j int) bool { return blockIDs[i].Raw() < blockIDs[j].Raw() })
	blocks := make(map[ids.BlockID]*Block, len(fn.Blocks))
	for _, id := range blockIDs {
		blocks[id] = b.lowerBlock(fn.Blocks[id])
	}

	chunks := make(map[ids.CellID]int, len(fn.Cells)+len(b.currentTemps))
	for cellID := range fn.Cells {
		chunks[b.cellChunkMap[cellID]] = b.chunkTable[b.cellChunkMap[cellID]].Size
	}
	for _, chunkID := range b.currentTemps {
		chunks[chunkID] = b.chunkTable[chunkID].Size
	}

	args := make([]ids.CellID, len(fn.Args))
	for i, cellID := range fn.Args {
		args[i] = b.cellChunkMap[cellID]
	}

	return &Function{Blocks: blocks, Entry: fn.Entry, Chunks: chunks, Args: args}
}

func (b *builder) lowerBlock(block *cmir.Block) *Block {
	var stmts []Statement
	for _, stmt := range block.Statements {
		stmts = append(stmts, b.lowerStmt(stmt)...)
	}
	term, termStmts := b.lowerTerminator(block.Terminator)
	stmts = append(stmts, termStmts...)
	return &Block{Statements: stmts, Terminator: term}
}

func (b *builder) lowerStmt(stmt cmir.Statement) []Statement {
	switch s := stmt.(type) {
	case cmir.Assign:
		target := b.lowerPlace(s.Target)
		return b.lowerValueIntoPlace(s.Value, target)

	case cmir.BinOp:
		leftOp, leftStmts := b.lowerValue(s.Left)
		rightOp, rightStmts := b.lowerValue(s.Right)
		binStmt := BinOp{Dest: b.lowerPlace(s.Target), Op: s.Op, Left: leftOp, Right: rightOp}
		out := append(leftStmts, rightStmts...)
		return append(out, binStmt)

	case cmir.Call:
		var argPlaces []Place
		var argStmts []Statement
		for _, arg := range s.Args {
			chunkID := b.addTempChunk(arg.Type)
			argPlace := Place{Size: b.chunkTable[chunkID].Size, Kind: Local{Base: chunkID}}
			argPlaces = append(argPlaces, argPlace)
			argStmts = append(argStmts, b.lowerValueIntoPlace(arg, argPlace)...)
		}
		call := Call{Dest: b.lowerPlace(s.Target), Func: s.Func, Args: argPlaces}
		return append(argStmts, call)

	case cmir.Print:
		opnd, stmts := b.lowerValue(s.Value)
		return append(stmts, Print{Value: opnd})

	default:
		panic("lir: unknown CMIR statement kind")
	}
}

func (b *builder) lowerTerminator(term cmir.Terminator) (Terminator, []Statement) {
	switch t := term.(type) {
	case cmir.Goto:
		return Goto{Target: t.Target}, nil

	case cmir.Branch:
		condOp, condStmts := b.lowerValue(t.Condition)
		return Branch{Condition: condOp, Then: t.Then, Else: t.Else}, condStmts

	case cmir.Return:
		if !t.HasValue {
			return Return{}, nil
		}
		retOp, retStmts := b.lowerValue(t.Value)
		return Return{Value: retOp, HasValue: true}, retStmts

	default:
		panic("lir: unknown CMIR terminator kind")
	}
}

// lowerValue produces an operand plus whatever statements must run before
// it — everything except a struct literal collapses to an operand with no
// supporting statements; a struct literal is materialized into a fresh
// temporary chunk field-by-field first; the builder never emits a bulk
// memcpy.
func (b *builder) lowerValue(value cmir.Value) (Value, []Statement) {
	size := b.layoutTable.GetLayout(value.Type).Size
	switch k := value.Kind.(type) {
	case cmir.PlaceVal:
		return Value{Size: size, Kind: PlaceVal{Place: b.lowerPlace(k.Place)}}, nil
	case cmir.IntLiteral:
		return Value{Size: size, Kind: IntLiteral{Value: k.Value}}, nil
	case cmir.BoolTrue:
		return Value{Size: size, Kind: BoolTrue{}}, nil
	case cmir.BoolFalse:
		return Value{Size: size, Kind: BoolFalse{}}, nil
	case cmir.StructLiteral:
		chunkID := b.addTempChunk(value.Type)
		tempPlace := Place{Size: size, Kind: Local{Base: chunkID}}
		stmts := b.lowerValueIntoPlace(value, tempPlace)
		return Value{Size: size, Kind: PlaceVal{Place: tempPlace}}, stmts
	case cmir.ReferenceVal:
		return Value{Size: size, Kind: ReferenceVal{Place: b.lowerPlace(k.Place)}}, nil
	default:
		panic("lir: unknown CMIR value kind")
	}
}

// addTempChunk allocates a fresh chunk with no backing CMIR cell, used to
// stage a struct literal or a call argument before it is stored or passed.
func (b *builder) addTempChunk(typ typesys.ConcreteType) ids.CellID {
	chunkID := b.chunkIDs.Next()
	b.chunkTable[chunkID] = b.layoutTable.GetLayout(typ)
	b.currentTemps = append(b.currentTemps, chunkID)
	return chunkID
}

// lowerValueIntoPlace stores value into target, decomposing a struct
// literal into one store per field at the field's offset within target
// rather than ever emitting a single aggregate store.
func (b *builder) lowerValueIntoPlace(value cmir.Value, target Place) []Statement {
	size := b.layoutTable.GetLayout(value.Type).Size
	switch k := value.Kind.(type) {
	case cmir.PlaceVal:
		return b.copyPlace(value.Type, b.lowerPlace(k.Place), target)
	case cmir.IntLiteral:
		return []Statement{Store{Dest: target, Value: Value{Size: size, Kind: IntLiteral{Value: k.Value}}}}
	case cmir.BoolTrue:
		return []Statement{Store{Dest: target, Value: Value{Size: size, Kind: BoolTrue{}}}}
	case cmir.BoolFalse:
		return []Statement{Store{Dest: target, Value: Value{Size: size, Kind: BoolFalse{}}}}
	case cmir.StructLiteral:
		var stmts []Statement
		layout := b.layoutTable.GetLayout(value.Type)
		structFields, ok := layout.Kind.(Struct)
		if !ok {
			panic("lir: struct literal typed as a non-struct layout")
		}
		offset := 0
		for _, f := range structFields.Fields {
			fv, ok := k.Fields[f.Name]
			if !ok {
				panic("lir: struct literal missing a declared field")
			}
			fsize := b.layoutTable.GetLayout(f.Type).Size
			fTarget := Place{Size: fsize, Kind: incrementOffset(target.Kind, offset)}
			offset += fsize
			stmts = append(stmts, b.lowerValueIntoPlace(fv, fTarget)...)
		}
		return stmts
	case cmir.ReferenceVal:
		return []Statement{Store{Dest: target, Value: Value{Size: size, Kind: ReferenceVal{Place: b.lowerPlace(k.Place)}}}}
	default:
		panic("lir: unknown CMIR value kind")
	}
}

// copyPlace moves the value at src into dst, one word-sized store per
// (transitively) atomic field when typ is a struct — an aggregate move never
// survives into LIR as a single oversized store.
func (b *builder) copyPlace(typ typesys.ConcreteType, src, dst Place) []Statement {
	layout := b.layoutTable.GetLayout(typ)
	fields, ok := layout.Kind.(Struct)
	if !ok {
		return []Statement{Store{Dest: dst, Value: Value{Size: layout.Size, Kind: PlaceVal{Place: src}}}}
	}
	var stmts []Statement
	offset := 0
	for _, f := range fields.Fields {
		fsize := b.layoutTable.GetLayout(f.Type).Size
		fSrc := Place{Size: fsize, Kind: incrementOffset(src.Kind, offset)}
		fDst := Place{Size: fsize, Kind: incrementOffset(dst.Kind, offset)}
		stmts = append(stmts, b.copyPlace(f.Type, fSrc, fDst)...)
		offset += fsize
	}
	return stmts
}

func (b *builder) lowerPlace(place cmir.Place) Place {
	var kind PlaceKind
	switch base := place.Base.(type) {
	case cmir.CellBase:
		chunkID := b.cellChunkMap[base.Cell]
		baseType := b.chunkTable[chunkID].Type
		offset := b.lowerFieldChain(baseType, place.FieldChain)
		kind = Local{Base: chunkID, Offset: offset}
	case cmir.DerefBase:
		chunkID := b.cellChunkMap[base.Cell]
		refType := b.chunkTable[chunkID].Type
		inner, ok := refType.IsReference()
		if !ok {
			panic("lir: deref place whose base cell is not a reference")
		}
		offset := b.lowerFieldChain(inner, place.FieldChain)
		kind = Deref{Pointer: chunkID, Offset: offset}
	default:
		panic("lir: unknown CMIR place base kind")
	}
	return Place{Size: b.layoutTable.GetLayout(place.Type).Size, Kind: kind}
}

// lowerFieldChain walks a dotted field-access chain against base's struct
// layout, accumulating the byte offset of the final field: each step adds
// the sizes of every sibling field declared before the one being entered,
// then descends into that field's own type.
func (b *builder) lowerFieldChain(base typesys.ConcreteType, chain []string) int {
	offset := 0
	cur := base
	for _, name := range chain {
		layout := b.layoutTable.GetLayout(cur)
		fields, ok := layout.Kind.(Struct)
		if !ok {
			panic("lir: field access chain into a non-struct type")
		}
		found := false
		for _, f := range fields.Fields {
			if f.Name == name {
				cur = f.Type
				found = true
				break
			}
			offset += b.layoutTable.GetLayout(f.Type).Size
		}
		if !found {
			panic("lir: field access chain names an undeclared field")
		}
	}
	return offset
}

func incrementOffset(kind PlaceKind, inc int) PlaceKind {
	switch k := kind.(type) {
	case Local:
		return Local{Base: k.Base, Offset: k.Offset + inc}
	case Deref:
		return Deref{Pointer: k.Pointer, Offset: k.Offset + inc}
	default:
		panic("lir: unknown place kind")
	}
}

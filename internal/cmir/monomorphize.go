package cmir

import (
	"sort"
	"strconv"
	"strings"

	"github.com/arcturus-lang/armc/internal/callgraph"
	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/mir"
	"github.com/arcturus-lang/armc/internal/pareto"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// request is one pending (generic function, concrete type arguments) pair
// still waiting to be built, already assigned the monomorphic id it will be
// filed under once built.
type request struct {
	generic ids.FuncID
	args    []typesys.ConcreteType
	target  ids.FuncID
}

// monomorphizer owns the whole pass's in-progress state, dropped once
// LowerProgram returns.
type monomorphizer struct {
	mirFuncs  map[ids.FuncID]*mir.Function
	typeTable *typesys.Table
	callGraph *callgraph.Graph

	monoMap map[string]ids.FuncID
	queue   []request
	built   map[ids.FuncID]*Function

	funcIDs  *ids.Factory[ids.FuncID]
	cellIDs  *ids.Factory[ids.CellID]
	blockIDs *ids.Factory[ids.BlockID]

	guard *pareto.Guard
}

// LowerProgram monomorphizes a whole program: MIR -> CMIR.
func LowerProgram(prog *mir.Program) (*Program, error) {
	m := &monomorphizer{
		mirFuncs:  prog.Functions,
		typeTable: prog.TypeTable,
		callGraph: prog.CallGraph,
		monoMap:   make(map[string]ids.FuncID),
		built:     make(map[ids.FuncID]*Function),
		funcIDs:   ids.NewFactory(ids.NewFuncID),
		cellIDs:   ids.NewFactory(ids.NewCellID),
		blockIDs:  ids.NewFactory(ids.NewBlockID),
		guard:     pareto.NewGuard(),
	}

	entryTarget, err := m.request(prog.Entry, nil)
	if err != nil {
		return nil, err
	}

	for len(m.queue) > 0 {
		req := m.queue[len(m.queue)-1]
		m.queue = m.queue[:len(m.queue)-1]
		fn, err := m.buildFunction(req)
		if err != nil {
			return nil, cerrors.Wrap(err, "monomorphization")
		}
		m.built[req.target] = fn
	}

	return &Program{
		TypeTable: m.typeTable,
		Functions: m.built,
		Entry:     entryTarget,
		Newtypes:  m.collectNewtypes(),
	}, nil
}

// request returns the monomorphic id standing for (generic, args),
// allocating a fresh one and enqueueing the work if this is the first time
// this exact instantiation has been requested. The Pareto divergence guard
// runs here, at first-request time rather than at build time, so an
// already-cached instantiation is never re-checked: the pass terminates
// exactly when the set of reachable monomorphic instances is finite.
func (m *monomorphizer) request(generic ids.FuncID, args []typesys.ConcreteType) (ids.FuncID, error) {
	key := monoKey(generic, args)
	if id, ok := m.monoMap[key]; ok {
		return id, nil
	}

	rank := make([]int, len(args))
	for i, a := range args {
		r, err := m.typeTable.GenericityRank(a)
		if err != nil {
			return ids.FuncID{}, err
		}
		rank[i] = r
	}
	bucket := strconv.Itoa(generic.Raw())
	if m.guard.Observe(bucket, rank) {
		return ids.FuncID{}, cerrors.New(cerrors.MonomorphizationDiverges,
			"instantiating function %d at %v Pareto-improves on an earlier instantiation: unbounded generic recursion", generic.Raw(), args)
	}

	id := m.funcIDs.Next()
	m.monoMap[key] = id
	m.queue = append(m.queue, request{generic: generic, args: args, target: id})
	return id, nil
}

func monoKey(generic ids.FuncID, args []typesys.ConcreteType) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(generic.Raw()))
	for _, a := range args {
		sb.WriteByte(';')
		sb.WriteString(a.String())
	}
	return sb.String()
}

func (m *monomorphizer) buildFunction(req request) (*Function, error) {
	genFn := m.mirFuncs[req.generic]

	// Every callee of this instantiation is discovered through the call
	// graph up front: binding the caller's concrete type arguments through
	// each recorded call site yields the callee's own concrete arguments,
	// and requesting them here allocates (and Pareto-checks) the callee
	// ids before any block is lowered. Block lowering below then resolves
	// each call site against the already-allocated ids.
	for _, callee := range m.callGraph.ConcreteCallees(req.generic, req.args) {
		if _, err := m.request(callee.Func, callee.TypeParams); err != nil {
			return nil, err
		}
	}

	binding := typesys.NewBinding()
	for i, tv := range genFn.TypeVars {
		binding.Bind(tv, req.args[i])
	}

	// Fresh cell and block ids are handed out in the order of the generic
	// function's own ids, not map iteration order, so the same program
	// always monomorphizes to identically numbered CMIR.
	cellMap := make(map[ids.CellID]ids.CellID, len(genFn.Cells))
	cells := make(map[ids.CellID]Cell, len(genFn.Cells))
	for _, cellID := range sortedCellIDs(genFn.Cells) {
		cell := genFn.Cells[cellID]
		newID := m.cellIDs.Next()
		cellMap[cellID] = newID
		cells[newID] = Cell{Type: cell.Type.Monomorphize(binding), Kind: lowerCellKind(cell.Kind)}
	}

	blockMap := make(map[ids.BlockID]ids.BlockID, len(genFn.Blocks))
	for _, blockID := range sortedBlockIDs(genFn.Blocks) {
		blockMap[blockID] = m.blockIDs.Next()
	}

	blocks := make(map[ids.BlockID]*Block, len(genFn.Blocks))
	for _, blockID := range sortedBlockIDs(genFn.Blocks) {
		lowered, err := m.lowerBlock(genFn.Blocks[blockID], binding, blockMap, cellMap)
		if err != nil {
			return nil, err
		}
		blocks[blockMap[blockID]] = lowered
	}

	args := make([]ids.CellID, len(genFn.Args))
	for i, c := range genFn.Args {
		args[i] = cellMap[c]
	}

	return &Function{
		Name:    genFn.Name,
		Args:    args,
		Cells:   cells,
		Blocks:  blocks,
		Entry:   blockMap[genFn.Entry],
		RetType: genFn.RetType.Monomorphize(binding),
	}, nil
}

func lowerCellKind(k mir.CellKind) CellKind {
	switch v := k.(type) {
	case mir.VarCell:
		return VarCell{Name: v.Name}
	case mir.TempCell:
		return TempCell{}
	default:
		panic("cmir: unknown MIR cell kind")
	}
}

func (m *monomorphizer) lowerBlock(
	block *mir.Block,
	binding *typesys.Binding,
	blockMap map[ids.BlockID]ids.BlockID,
	cellMap map[ids.CellID]ids.CellID,
) (*Block, error) {
	stmts := make([]Statement, 0, len(block.Statements))
	for _, stmt := range block.Statements {
		switch s := stmt.(type) {
		case mir.Assign:
			stmts = append(stmts, Assign{
				Target: m.lowerPlace(s.Target, binding, cellMap),
				Value:  m.lowerValue(s.Value, binding, cellMap),
			})

		case mir.BinOp:
			stmts = append(stmts, BinOp{
				Target: m.lowerPlace(s.Target, binding, cellMap),
				Op:     s.Op,
				Left:   m.lowerValue(s.Left, binding, cellMap),
				Right:  m.lowerValue(s.Right, binding, cellMap),
			})

		case mir.Call:
			concreteArgs := make([]typesys.ConcreteType, len(s.TypeParams))
			for i, tp := range s.TypeParams {
				concreteArgs[i] = tp.Monomorphize(binding)
			}
			target, ok := m.monoMap[monoKey(s.Func, concreteArgs)]
			if !ok {
				panic("cmir: call site was not discovered through the call graph")
			}
			args := make([]Value, len(s.Args))
			for i, a := range s.Args {
				args[i] = m.lowerValue(a, binding, cellMap)
			}
			stmts = append(stmts, Call{
				Target: m.lowerPlace(s.Target, binding, cellMap),
				Func:   target,
				Args:   args,
			})

		case mir.Print:
			stmts = append(stmts, Print{Value: m.lowerValue(s.Value, binding, cellMap)})

		default:
			panic("cmir: unknown MIR statement kind")
		}
	}

	term, err := m.lowerTerminator(block.Terminator, binding, blockMap, cellMap)
	if err != nil {
		return nil, err
	}
	return &Block{Statements: stmts, Terminator: term}, nil
}

func (m *monomorphizer) lowerTerminator(
	term mir.Terminator,
	binding *typesys.Binding,
	blockMap map[ids.BlockID]ids.BlockID,
	cellMap map[ids.CellID]ids.CellID,
) (Terminator, error) {
	switch t := term.(type) {
	case mir.Goto:
		return Goto{Target: blockMap[t.Target]}, nil

	case mir.Branch:
		return Branch{
			Condition: m.lowerValue(t.Condition, binding, cellMap),
			Then:      blockMap[t.Then],
			Else:      blockMap[t.Else],
		}, nil

	case mir.Return:
		if !t.HasValue {
			return Return{}, nil
		}
		return Return{Value: m.lowerValue(t.Value, binding, cellMap), HasValue: true}, nil

	default:
		return nil, cerrors.New(cerrors.Parse, "cmir: unknown MIR terminator kind")
	}
}

func (m *monomorphizer) lowerValue(v mir.Value, binding *typesys.Binding, cellMap map[ids.CellID]ids.CellID) Value {
	typ := v.Type.Monomorphize(binding)
	switch k := v.Kind.(type) {
	case mir.PlaceVal:
		return Value{Type: typ, Kind: PlaceVal{Place: m.lowerPlace(k.Place, binding, cellMap)}}
	case mir.IntLiteral:
		return Value{Type: typ, Kind: IntLiteral{Value: k.Value}}
	case mir.BoolTrue:
		return Value{Type: typ, Kind: BoolTrue{}}
	case mir.BoolFalse:
		return Value{Type: typ, Kind: BoolFalse{}}
	case mir.StructLiteral:
		fields := make(map[string]Value, len(k.Fields))
		for name, fv := range k.Fields {
			fields[name] = m.lowerValue(fv, binding, cellMap)
		}
		return Value{Type: typ, Kind: StructLiteral{Fields: fields}}
	case mir.ReferenceVal:
		return Value{Type: typ, Kind: ReferenceVal{Place: m.lowerPlace(k.Place, binding, cellMap)}}
	default:
		panic("cmir: unknown MIR value kind")
	}
}

func (m *monomorphizer) lowerPlace(p mir.Place, binding *typesys.Binding, cellMap map[ids.CellID]ids.CellID) Place {
	var base PlaceBase
	switch b := p.Base.(type) {
	case mir.CellBase:
		base = CellBase{Cell: cellMap[b.Cell]}
	case mir.DerefBase:
		base = DerefBase{Cell: cellMap[b.Cell]}
	default:
		panic("cmir: unknown MIR place base kind")
	}
	chain := p.FieldChain
	return Place{Type: p.Type.Monomorphize(binding), Base: base, FieldChain: chain}
}

// collectNewtypes walks every cell and return type of every monomorphized
// function, recursively expanding struct fields through the type table, and
// records each distinct concrete newtype instantiation reached. The layout
// builder needs this complete set up front before it can compute any one
// type's layout.
func (m *monomorphizer) collectNewtypes() []NewtypeInstance {
	seen := make(map[string]NewtypeInstance)
	var walk func(ct typesys.ConcreteType)
	walk = func(ct typesys.ConcreteType) {
		if inner, ok := ct.IsReference(); ok {
			walk(inner)
			return
		}
		id, args, ok := ct.IsNewType()
		if !ok {
			return
		}
		key := monoKey(ids.NewFuncID(id.Raw()), args) // reuse the same string-encoding scheme; only used as a dedup key here
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = NewtypeInstance{ID: id, Args: args}
		shape, err := m.typeTable.Monomorphize(id, args)
		if err != nil {
			return // ErrUnimplementedEnum: nothing further to recurse into
		}
		fields, ok := shape.IsStruct()
		if !ok {
			return
		}
		for _, f := range fields {
			walk(f.Type)
		}
	}

	funcIDs := make([]ids.FuncID, 0, len(m.built))
	for id := range m.built {
		funcIDs = append(funcIDs, id)
	}
	sort.Slice(funcIDs, func(i, j int) bool { return funcIDs[i].Raw() < funcIDs[j].Raw() })
	for _, id := range funcIDs {
		fn := m.built[id]
		for _, cellID := range sortedCellIDs(fn.Cells) {
			walk(fn.Cells[cellID].Type)
		}
		walk(fn.RetType)
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]NewtypeInstance, 0, len(seen))
	for _, key := range keys {
		out = append(out, seen[key])
	}
	return out
}

func sortedCellIDs[V any](m map[ids.CellID]V) []ids.CellID {
	out := make([]ids.CellID, 0, len(m))
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

package hir

import (
	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/typesys"
)

// scope is the per-function builder state for name resolution: a stack of
// lexical scopes (name -> VarID), innermost last, plus a parallel stack of
// "is this scope a loop body" bits consulted by inLoop. A scope pushed for
// a plain block must not count as "inside a loop," so the flags live per
// frame rather than in a single depth counter.
type scope struct {
	funcID  ids.FuncID
	retType typesys.GenericType

	varIDs *ids.Factory[ids.VarID]
	varMap map[ids.VarID]Variable

	frames   []map[string]ids.VarID
	loopFlag []bool
}

func newScope(funcID ids.FuncID, typevars []ids.TypevarID, retType typesys.GenericType) *scope {
	_ = typevars // calls and binops look up type params by id, not by name
	sc := &scope{
		funcID:  funcID,
		retType: retType,
		varIDs:  ids.NewFactory(ids.NewVarID),
		varMap:  make(map[ids.VarID]Variable),
	}
	sc.pushScope(false)
	return sc
}

// addVar declares a new variable in the innermost scope, shadowing any
// prior binding of the same name in that scope — redeclaration is
// permitted and the new VarID wins.
func (s *scope) addVar(v Variable) ids.VarID {
	id := s.varIDs.Next()
	s.varMap[id] = v
	s.frames[len(s.frames)-1][v.Name] = id
	return id
}

// pushScope opens a new lexical scope, tagging it as a loop body when
// loopBlock is true.
func (s *scope) pushScope(loopBlock bool) {
	s.frames = append(s.frames, make(map[string]ids.VarID))
	s.loopFlag = append(s.loopFlag, loopBlock)
}

// popScope closes the innermost lexical scope.
func (s *scope) popScope() {
	s.frames = s.frames[:len(s.frames)-1]
	s.loopFlag = s.loopFlag[:len(s.loopFlag)-1]
}

// lookup searches inner-to-outer for name, returning UnboundName if no
// enclosing scope declares it.
func (s *scope) lookup(name string) (ids.VarID, typesys.GenericType, error) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if id, ok := s.frames[i][name]; ok {
			return id, s.varMap[id].Type, nil
		}
	}
	return ids.VarID{}, typesys.GenericType{}, cerrors.New(cerrors.UnboundName, "undefined identifier %q", name)
}

// inLoop reports whether any enclosing scope (not just the innermost one)
// is a loop body.
func (s *scope) inLoop() bool {
	for _, b := range s.loopFlag {
		if b {
			return true
		}
	}
	return false
}

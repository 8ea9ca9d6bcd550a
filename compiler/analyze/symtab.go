package analyze

import (
	"github.com/patlang/pat/compiler/ast"
)

type (
	Symbol struct {
		Name string
		Type ast.Type

		IsFunction bool
		IsBuiltin  bool
		ParamTypes []ast.Type
		ReturnType ast.Type
	}

	SymTab struct {
		scopes []map[string]*Symbol
	}
)

func NewSymTab() *SymTab {
	s := &SymTab{}
	s.PushScope()

	return s
}

func (s *SymTab) PushScope() {
	s.scopes = append(s.scopes, map[string]*Symbol{})
}

func (s *SymTab) PopScope() {
	if len(s.scopes) != 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *SymTab) Insert(sym *Symbol) bool {
	cur := s.scopes[len(s.scopes)-1]

	if _, ok := cur[sym.Name]; ok {
		return false
	}

	cur[sym.Name] = sym

	return true
}

func (s *SymTab) InsertGlobal(sym *Symbol) bool {
	g := s.scopes[0]

	if _, ok := g[sym.Name]; ok {
		return false
	}

	g[sym.Name] = sym

	return true
}

func (s *SymTab) ExistsInCurrent(name string) bool {
	_, ok := s.scopes[len(s.scopes)-1][name]
	return ok
}

// Lookup walks scopes innermost-out. Built-in routines resolve last,
// so user definitions shadow them.
func (s *SymTab) Lookup(name string) *Symbol {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if sym, ok := s.scopes[i][name]; ok {
			return sym
		}
	}

	if b, ok := Builtins[name]; ok {
		return b
	}

	return nil
}

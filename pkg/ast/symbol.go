package ast

import "github.com/xplshn/vslc/pkg/token"

// SymbolKind classifies what a name is bound to
type SymbolKind int

const (
	SymFunction SymbolKind = iota
	SymGlobalVar
	SymGlobalArray
	SymLocalVar
	SymParameter
)

func (k SymbolKind) String() string {
	switch k {
	case SymFunction: return "function"
	case SymGlobalVar: return "global variable"
	case SymGlobalArray: return "global array"
	case SymLocalVar: return "local variable"
	case SymParameter: return "parameter"
	}
	return "unknown symbol"
}

// Symbol is a resolved name. Seq is the declaration sequence number for
// parameters and locals.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Seq    int
	Tok    token.Token
	Params []*Symbol
	Locals *SymbolTable
	Body   *Node
	Length *Node
}

// ParamCount is the arity of a function symbol.
func (s *Symbol) ParamCount() int { return len(s.Params) }

// SymbolTable maps names to symbols and remembers insertion order.
type SymbolTable struct {
	order []*Symbol
	index map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]*Symbol)}
}

// Insert appends sym. A later symbol with the same name hides the earlier one
// from Lookup but both remain in Symbols.
func (t *SymbolTable) Insert(sym *Symbol) {
	t.order = append(t.order, sym)
	t.index[sym.Name] = sym
}

func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.index[name]
	return sym, ok
}

func (t *SymbolTable) Symbols() []*Symbol { return t.order }

func (t *SymbolTable) Len() int { return len(t.order) }

// Functions returns the function symbols in declaration order.
func (t *SymbolTable) Functions() []*Symbol {
	var fns []*Symbol
	for _, sym := range t.order {
		if sym.Kind == SymFunction {
			fns = append(fns, sym)
		}
	}
	return fns
}

// Program is the unit handed to the code generator.
type Program struct {
	Globals *SymbolTable
	Strings []string
}

func NewProgram() *Program { return &Program{Globals: NewSymbolTable()} }

// AddString interns a string literal and returns its table index.
func (p *Program) AddString(s string) int {
	p.Strings = append(p.Strings, s)
	return len(p.Strings) - 1
}

package token

type Type int

const (
	EOF Type = iota
	Ident
	Number
	String
	LParen
	RParen

	// Form heads
	Program
	Var
	Array
	Func
	Block
	Assign
	Print
	Return
	If
	While
	Break
	Call
	Index

	// Operators
	Plus
	Minus
	Star
	Slash
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
	Not
)

var KeywordMap = map[string]Type{
	"program": Program,
	"var":     Var,
	"array":   Array,
	"func":    Func,
	"block":   Block,
	"assign":  Assign,
	"print":   Print,
	"return":  Return,
	"if":      If,
	"while":   While,
	"break":   Break,
	"call":    Call,
	"index":   Index,
}

var OperatorMap = map[string]Type{
	"+":  Plus,
	"-":  Minus,
	"*":  Star,
	"/":  Slash,
	"==": EqEq,
	"!=": Neq,
	"<":  Lt,
	">":  Gt,
	"<=": Lte,
	">=": Gte,
	"!":  Not,
}

// Reverse mapping from Type to its spelling
var TypeStrings = map[Type]string{
	EOF:    "end of file",
	Ident:  "identifier",
	Number: "number",
	String: "string",
	LParen: "'('",
	RParen: "')'",
}

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for str, typ := range OperatorMap {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return "unknown"
}

// IsOperator reports whether t is one of the arithmetic, relational or logical operators.
func (t Type) IsOperator() bool { return t >= Plus && t <= Not }

type Token struct {
	Type      Type
	Value     string
	FileIndex int
	Line      int
	Column    int
	Len       int
}

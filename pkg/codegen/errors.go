package codegen

import (
	"fmt"

	"github.com/xplshn/vslc/pkg/token"
	"github.com/xplshn/vslc/pkg/util"
)

// ErrorKind classifies a fatal generation error.
type ErrorKind int

const (
	NotAFunction ErrorKind = iota
	ArityMismatch
	NotAnArray
	NotAVariable
	NonConstantBound
	BreakOutsideLoop
	NoFunctions
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case NotAFunction: return "not a function"
	case ArityMismatch: return "arity mismatch"
	case NotAnArray: return "not an array"
	case NotAVariable: return "not a variable"
	case NonConstantBound: return "non-constant array bound"
	case BreakOutsideLoop: return "break outside loop"
	case NoFunctions: return "no functions"
	case Internal: return "internal error"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ExitStatus is the process status vslc exits with for this kind.
func (k ErrorKind) ExitStatus() int {
	switch k {
	case NotAFunction: return 10
	case ArityMismatch: return 11
	case NotAnArray: return 12
	case NotAVariable: return 13
	case NonConstantBound: return 14
	case BreakOutsideLoop: return 15
	case NoFunctions: return 16
	}
	return 70
}

// Error is returned by GenerateIR. Tok locates the offending construct when
// there is one.
type Error struct {
	Kind ErrorKind
	Tok  token.Token
	Msg  string
}

func (e *Error) Error() string {
	if e.Tok.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return util.NewError(e.Tok, "%s: %s", e.Kind, e.Msg).Error()
}

var zeroTok token.Token

func newError(kind ErrorKind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

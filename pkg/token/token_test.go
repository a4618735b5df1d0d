package token

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestTypeString(t *testing.T) {
	be.Equal(t, Func.String(), "func")
	be.Equal(t, Lte.String(), "<=")
	be.Equal(t, LParen.String(), "'('")
	be.Equal(t, Type(-1).String(), "unknown")
}

func TestIsOperator(t *testing.T) {
	for _, op := range OperatorMap {
		be.True(t, op.IsOperator())
	}
	for _, kw := range KeywordMap {
		be.True(t, !kw.IsOperator())
	}
	be.True(t, !Ident.IsOperator())
}

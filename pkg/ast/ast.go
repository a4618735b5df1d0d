// Package ast defines the resolved syntax tree handed to the code generator
package ast

import (
	"fmt"
	"strings"

	"github.com/xplshn/vslc/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Expressions
	Number NodeType = iota
	Ident
	Subscript
	BinaryOp
	UnaryOp
	FuncCall
	StringRef

	// Statements
	Block
	Assign
	Print
	Return
	If
	While
	Break
)

var nodeTypeNames = [...]string{
	Number: "number", Ident: "ident", Subscript: "index", BinaryOp: "binary", UnaryOp: "unary",
	FuncCall: "call", StringRef: "string", Block: "block", Assign: "assign", Print: "print",
	Return: "return", If: "if", While: "while", Break: "break",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

// --- Node Data Structs ---
type NumberNode struct{ Value int64 }
type IdentNode struct{ Name string; Sym *Symbol }
type SubscriptNode struct{ Array, Index *Node }
type BinaryOpNode struct{ Op token.Type; Left, Right *Node }
type UnaryOpNode struct{ Op token.Type; Expr *Node }
type FuncCallNode struct{ Func *Node; Args []*Node }
type StringRefNode struct{ Index int }
type BlockNode struct{ Stmts []*Node }
type AssignNode struct{ Lhs, Rhs *Node }
type PrintNode struct{ Items []*Node }
type ReturnNode struct{ Expr *Node }
type IfNode struct{ Cond, ThenBody, ElseBody *Node }
type WhileNode struct{ Cond, Body *Node }
type BreakNode struct{}

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}) *Node {
	return &Node{Type: nodeType, Tok: tok, Data: data}
}

func NewNumber(tok token.Token, value int64) *Node {
	return newNode(tok, Number, NumberNode{Value: value})
}
func NewIdent(tok token.Token, name string, sym *Symbol) *Node {
	return newNode(tok, Ident, IdentNode{Name: name, Sym: sym})
}
func NewSubscript(tok token.Token, array, index *Node) *Node {
	return newNode(tok, Subscript, SubscriptNode{Array: array, Index: index})
}
func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right})
}
func NewUnaryOp(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(tok, UnaryOp, UnaryOpNode{Op: op, Expr: expr})
}
func NewFuncCall(tok token.Token, fn *Node, args []*Node) *Node {
	return newNode(tok, FuncCall, FuncCallNode{Func: fn, Args: args})
}
func NewStringRef(tok token.Token, index int) *Node {
	return newNode(tok, StringRef, StringRefNode{Index: index})
}
func NewBlock(tok token.Token, stmts []*Node) *Node {
	return newNode(tok, Block, BlockNode{Stmts: stmts})
}
func NewAssign(tok token.Token, lhs, rhs *Node) *Node {
	return newNode(tok, Assign, AssignNode{Lhs: lhs, Rhs: rhs})
}
func NewPrint(tok token.Token, items []*Node) *Node {
	return newNode(tok, Print, PrintNode{Items: items})
}
func NewReturn(tok token.Token, expr *Node) *Node {
	return newNode(tok, Return, ReturnNode{Expr: expr})
}
func NewIf(tok token.Token, cond, thenBody, elseBody *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, ThenBody: thenBody, ElseBody: elseBody})
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body})
}
func NewBreak(tok token.Token) *Node {
	return newNode(tok, Break, BreakNode{})
}

// Children returns the owned child nodes in evaluation order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	switch d := n.Data.(type) {
	case SubscriptNode:
		return []*Node{d.Array, d.Index}
	case BinaryOpNode:
		return []*Node{d.Left, d.Right}
	case UnaryOpNode:
		return []*Node{d.Expr}
	case FuncCallNode:
		return append([]*Node{d.Func}, d.Args...)
	case BlockNode:
		return d.Stmts
	case AssignNode:
		return []*Node{d.Lhs, d.Rhs}
	case PrintNode:
		return d.Items
	case ReturnNode:
		return []*Node{d.Expr}
	case IfNode:
		if d.ElseBody == nil {
			return []*Node{d.Cond, d.ThenBody}
		}
		return []*Node{d.Cond, d.ThenBody, d.ElseBody}
	case WhileNode:
		return []*Node{d.Cond, d.Body}
	}
	return nil
}

// String renders the node in the interchange notation.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch d := n.Data.(type) {
	case NumberNode:
		return fmt.Sprint(d.Value)
	case IdentNode:
		return d.Name
	case StringRefNode:
		return fmt.Sprintf("string%d", d.Index)
	case BinaryOpNode:
		return fmt.Sprintf("(%s %s %s)", d.Op, d.Left, d.Right)
	case UnaryOpNode:
		return fmt.Sprintf("(%s %s)", d.Op, d.Expr)
	case BreakNode:
		return "(break)"
	}

	var sb strings.Builder
	sb.WriteString("(" + n.Type.String())
	for _, c := range n.Children() {
		sb.WriteString(" " + c.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Package ast defines the abstract syntax tree consumed by the code
// generator. The tree is produced by an external front end and is
// traversed read-only; sibling chains are plain slices.
package ast

import "fmt"

// Op is an operator token in a dyadic or monadic expression.
type Op int

const (
	Plus Op = iota
	Minus
	Times
	Div
	Mod

	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	And
	Or
	Not
)

var opNames = [...]string{
	Plus:  "PLUS",
	Minus: "MINUS",
	Times: "TIMES",
	Div:   "DIV",
	Mod:   "MOD",
	Eq:    "EQ",
	Ne:    "NE",
	Lt:    "LT",
	Le:    "LE",
	Gt:    "GT",
	Ge:    "GE",
	And:   "AND",
	Or:    "OR",
	Not:   "NOT",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Program is the root node: global declarations followed by the command
// sequence.
type Program struct {
	Decls []Decl
	Cmds  []Cmd
}

// Decl is a program-level declaration.
type Decl interface{ decl() }

// StoreDecl declares one global variable.
type StoreDecl struct {
	Name string
}

// FuncDecl declares a function: parameters, local variables, and a body.
// The function's own name doubles as its return variable inside the body.
type FuncDecl struct {
	Name   string
	Params []string
	Locals []string
	Body   []Cmd
}

// ProcDecl declares a procedure.
type ProcDecl struct {
	Name   string
	Params []string
	Locals []string
	Body   []Cmd
}

func (*StoreDecl) decl() {}
func (*FuncDecl) decl()  {}
func (*ProcDecl) decl()  {}

// Cmd is a command node.
type Cmd interface{ cmd() }

// AssignCmd assigns the source expression to the target, which must be a
// store reference.
type AssignCmd struct {
	Target Expr
	Source Expr
}

// CondCmd is an if/else conditional. Else may be empty.
type CondCmd struct {
	Cond Expr
	If   []Cmd
	Else []Cmd
}

// WhileCmd re-evaluates Cond before every iteration of Body.
type WhileCmd struct {
	Cond Expr
	Body []Cmd
}

// InputCmd reads one integer into the target store reference.
type InputCmd struct {
	Target Expr
}

// OutputCmd writes the value of the source store reference.
type OutputCmd struct {
	Source Expr
}

// ProcCallCmd invokes a procedure with arguments evaluated left to right.
type ProcCallCmd struct {
	Name string
	Args []Expr
}

// SkipCmd does nothing.
type SkipCmd struct{}

func (*AssignCmd) cmd()   {}
func (*CondCmd) cmd()     {}
func (*WhileCmd) cmd()    {}
func (*InputCmd) cmd()    {}
func (*OutputCmd) cmd()   {}
func (*ProcCallCmd) cmd() {}
func (*SkipCmd) cmd()     {}

// Expr is an expression node.
type Expr interface{ expr() }

// DyadicExpr applies a binary operator. And/Or short-circuit.
type DyadicExpr struct {
	Op    Op
	Left  Expr
	Right Expr
}

// MonadicExpr applies a unary operator (Minus or Not).
type MonadicExpr struct {
	Op      Op
	Operand Expr
}

// FuncCallExpr invokes a function with arguments evaluated left to right.
type FuncCallExpr struct {
	Name string
	Args []Expr
}

// LiteralExpr is an integer literal.
type LiteralExpr struct {
	Value int
}

// StoreRef references a declared variable.
type StoreRef struct {
	Name string
}

func (*DyadicExpr) expr()   {}
func (*MonadicExpr) expr()  {}
func (*FuncCallExpr) expr() {}
func (*LiteralExpr) expr()  {}
func (*StoreRef) expr()     {}

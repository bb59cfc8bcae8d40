// Package gen lowers an IML abstract syntax tree into an addressed
// instruction sequence for the stack virtual machine.
//
// The generator walks the tree once and appends instructions to a
// code.Program. Forward jump targets are emitted as placeholders and
// patched to the concrete address once the jumped-over code has been
// emitted; the resulting addresses are identical to computing targets
// up front from counted subtree lengths. Routine calls are emitted with
// symbolic targets and resolved later by the link package.
package gen

import (
	"fmt"

	"github.com/imllang/ivm/ast"
	"github.com/imllang/ivm/code"
)

// GenerationError is returned for any AST shape the generator has no
// rule for, and for unresolved or duplicated variable references.
// Generation aborts on the first error; no partial program is usable.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return e.Message + "."
}

func errorf(format string, args ...any) *GenerationError {
	return &GenerationError{Message: fmt.Sprintf(format, args...)}
}

// dyadicOpcodes maps operator tokens to their opcode. And/Or are absent
// because short-circuit lowering emits jumps instead of a single opcode.
var dyadicOpcodes = map[ast.Op]code.Opcode{
	ast.Plus:  code.OpIntPlus,
	ast.Minus: code.OpIntMinus,
	ast.Times: code.OpIntMult,
	ast.Div:   code.OpIntDiv,
	ast.Mod:   code.OpIntMod,
	ast.Eq:    code.OpIntEqual,
	ast.Ne:    code.OpIntNotEqual,
	ast.Lt:    code.OpIntLess,
	ast.Le:    code.OpIntLessEqual,
	ast.Gt:    code.OpIntGreater,
	ast.Ge:    code.OpIntGreaterEqual,
}

// scope maps variable names to store addresses. Program-scope addresses
// are absolute; routine-scope addresses are frame-relative, with -1
// reserved for a function's return cell.
type scope struct {
	addrs map[string]int
}

func newScope() *scope {
	return &scope{addrs: make(map[string]int)}
}

func (s *scope) define(name string, addr int) error {
	if _, ok := s.addrs[name]; ok {
		return errorf("variable %s declared twice", name)
	}
	s.addrs[name] = addr
	return nil
}

func (s *scope) lookup(name string) (int, error) {
	addr, ok := s.addrs[name]
	if !ok {
		return 0, errorf("undeclared variable %s", name)
	}
	return addr, nil
}

type generator struct {
	prog *code.Program
}

// Generate lowers a program AST into an addressed instruction sequence.
// The returned program still carries symbolic call targets; run
// link.Resolve before execution.
func Generate(tree *ast.Program) (*code.Program, error) {
	g := &generator{prog: code.NewProgram()}
	if err := g.program(tree); err != nil {
		return nil, err
	}
	return g.prog, nil
}

func (g *generator) program(tree *ast.Program) error {
	globals := newScope()

	storeCount := 0
	routines := make(map[string]bool)
	for _, decl := range tree.Decls {
		switch d := decl.(type) {
		case *ast.StoreDecl:
			if err := globals.define(d.Name, storeCount); err != nil {
				return err
			}
			storeCount++
		case *ast.FuncDecl:
			if routines[d.Name] {
				return errorf("routine %s declared twice", d.Name)
			}
			routines[d.Name] = true
		case *ast.ProcDecl:
			if routines[d.Name] {
				return errorf("routine %s declared twice", d.Name)
			}
			routines[d.Name] = true
		default:
			return errorf("unknown declaration")
		}
	}

	g.prog.EmitInt(code.OpAlloc, storeCount)

	if err := g.commands(tree.Cmds, globals); err != nil {
		return err
	}

	g.prog.Emit(code.OpStop)

	// Routine bodies live after Stop: functions first, then procedures.
	for _, decl := range tree.Decls {
		if d, ok := decl.(*ast.FuncDecl); ok {
			if err := g.funcDecl(d); err != nil {
				return err
			}
		}
	}
	for _, decl := range tree.Decls {
		if d, ok := decl.(*ast.ProcDecl); ok {
			if err := g.procDecl(d); err != nil {
				return err
			}
		}
	}

	return nil
}

func (g *generator) commands(cmds []ast.Cmd, sc *scope) error {
	for _, cmd := range cmds {
		if err := g.command(cmd, sc); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) command(cmd ast.Cmd, sc *scope) error {
	switch c := cmd.(type) {
	case *ast.AssignCmd:
		return g.cmdAssign(c, sc)
	case *ast.CondCmd:
		return g.cmdCond(c, sc)
	case *ast.InputCmd:
		return g.cmdInput(c, sc)
	case *ast.OutputCmd:
		return g.cmdOutput(c, sc)
	case *ast.ProcCallCmd:
		return g.cmdProcCall(c, sc)
	case *ast.SkipCmd:
		g.prog.EmitInt(code.OpUncondJump, g.prog.Len()+1)
		return nil
	case *ast.WhileCmd:
		return g.cmdWhile(c, sc)
	default:
		return errorf("unknown command")
	}
}

func (g *generator) cmdAssign(c *ast.AssignCmd, sc *scope) error {
	target, ok := c.Target.(*ast.StoreRef)
	if !ok {
		return errorf("wrong target expression for an assignment")
	}
	addr, err := sc.lookup(target.Name)
	if err != nil {
		return err
	}

	if err := g.expression(c.Source, sc); err != nil {
		return err
	}
	g.prog.EmitInt(code.OpIntLoad, addr)
	g.prog.Emit(code.OpStore)
	return nil
}

// cmdCond lowers if/else. The conditional jump lands on the else branch,
// which sits right after the unconditional jump that skips it:
//
//	<condition>
//	CondJump  ----+        (taken when the condition is 0)
//	<if branch>   |
//	UncondJump ---|--+
//	<else branch> <-+|
//	...           <--+
func (g *generator) cmdCond(c *ast.CondCmd, sc *scope) error {
	if err := g.expression(c.Cond, sc); err != nil {
		return err
	}
	elseJump := g.prog.EmitJump(code.OpCondJump)

	if err := g.commands(c.If, sc); err != nil {
		return err
	}
	endJump := g.prog.EmitJump(code.OpUncondJump)

	g.prog.PatchJump(elseJump)
	if err := g.commands(c.Else, sc); err != nil {
		return err
	}
	g.prog.PatchJump(endJump)
	return nil
}

func (g *generator) cmdInput(c *ast.InputCmd, sc *scope) error {
	target, ok := c.Target.(*ast.StoreRef)
	if !ok {
		return errorf("wrong target expression for an input command")
	}
	addr, err := sc.lookup(target.Name)
	if err != nil {
		return err
	}
	g.prog.EmitInt(code.OpIntLoad, addr)
	g.prog.EmitName(code.OpIntInput, target.Name)
	return nil
}

func (g *generator) cmdOutput(c *ast.OutputCmd, sc *scope) error {
	source, ok := c.Source.(*ast.StoreRef)
	if !ok {
		return errorf("wrong source expression for an output command")
	}
	addr, err := sc.lookup(source.Name)
	if err != nil {
		return err
	}
	g.prog.EmitInt(code.OpIntLoad, addr)
	g.prog.Emit(code.OpDeref)
	g.prog.EmitName(code.OpIntOutput, source.Name)
	return nil
}

func (g *generator) cmdProcCall(c *ast.ProcCallCmd, sc *scope) error {
	g.prog.EmitInt(code.OpAlloc, 0)
	for _, arg := range c.Args {
		if err := g.expression(arg, sc); err != nil {
			return err
		}
	}
	g.prog.EmitCall(c.Name)
	return nil
}

// cmdWhile lowers a loop. The condition is re-evaluated before every
// iteration via the back edge after the body; the exit jump lands past
// that back edge.
func (g *generator) cmdWhile(c *ast.WhileCmd, sc *scope) error {
	condStart := g.prog.Len()
	if err := g.expression(c.Cond, sc); err != nil {
		return err
	}
	exitJump := g.prog.EmitJump(code.OpCondJump)

	if err := g.commands(c.Body, sc); err != nil {
		return err
	}
	g.prog.EmitInt(code.OpUncondJump, condStart)

	g.prog.PatchJump(exitJump)
	return nil
}

func (g *generator) expression(expr ast.Expr, sc *scope) error {
	switch e := expr.(type) {
	case *ast.DyadicExpr:
		return g.exprDyadic(e, sc)
	case *ast.MonadicExpr:
		return g.exprMonadic(e, sc)
	case *ast.FuncCallExpr:
		g.prog.EmitInt(code.OpAlloc, 1)
		for _, arg := range e.Args {
			if err := g.expression(arg, sc); err != nil {
				return err
			}
		}
		g.prog.EmitCall(e.Name)
		return nil
	case *ast.LiteralExpr:
		g.prog.EmitInt(code.OpIntLoad, e.Value)
		return nil
	case *ast.StoreRef:
		addr, err := sc.lookup(e.Name)
		if err != nil {
			return err
		}
		g.prog.EmitInt(code.OpIntLoad, addr)
		g.prog.Emit(code.OpDeref)
		return nil
	default:
		return errorf("unknown expression")
	}
}

func (g *generator) exprDyadic(e *ast.DyadicExpr, sc *scope) error {
	switch e.Op {
	case ast.And:
		// Short-circuit: skip the right operand when the left is 0,
		// pushing the 0 result the jump consumed.
		if err := g.expression(e.Left, sc); err != nil {
			return err
		}
		falseJump := g.prog.EmitJump(code.OpCondJump)
		if err := g.expression(e.Right, sc); err != nil {
			return err
		}
		endJump := g.prog.EmitJump(code.OpUncondJump)
		g.prog.PatchJump(falseJump)
		g.prog.EmitInt(code.OpIntLoad, 0)
		g.prog.PatchJump(endJump)
		return nil

	case ast.Or:
		// Short-circuit: skip the right operand when the left is not 0.
		if err := g.expression(e.Left, sc); err != nil {
			return err
		}
		rightJump := g.prog.EmitJump(code.OpCondJump)
		g.prog.EmitInt(code.OpIntLoad, 1)
		endJump := g.prog.EmitJump(code.OpUncondJump)
		g.prog.PatchJump(rightJump)
		if err := g.expression(e.Right, sc); err != nil {
			return err
		}
		g.prog.PatchJump(endJump)
		return nil
	}

	op, ok := dyadicOpcodes[e.Op]
	if !ok {
		return errorf("unknown operator for a dyadic expression")
	}
	if err := g.expression(e.Left, sc); err != nil {
		return err
	}
	if err := g.expression(e.Right, sc); err != nil {
		return err
	}
	g.prog.Emit(op)
	return nil
}

func (g *generator) exprMonadic(e *ast.MonadicExpr, sc *scope) error {
	var op code.Opcode
	switch e.Op {
	case ast.Minus:
		op = code.OpIntNeg
	case ast.Not:
		op = code.OpIntNot
	default:
		return errorf("unknown operator for a monadic expression")
	}
	if err := g.expression(e.Operand, sc); err != nil {
		return err
	}
	g.prog.Emit(op)
	return nil
}

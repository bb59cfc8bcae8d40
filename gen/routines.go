package gen

import (
	"github.com/imllang/ivm/ast"
	"github.com/imllang/ivm/code"
)

// Routine bodies use frame-relative addressing: parameter i lives at
// address i, locals follow the parameters, and a function's return cell
// is the caller's Alloc(1) cell at address -1. The machine rebases
// addresses by the frame base Call records, so the same Deref/Store
// semantics serve both scopes.

func (g *generator) funcDecl(d *ast.FuncDecl) error {
	sc := newScope()
	// The function name doubles as its return variable inside the body.
	if err := sc.define(d.Name, -1); err != nil {
		return err
	}
	if err := g.routineBody(d.Name, d.Params, d.Locals, d.Body, sc, 1); err != nil {
		return err
	}
	return nil
}

func (g *generator) procDecl(d *ast.ProcDecl) error {
	return g.routineBody(d.Name, d.Params, d.Locals, d.Body, newScope(), 0)
}

// routineBody emits a routine at the current address and records the
// entry in the routine table. The entry sequence allocates the frame and
// spills call arguments from the operand stack into parameter cells,
// last argument first since it sits on top.
func (g *generator) routineBody(name string, params, locals []string, body []ast.Cmd, sc *scope, results int) error {
	g.prog.DefineRoutine(name, g.prog.Len())

	for i, p := range params {
		if err := sc.define(p, i); err != nil {
			return err
		}
	}
	for i, l := range locals {
		if err := sc.define(l, len(params)+i); err != nil {
			return err
		}
	}

	g.prog.EmitInt(code.OpAlloc, len(params)+len(locals))
	for i := len(params) - 1; i >= 0; i-- {
		g.prog.EmitInt(code.OpIntLoad, i)
		g.prog.Emit(code.OpStore)
	}

	if err := g.commands(body, sc); err != nil {
		return err
	}

	g.prog.EmitInt(code.OpReturn, results)
	return nil
}

package link

import (
	"errors"
	"testing"

	"github.com/imllang/ivm/code"
)

func callProgram() *code.Program {
	p := code.NewProgram()
	p.EmitInt(code.OpAlloc, 1)
	p.EmitCall("double")
	p.Emit(code.OpStop)
	p.EmitInt(code.OpAlloc, 1)
	p.EmitInt(code.OpReturn, 1)
	p.DefineRoutine("double", 3)
	return p
}

func TestResolve(t *testing.T) {
	p := callProgram()
	if err := Resolve(p); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	call := p.Instructions[1]
	if !call.Resolved() || call.Val != 3 {
		t.Errorf("call = %+v, want resolved target 3", call)
	}
	if err := Check(p); err != nil {
		t.Errorf("Check after Resolve: %v", err)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	p := callProgram()
	if err := Resolve(p); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	before := p.Render()
	if err := Resolve(p); err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if p.Render() != before {
		t.Error("second Resolve changed the program")
	}
}

func TestResolveUnknownRoutine(t *testing.T) {
	p := code.NewProgram()
	p.EmitCall("missing")
	p.Emit(code.OpStop)

	err := Resolve(p)
	if err == nil {
		t.Fatal("Resolve succeeded with no routine table")
	}
	var linkErr *LinkError
	if !errors.As(err, &linkErr) {
		t.Fatalf("error type %T, want *LinkError", err)
	}
	want := "unresolved routine call >>missing<< at address 0."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestResolveEntryOutOfRange(t *testing.T) {
	p := code.NewProgram()
	p.EmitCall("p")
	p.Emit(code.OpStop)
	p.DefineRoutine("p", 99)

	if err := Resolve(p); err == nil {
		t.Error("Resolve accepted an entry address past the end")
	}
}

func TestCheckReportsFirstDangling(t *testing.T) {
	p := code.NewProgram()
	p.EmitCall("zeta")
	p.EmitCall("alpha")
	p.Emit(code.OpStop)

	err := Check(p)
	if err == nil {
		t.Fatal("Check passed an unlinked program")
	}
	want := "program contains unresolved routine call >>alpha<<."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

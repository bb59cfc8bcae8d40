package code

import "testing"

func TestEveryOpcodeHasMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := op.Info()
		if info.Name == "" {
			t.Errorf("opcode %d has no name", uint8(op))
		}
		if info.Pop < -1 || info.Push < -1 {
			t.Errorf("%s has invalid stack effect %d/%d", info.Name, info.Pop, info.Push)
		}
	}
}

func TestOpcodeNameRoundTrip(t *testing.T) {
	for _, op := range AllOpcodes() {
		got, ok := OpcodeByName(op.String())
		if !ok {
			t.Fatalf("OpcodeByName(%q) not found", op.String())
		}
		if got != op {
			t.Errorf("OpcodeByName(%q) = %v, want %v", op.String(), got, op)
		}
	}
}

func TestOpcodeByNameUnknown(t *testing.T) {
	if _, ok := OpcodeByName("Bogus"); ok {
		t.Error("OpcodeByName accepted an unknown name")
	}
}

func TestStackEffects(t *testing.T) {
	tests := []struct {
		op   Opcode
		pop  int
		push int
	}{
		{OpAlloc, 0, 0},
		{OpIntLoad, 0, 1},
		{OpDeref, 1, 1},
		{OpStore, 2, 0},
		{OpIntPlus, 2, 1},
		{OpIntLess, 2, 1},
		{OpIntNeg, 1, 1},
		{OpCondJump, 1, 0},
		{OpUncondJump, 0, 0},
		{OpIntInput, 1, 0},
		{OpIntOutput, 1, 0},
		{OpCall, 0, 0},
		{OpStop, 0, 0},
	}
	for _, tt := range tests {
		info := tt.op.Info()
		if info.Pop != tt.pop || info.Push != tt.push {
			t.Errorf("%s stack effect = %d/%d, want %d/%d", info.Name, info.Pop, info.Push, tt.pop, tt.push)
		}
	}
}

func TestOperandKinds(t *testing.T) {
	if OpIntInput.Operand() != OperandName {
		t.Error("IntInput should carry a name operand")
	}
	if OpCall.Operand() != OperandTarget {
		t.Error("Call should carry a target operand")
	}
	if OpDeref.Operand() != OperandNone {
		t.Error("Deref should carry no operand")
	}
	if OpAlloc.Operand() != OperandInt {
		t.Error("Alloc should carry an integer operand")
	}
}

func TestIsJump(t *testing.T) {
	if !OpCondJump.IsJump() || !OpUncondJump.IsJump() {
		t.Error("jump opcodes not recognized")
	}
	if OpCall.IsJump() || OpStop.IsJump() {
		t.Error("non-jump opcode recognized as jump")
	}
}

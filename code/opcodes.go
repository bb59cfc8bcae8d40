package code

import "fmt"

// Opcode identifies a single VM instruction.
type Opcode uint8

const (
	// Store management
	OpAlloc Opcode = iota // Grow the store by n zeroed cells: Alloc n

	// Stack / store access
	OpIntLoad // Push an integer literal or address: IntLoad v
	OpDeref   // Pop an address, push the cell value at that address
	OpStore   // Pop an address, then a value, write the value into that cell

	// Arithmetic
	OpIntPlus  // Pop b, pop a, push a+b
	OpIntMinus // Pop b, pop a, push a-b
	OpIntMult  // Pop b, pop a, push a*b
	OpIntDiv   // Pop b, pop a, push a/b (faults on b == 0)
	OpIntMod   // Pop b, pop a, push a%b (faults on b == 0)

	// Comparison (results are 0/1)
	OpIntEqual
	OpIntNotEqual
	OpIntLess
	OpIntLessEqual
	OpIntGreater
	OpIntGreaterEqual

	// Unary
	OpIntNeg // Pop a, push -a
	OpIntNot // Pop a, push 1 if a == 0, else 0

	// Control flow
	OpCondJump   // Pop a condition; jump to the target address if it is 0
	OpUncondJump // Jump to the target address

	// I/O
	OpIntInput  // Pop an address, read one integer into that cell: IntInput name
	OpIntOutput // Pop a value, write it to the output sink: IntOutput name

	// Routines
	OpCall   // Push return linkage, open a frame, jump to the routine entry
	OpReturn // Close the current frame: Return 1 pushes the return cell first

	OpStop // Halt execution
)

// OperandKind describes what (if anything) follows an opcode.
type OperandKind uint8

const (
	OperandNone   OperandKind = iota
	OperandInt                // integer literal, address, count, or jump target
	OperandName               // variable name for the I/O collaborators
	OperandTarget             // routine entry address, symbolic until linked
)

// OpInfo is the fixed stack-effect contract of one opcode. Pop and Push
// count operand-stack entries; -1 means the effect depends on the operand
// (Return pushes the return cell only for Return 1; Call leaves the
// arguments for the callee's spill sequence).
type OpInfo struct {
	Name    string
	Pop     int
	Push    int
	Operand OperandKind
}

var opInfoTable = [...]OpInfo{
	OpAlloc:   {"Alloc", 0, 0, OperandInt},
	OpIntLoad: {"IntLoad", 0, 1, OperandInt},
	OpDeref:   {"Deref", 1, 1, OperandNone},
	OpStore:   {"Store", 2, 0, OperandNone},

	OpIntPlus:  {"IntPlus", 2, 1, OperandNone},
	OpIntMinus: {"IntMinus", 2, 1, OperandNone},
	OpIntMult:  {"IntMult", 2, 1, OperandNone},
	OpIntDiv:   {"IntDiv", 2, 1, OperandNone},
	OpIntMod:   {"IntMod", 2, 1, OperandNone},

	OpIntEqual:        {"IntEqual", 2, 1, OperandNone},
	OpIntNotEqual:     {"IntNotEqual", 2, 1, OperandNone},
	OpIntLess:         {"IntLess", 2, 1, OperandNone},
	OpIntLessEqual:    {"IntLessEqual", 2, 1, OperandNone},
	OpIntGreater:      {"IntGreater", 2, 1, OperandNone},
	OpIntGreaterEqual: {"IntGreaterEqual", 2, 1, OperandNone},

	OpIntNeg: {"IntNeg", 1, 1, OperandNone},
	OpIntNot: {"IntNot", 1, 1, OperandNone},

	OpCondJump:   {"CondJump", 1, 0, OperandInt},
	OpUncondJump: {"UncondJump", 0, 0, OperandInt},

	OpIntInput:  {"IntInput", 1, 0, OperandName},
	OpIntOutput: {"IntOutput", 1, 0, OperandName},

	OpCall:   {"Call", 0, 0, OperandTarget},
	OpReturn: {"Return", 0, -1, OperandInt},

	OpStop: {"Stop", 0, 0, OperandNone},
}

// opcodeByName is the inverse of the info table, used by the listing parser.
var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opInfoTable))
	for op, info := range opInfoTable {
		m[info.Name] = Opcode(op)
	}
	return m
}()

// Info returns the stack-effect contract for an opcode.
func (op Opcode) Info() OpInfo {
	if int(op) < len(opInfoTable) && opInfoTable[op].Name != "" {
		return opInfoTable[op]
	}
	return OpInfo{Name: fmt.Sprintf("UNKNOWN(%d)", op)}
}

// String returns the canonical opcode name used in listings.
func (op Opcode) String() string {
	return op.Info().Name
}

// Operand returns the operand kind of an opcode.
func (op Opcode) Operand() OperandKind {
	return op.Info().Operand
}

// IsJump reports whether the opcode transfers control via its operand.
func (op Opcode) IsJump() bool {
	return op == OpCondJump || op == OpUncondJump
}

// OpcodeByName looks up an opcode by its canonical listing name.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// AllOpcodes returns every defined opcode, useful for contract tests.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opInfoTable))
	for op, info := range opInfoTable {
		if info.Name != "" {
			ops = append(ops, Opcode(op))
		}
	}
	return ops
}

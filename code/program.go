package code

import (
	"fmt"
	"sort"
	"strings"
)

// Instruction is one addressed VM instruction. Addresses are assigned
// sequentially from 0 and are immutable once assigned.
//
// Val carries integer operands (literals, store addresses, jump targets,
// resolved call entries). Sym carries the variable name for the I/O opcodes
// and, for Call, the routine name while the entry address is still unknown.
type Instruction struct {
	Addr int    `cbor:"1,keyasint"`
	Op   Opcode `cbor:"2,keyasint"`
	Val  int    `cbor:"3,keyasint,omitempty"`
	Sym  string `cbor:"4,keyasint,omitempty"`
}

// Resolved reports whether the instruction still needs linking.
// Only Call instructions can be unresolved.
func (in Instruction) Resolved() bool {
	return in.Op != OpCall || in.Sym == ""
}

// String renders the instruction in the canonical listing form, without
// the trailing separator: "(addr,OPCODE operand)".
func (in Instruction) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	fmt.Fprintf(&sb, "%d,%s", in.Addr, in.Op)
	switch in.Op.Operand() {
	case OperandInt:
		fmt.Fprintf(&sb, " %d", in.Val)
	case OperandName:
		fmt.Fprintf(&sb, " %s", in.Sym)
	case OperandTarget:
		if in.Resolved() {
			fmt.Fprintf(&sb, " %d", in.Val)
		} else {
			fmt.Fprintf(&sb, " >>%s<<", in.Sym)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Program is an ordered sequence of instructions, addresses 0..N-1, plus
// the routine table recording the entry address of each lowered routine.
type Program struct {
	Instructions []Instruction  `cbor:"1,keyasint"`
	Routines     map[string]int `cbor:"2,keyasint,omitempty"`
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{Instructions: make([]Instruction, 0, 64)}
}

// Len returns the number of emitted instructions, which is also the
// address the next emitted instruction will receive.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// Emit appends an instruction with no operand and returns its address.
func (p *Program) Emit(op Opcode) int {
	return p.append(Instruction{Op: op})
}

// EmitInt appends an instruction with an integer operand.
func (p *Program) EmitInt(op Opcode, v int) int {
	return p.append(Instruction{Op: op, Val: v})
}

// EmitName appends an I/O instruction carrying a variable name.
func (p *Program) EmitName(op Opcode, name string) int {
	return p.append(Instruction{Op: op, Sym: name})
}

// EmitCall appends a Call with a symbolic, not yet linked, routine target.
func (p *Program) EmitCall(routine string) int {
	return p.append(Instruction{Op: OpCall, Sym: routine})
}

// EmitJump appends a jump with a placeholder target and returns its
// address for later patching.
func (p *Program) EmitJump(op Opcode) int {
	return p.append(Instruction{Op: op, Val: -1})
}

// PatchJump sets the jump at addr to target the next emitted instruction.
func (p *Program) PatchJump(addr int) {
	p.PatchJumpTo(addr, p.Len())
}

// PatchJumpTo sets the jump at addr to the given target address.
func (p *Program) PatchJumpTo(addr, target int) {
	p.Instructions[addr].Val = target
}

func (p *Program) append(in Instruction) int {
	in.Addr = len(p.Instructions)
	p.Instructions = append(p.Instructions, in)
	return in.Addr
}

// DefineRoutine records the entry address of a routine body.
func (p *Program) DefineRoutine(name string, entry int) {
	if p.Routines == nil {
		p.Routines = make(map[string]int)
	}
	p.Routines[name] = entry
}

// Unresolved returns the names of routines still referenced through
// call placeholders, sorted and deduplicated.
func (p *Program) Unresolved() []string {
	seen := make(map[string]bool)
	for _, in := range p.Instructions {
		if !in.Resolved() {
			seen[in.Sym] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the address invariant: addresses strictly increase by 1
// from 0 with no gaps, and the opcode of every instruction is known.
func (p *Program) Validate() error {
	for i, in := range p.Instructions {
		if in.Addr != i {
			return fmt.Errorf("instruction %d carries address %d", i, in.Addr)
		}
		if _, ok := OpcodeByName(in.Op.String()); !ok {
			return fmt.Errorf("instruction %d has unknown opcode %d", i, uint8(in.Op))
		}
	}
	return nil
}

// Render writes the canonical listing: one "(addr,OPCODE operand)," line
// per instruction, with no separator after the final line.
func (p *Program) Render() string {
	var sb strings.Builder
	for i, in := range p.Instructions {
		sb.WriteString(in.String())
		if i < len(p.Instructions)-1 {
			sb.WriteString(",\n")
		}
	}
	return sb.String()
}

// Package vm executes linked IML programs on a stack virtual machine.
//
// Machine state is a program counter, an untyped operand stack holding
// integers and store addresses interchangeably, a flat store of integer
// cells, and a frame stack for call/return linkage. Store addresses are
// frame-relative: Deref, Store, and IntInput rebase the popped address
// by the active frame base, which is 0 for program-scope code.
package vm

import (
	"fmt"
	"os"

	"github.com/imllang/ivm/code"
)

// Default resource limits, overridable per machine.
const (
	DefaultMaxStack = 1024
	DefaultMaxDepth = 256
	DefaultMaxStore = 1 << 16
)

// MachineError is raised for any runtime invariant violation. Execution
// aborts immediately; there is no partial recovery.
type MachineError struct {
	Message string
}

func (e *MachineError) Error() string {
	return e.Message + "."
}

func errorf(format string, args ...any) *MachineError {
	return &MachineError{Message: fmt.Sprintf(format, args...)}
}

// frame is one routine activation: where to return, the caller's frame
// base to restore, and the store length when the frame opened.
type frame struct {
	ret        int
	callerBase int
	base       int
}

// Machine executes one program. A machine is single-threaded and
// non-reentrant; state is reset at the start of every Run.
type Machine struct {
	prog *code.Program

	pc     int
	stack  []int
	store  []int
	frames []frame
	base   int

	in  InputSource
	out OutputSink

	// Trace prints one line per executed instruction to stderr.
	Trace bool

	MaxStack int
	MaxDepth int
	MaxStore int
}

// New creates a machine for the given program with default limits.
func New(prog *code.Program) *Machine {
	return &Machine{
		prog:     prog,
		MaxStack: DefaultMaxStack,
		MaxDepth: DefaultMaxDepth,
		MaxStore: DefaultMaxStore,
	}
}

// Run executes the program from address 0 against fresh state, reading
// via in and writing via out. It returns nil on Stop and a MachineError
// on any fault.
func (m *Machine) Run(in InputSource, out OutputSink) error {
	m.pc = 0
	m.stack = m.stack[:0]
	m.store = m.store[:0]
	m.frames = m.frames[:0]
	m.base = 0
	m.in = in
	m.out = out

	for {
		if m.pc < 0 || m.pc >= m.prog.Len() {
			return errorf("program counter %d out of range", m.pc)
		}
		instr := m.prog.Instructions[m.pc]
		m.pc++

		if m.Trace {
			fmt.Fprintf(os.Stderr, "[%04d] %-16s sp=%d base=%d\n", instr.Addr, instr.Op, len(m.stack), m.base)
		}

		done, err := m.step(instr)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (m *Machine) step(instr code.Instruction) (bool, error) {
	switch instr.Op {
	case code.OpAlloc:
		return false, m.alloc(instr.Val)

	case code.OpIntLoad:
		return false, m.push(instr.Val)

	case code.OpDeref:
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		idx, err := m.cellIndex(a)
		if err != nil {
			return false, err
		}
		return false, m.push(m.store[idx])

	case code.OpStore:
		// The generator pushes the value first, then the target address,
		// so the address is on top.
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		idx, err := m.cellIndex(a)
		if err != nil {
			return false, err
		}
		m.store[idx] = v
		return false, nil

	case code.OpIntPlus, code.OpIntMinus, code.OpIntMult, code.OpIntDiv, code.OpIntMod,
		code.OpIntEqual, code.OpIntNotEqual, code.OpIntLess, code.OpIntLessEqual,
		code.OpIntGreater, code.OpIntGreaterEqual:
		return false, m.dyadic(instr.Op)

	case code.OpIntNeg:
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		return false, m.push(-a)

	case code.OpIntNot:
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		return false, m.push(bool01(a == 0))

	case code.OpCondJump:
		c, err := m.pop()
		if err != nil {
			return false, err
		}
		if c == 0 {
			return false, m.jump(instr.Val)
		}
		return false, nil

	case code.OpUncondJump:
		return false, m.jump(instr.Val)

	case code.OpIntInput:
		a, err := m.pop()
		if err != nil {
			return false, err
		}
		idx, err := m.cellIndex(a)
		if err != nil {
			return false, err
		}
		v, err := m.in.ReadInt(instr.Sym)
		if err != nil {
			return false, errorf("cannot read input for %s: %v", instr.Sym, err)
		}
		m.store[idx] = v
		return false, nil

	case code.OpIntOutput:
		v, err := m.pop()
		if err != nil {
			return false, err
		}
		if err := m.out.WriteInt(instr.Sym, v); err != nil {
			return false, errorf("cannot write output for %s: %v", instr.Sym, err)
		}
		return false, nil

	case code.OpCall:
		return false, m.call(instr)

	case code.OpReturn:
		return false, m.ret(instr.Val)

	case code.OpStop:
		return true, nil

	default:
		return false, errorf("unknown opcode %d at address %d", uint8(instr.Op), instr.Addr)
	}
}

func (m *Machine) alloc(n int) error {
	if n < 0 {
		return errorf("negative allocation %d", n)
	}
	if len(m.store)+n > m.MaxStore {
		return errorf("store overflow")
	}
	m.store = append(m.store, make([]int, n)...)
	return nil
}

func (m *Machine) dyadic(op code.Opcode) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}

	var r int
	switch op {
	case code.OpIntPlus:
		r = a + b
	case code.OpIntMinus:
		r = a - b
	case code.OpIntMult:
		r = a * b
	case code.OpIntDiv:
		if b == 0 {
			return errorf("division by zero")
		}
		r = a / b
	case code.OpIntMod:
		if b == 0 {
			return errorf("modulo by zero")
		}
		r = a % b
	case code.OpIntEqual:
		r = bool01(a == b)
	case code.OpIntNotEqual:
		r = bool01(a != b)
	case code.OpIntLess:
		r = bool01(a < b)
	case code.OpIntLessEqual:
		r = bool01(a <= b)
	case code.OpIntGreater:
		r = bool01(a > b)
	case code.OpIntGreaterEqual:
		r = bool01(a >= b)
	}
	return m.push(r)
}

func (m *Machine) call(instr code.Instruction) error {
	if !instr.Resolved() {
		return errorf("unresolved routine call >>%s<< at address %d", instr.Sym, instr.Addr)
	}
	if len(m.frames) >= m.MaxDepth {
		return errorf("call depth exceeded")
	}
	m.frames = append(m.frames, frame{ret: m.pc, callerBase: m.base, base: len(m.store)})
	m.base = len(m.store)
	return m.jump(instr.Val)
}

// ret closes the top frame. Return 1 pushes the function's return cell
// (the caller's Alloc(1) cell just below the frame) before freeing it.
func (m *Machine) ret(results int) error {
	if len(m.frames) == 0 {
		return errorf("return without an active call")
	}
	fr := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]

	if results == 1 {
		cell := fr.base - 1
		if cell < 0 || cell >= len(m.store) {
			return errorf("missing return cell for function frame")
		}
		v := m.store[cell]
		m.store = m.store[:cell]
		if err := m.push(v); err != nil {
			return err
		}
	} else {
		m.store = m.store[:fr.base]
	}

	m.base = fr.callerBase
	m.pc = fr.ret
	return nil
}

func (m *Machine) jump(target int) error {
	if target < 0 || target >= m.prog.Len() {
		return errorf("jump target %d out of range", target)
	}
	m.pc = target
	return nil
}

// cellIndex rebases a frame-relative address and bounds-checks it.
// Cells below the frame base are reachable only through a function's
// return-cell address -1.
func (m *Machine) cellIndex(addr int) (int, error) {
	idx := m.base + addr
	if idx < 0 || idx >= len(m.store) {
		return 0, errorf("invalid store address %d", addr)
	}
	return idx, nil
}

func (m *Machine) push(v int) error {
	if len(m.stack) >= m.MaxStack {
		return errorf("stack overflow")
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *Machine) pop() (int, error) {
	if len(m.stack) == 0 {
		return 0, errorf("stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func bool01(b bool) int {
	if b {
		return 1
	}
	return 0
}

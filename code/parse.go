package code

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseListing reads a program back from its canonical text rendering.
// Blank lines and lines starting with ';' are skipped, so disassembler
// output and hand-annotated listings both load. The routine table is
// rebuilt from "; routine name @ addr" comment lines when present.
func ParseListing(src string) (*Program, error) {
	p := NewProgram()

	for lineNo, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ";") {
			if name, entry, ok := parseRoutineComment(line); ok {
				p.DefineRoutine(name, entry)
			}
			continue
		}
		// Inline annotations, like the jump-target echoes the
		// disassembler appends.
		if i := strings.Index(line, ";"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		in, err := parseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		if in.Addr != p.Len() {
			return nil, fmt.Errorf("line %d: address %d out of sequence, want %d", lineNo+1, in.Addr, p.Len())
		}
		p.Instructions = append(p.Instructions, in)
	}

	if p.Len() == 0 {
		return nil, fmt.Errorf("empty listing")
	}
	return p, nil
}

func parseInstruction(line string) (Instruction, error) {
	line = strings.TrimSuffix(line, ",")
	if !strings.HasPrefix(line, "(") || !strings.HasSuffix(line, ")") {
		return Instruction{}, fmt.Errorf("malformed entry %q", line)
	}
	body := line[1 : len(line)-1]

	addrText, rest, ok := strings.Cut(body, ",")
	if !ok {
		return Instruction{}, fmt.Errorf("malformed entry %q", line)
	}
	addr, err := strconv.Atoi(strings.TrimSpace(addrText))
	if err != nil || addr < 0 {
		return Instruction{}, fmt.Errorf("bad address %q", addrText)
	}

	name, operand, _ := strings.Cut(strings.TrimSpace(rest), " ")
	op, ok := OpcodeByName(name)
	if !ok {
		return Instruction{}, fmt.Errorf("unknown opcode %q", name)
	}
	operand = strings.TrimSpace(operand)

	in := Instruction{Addr: addr, Op: op}
	switch op.Operand() {
	case OperandNone:
		if operand != "" {
			return Instruction{}, fmt.Errorf("%s takes no operand, got %q", name, operand)
		}
	case OperandInt:
		v, err := strconv.Atoi(operand)
		if err != nil {
			return Instruction{}, fmt.Errorf("%s needs an integer operand, got %q", name, operand)
		}
		in.Val = v
	case OperandName:
		if operand == "" {
			return Instruction{}, fmt.Errorf("%s needs a name operand", name)
		}
		in.Sym = operand
	case OperandTarget:
		switch {
		case strings.HasPrefix(operand, ">>") && strings.HasSuffix(operand, "<<") && len(operand) > 4:
			in.Sym = operand[2 : len(operand)-2]
		case operand != "":
			v, err := strconv.Atoi(operand)
			if err != nil {
				return Instruction{}, fmt.Errorf("%s needs an address or >>name<< operand, got %q", name, operand)
			}
			in.Val = v
		default:
			return Instruction{}, fmt.Errorf("%s needs an operand", name)
		}
	}
	return in, nil
}

// parseRoutineComment recognizes the routine-table comments the
// disassembler emits, e.g. "; routine double @ 9".
func parseRoutineComment(line string) (string, int, bool) {
	fields := strings.Fields(strings.TrimPrefix(line, ";"))
	if len(fields) != 4 || fields[0] != "routine" || fields[2] != "@" {
		return "", 0, false
	}
	entry, err := strconv.Atoi(fields[3])
	if err != nil || entry < 0 {
		return "", 0, false
	}
	return fields[1], entry, true
}

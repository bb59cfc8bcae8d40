package code

import (
	"fmt"
	"sort"
	"strings"
)

// Disassemble returns an annotated, human-readable listing. Routine
// entries are marked with comment lines the listing parser understands,
// and jump targets are echoed for readability.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	entries := make(map[int]string, len(p.Routines))
	names := make([]string, 0, len(p.Routines))
	for name := range p.Routines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entries[p.Routines[name]] = name
		fmt.Fprintf(&sb, "; routine %s @ %d\n", name, p.Routines[name])
	}
	if len(names) > 0 {
		sb.WriteByte('\n')
	}

	for i, in := range p.Instructions {
		if name, ok := entries[in.Addr]; ok {
			fmt.Fprintf(&sb, "; --- %s ---\n", name)
		}
		sb.WriteString(in.String())
		if i < len(p.Instructions)-1 {
			sb.WriteString(",")
		}
		if in.Op.IsJump() && in.Val >= 0 {
			fmt.Fprintf(&sb, "\t; -> %d", in.Val)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Package link resolves symbolic routine-call placeholders against a
// program's routine table. Linking must happen between generation and
// execution; the machine faults on any call target left symbolic.
package link

import (
	"fmt"

	"github.com/imllang/ivm/code"
)

// LinkError is returned when a call placeholder cannot be resolved.
type LinkError struct {
	Message string
}

func (e *LinkError) Error() string {
	return e.Message + "."
}

func errorf(format string, args ...any) *LinkError {
	return &LinkError{Message: fmt.Sprintf(format, args...)}
}

// Resolve rewrites every symbolic Call target to the entry address
// recorded in the program's routine table. Each placeholder is resolved
// exactly once; already-resolved calls are left alone, so Resolve is
// idempotent. A placeholder naming a routine the table does not know is
// a LinkError.
func Resolve(p *code.Program) error {
	for i := range p.Instructions {
		in := &p.Instructions[i]
		if in.Resolved() {
			continue
		}
		entry, ok := p.Routines[in.Sym]
		if !ok {
			return errorf("unresolved routine call >>%s<< at address %d", in.Sym, in.Addr)
		}
		if entry < 0 || entry >= p.Len() {
			return errorf("routine %s entry address %d out of range", in.Sym, entry)
		}
		in.Val = entry
		in.Sym = ""
	}
	return nil
}

// Check reports whether the program is fully linked, returning a
// LinkError naming the first dangling routine otherwise.
func Check(p *code.Program) error {
	if names := p.Unresolved(); len(names) > 0 {
		return errorf("program contains unresolved routine call >>%s<<", names[0])
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imllang/ivm/code"
	"github.com/imllang/ivm/link"
)

// cmdLink resolves routine-call placeholders and writes a program object.
func cmdLink(args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	out := fs.String("o", "", "Output object file (default: input with .ivmo extension)")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configureLogging(*verbose)

	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("link: no input file given")
	}

	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	if err := link.Resolve(prog); err != nil {
		return err
	}
	if err := link.Check(prog); err != nil {
		return err
	}

	target := *out
	if target == "" {
		target = strings.TrimSuffix(path, filepath.Ext(path)) + ".ivmo"
	}
	object, err := code.MarshalProgram(prog)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, object, 0o644); err != nil {
		return err
	}
	log.Infof("wrote %s (%d bytes)", target, len(object))
	return nil
}

// cmdDisasm prints an annotated listing of a program.
func cmdDisasm(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("disasm: expected exactly one file")
	}
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	fmt.Print(prog.Disassemble())
	return nil
}

// cmdFmt re-renders a listing in canonical form.
func cmdFmt(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	write := fs.Bool("w", false, "Write the result back to the file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("fmt: no input file given")
	}

	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	rendered := prog.Render() + "\n"
	if *write {
		return os.WriteFile(path, []byte(rendered), 0o644)
	}
	fmt.Print(rendered)
	return nil
}

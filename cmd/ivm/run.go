package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/imllang/ivm/link"
	"github.com/imllang/ivm/manifest"
	"github.com/imllang/ivm/vm"
)

// cmdRun links (if needed) and executes a program, wiring stdin/stdout
// as the machine's I/O collaborators.
func cmdRun(args []string, mf *manifest.Manifest) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("trace", false, "Print each executed instruction to stderr")
	verbose := fs.Bool("v", false, "Verbose output")
	maxStack := fs.Int("max-stack", 0, "Operand stack limit (0 = default)")
	maxDepth := fs.Int("max-call-depth", 0, "Call depth limit (0 = default)")
	maxStore := fs.Int("max-store", 0, "Store size limit (0 = default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configureLogging(*verbose)

	path := fs.Arg(0)
	if path == "" && mf != nil {
		path = mf.EntryPath()
	}
	if path == "" {
		return fmt.Errorf("run: no program file given and no entry configured in ivm.toml")
	}

	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	if err := link.Resolve(prog); err != nil {
		return err
	}
	log.Infof("loaded %s (%d instructions, %d routines)", path, prog.Len(), len(prog.Routines))

	m := vm.New(prog)
	m.Trace = *trace
	if mf != nil {
		m.Trace = m.Trace || mf.VM.Trace
		if mf.VM.MaxStack > 0 {
			m.MaxStack = mf.VM.MaxStack
		}
		if mf.VM.MaxCallDepth > 0 {
			m.MaxDepth = mf.VM.MaxCallDepth
		}
		if mf.VM.MaxStore > 0 {
			m.MaxStore = mf.VM.MaxStore
		}
	}
	if *maxStack > 0 {
		m.MaxStack = *maxStack
	}
	if *maxDepth > 0 {
		m.MaxDepth = *maxDepth
	}
	if *maxStore > 0 {
		m.MaxStore = *maxStore
	}

	return m.Run(vm.NewReaderSource(os.Stdin), vm.NewWriterSink(os.Stdout))
}

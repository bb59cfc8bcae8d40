// ivm - the IML toolchain driver: link, run, and inspect VM programs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/imllang/ivm/code"
	"github.com/imllang/ivm/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("ivm")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: ivm <command> [options] [file]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run     Link and execute a program listing (.ivm) or object (.ivmo)\n")
	fmt.Fprintf(os.Stderr, "  link    Resolve routine calls and write a program object\n")
	fmt.Fprintf(os.Stderr, "  disasm  Print an annotated listing of a program\n")
	fmt.Fprintf(os.Stderr, "  fmt     Re-render a listing in canonical form\n")
	fmt.Fprintf(os.Stderr, "  cache   Manage the compiled-program cache (put, get, list, rm)\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  ivm run euclid.ivm          # link and execute a listing\n")
	fmt.Fprintf(os.Stderr, "  ivm run -trace euclid.ivmo  # execute an object with tracing\n")
	fmt.Fprintf(os.Stderr, "  ivm link -o euclid.ivmo euclid.ivm\n")
	fmt.Fprintf(os.Stderr, "  ivm cache put euclid euclid.ivmo\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Per-project defaults come from an ivm.toml found at or above the
	// working directory, when one exists.
	mf, err := manifest.FindAndLoad(".")
	if err != nil {
		fatalf("%v", err)
	}

	var cmdErr error
	switch os.Args[1] {
	case "run":
		cmdErr = cmdRun(os.Args[2:], mf)
	case "link":
		cmdErr = cmdLink(os.Args[2:])
	case "disasm":
		cmdErr = cmdDisasm(os.Args[2:])
	case "fmt":
		cmdErr = cmdFmt(os.Args[2:])
	case "cache":
		cmdErr = cmdCache(os.Args[2:], mf)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if cmdErr != nil {
		fatalf("%v", cmdErr)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadProgram reads a program from a listing (.ivm) or object (.ivmo)
// file, deciding by extension.
func loadProgram(path string) (*code.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".ivmo":
		return code.UnmarshalProgram(data)
	case ".ivm":
		return code.ParseListing(string(data))
	default:
		// Fall back on content sniffing for extensionless files.
		if strings.HasPrefix(string(data), string(code.WireMagic)) {
			return code.UnmarshalProgram(data)
		}
		return code.ParseListing(string(data))
	}
}

func configureLogging(verbose bool) {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)
}

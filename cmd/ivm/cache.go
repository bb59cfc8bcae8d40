package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/imllang/ivm/code"
	"github.com/imllang/ivm/link"
	"github.com/imllang/ivm/manifest"
	"github.com/imllang/ivm/progcache"
)

// cmdCache manages the compiled-program cache.
func cmdCache(args []string, mf *manifest.Manifest) error {
	if len(args) < 1 {
		return fmt.Errorf("cache: expected a subcommand (put, get, list, rm)")
	}

	cachePath := filepath.Join(".ivm", "cache.db")
	if mf != nil {
		cachePath = mf.CachePath()
	}
	cache, err := progcache.Open(cachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	switch args[0] {
	case "put":
		if len(args) != 3 {
			return fmt.Errorf("cache put: expected <name> <file>")
		}
		prog, err := loadProgram(args[2])
		if err != nil {
			return err
		}
		if err := link.Resolve(prog); err != nil {
			return err
		}
		hash, err := cache.Put(args[1], prog)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", args[1], hash)
		return nil

	case "get":
		if len(args) != 3 {
			return fmt.Errorf("cache get: expected <name> <file>")
		}
		prog, err := cache.Get(args[1])
		if err != nil {
			return err
		}
		object, err := code.MarshalProgram(prog)
		if err != nil {
			return err
		}
		return os.WriteFile(args[2], object, 0o644)

	case "list":
		entries, err := cache.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%-24s %s\n", e.Name, e.Hash)
		}
		return nil

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("cache rm: expected <name>")
		}
		return cache.Delete(args[1])

	default:
		return fmt.Errorf("cache: unknown subcommand %q", args[0])
	}
}

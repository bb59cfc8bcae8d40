package progcache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"

	"github.com/imllang/ivm/code"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	be.Err(t, err, nil)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleProgram(v int) *code.Program {
	p := code.NewProgram()
	p.EmitInt(code.OpAlloc, 1)
	p.EmitInt(code.OpIntLoad, v)
	p.EmitInt(code.OpIntLoad, 0)
	p.Emit(code.OpStore)
	p.Emit(code.OpStop)
	return p
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t)

	hash, err := c.Put("answer", sampleProgram(42))
	be.Err(t, err, nil)
	be.Equal(t, len(hash), 64)

	got, err := c.Get("answer")
	be.Err(t, err, nil)
	be.Equal(t, got.Render(), sampleProgram(42).Render())
}

func TestGetByHash(t *testing.T) {
	c := openTestCache(t)

	hash, err := c.Put("answer", sampleProgram(42))
	be.Err(t, err, nil)

	got, err := c.GetByHash(hash)
	be.Err(t, err, nil)
	be.Equal(t, got.Render(), sampleProgram(42).Render())

	_, err = c.GetByHash("no-such-hash")
	be.True(t, errors.Is(err, ErrNotFound))
}

func TestPutReplaces(t *testing.T) {
	c := openTestCache(t)

	first, err := c.Put("p", sampleProgram(1))
	be.Err(t, err, nil)
	second, err := c.Put("p", sampleProgram(2))
	be.Err(t, err, nil)
	be.True(t, first != second)

	got, err := c.Get("p")
	be.Err(t, err, nil)
	be.Equal(t, got.Render(), sampleProgram(2).Render())

	entries, err := c.List()
	be.Err(t, err, nil)
	be.Equal(t, len(entries), 1)
}

func TestPutIsContentAddressed(t *testing.T) {
	c := openTestCache(t)

	a, err := c.Put("one", sampleProgram(7))
	be.Err(t, err, nil)
	b, err := c.Put("two", sampleProgram(7))
	be.Err(t, err, nil)
	be.Equal(t, a, b)
}

func TestGetMissing(t *testing.T) {
	c := openTestCache(t)
	_, err := c.Get("ghost")
	be.True(t, errors.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	c := openTestCache(t)

	_, err := c.Put("zeta", sampleProgram(1))
	be.Err(t, err, nil)
	_, err = c.Put("alpha", sampleProgram(2))
	be.Err(t, err, nil)

	entries, err := c.List()
	be.Err(t, err, nil)
	be.Equal(t, len(entries), 2)
	be.Equal(t, entries[0].Name, "alpha")
	be.Equal(t, entries[1].Name, "zeta")
}

func TestDelete(t *testing.T) {
	c := openTestCache(t)

	_, err := c.Put("p", sampleProgram(3))
	be.Err(t, err, nil)
	be.Err(t, c.Delete("p"), nil)

	_, err = c.Get("p")
	be.True(t, errors.Is(err, ErrNotFound))

	be.True(t, errors.Is(c.Delete("p"), ErrNotFound))
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "cache.db")
	c, err := Open(path)
	be.Err(t, err, nil)
	defer c.Close()

	_, err = c.Put("p", sampleProgram(1))
	be.Err(t, err, nil)
}

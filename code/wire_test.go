package code

import (
	"bytes"
	"testing"

	"github.com/nalgeon/be"
)

func testProgram() *Program {
	p := NewProgram()
	p.EmitInt(OpAlloc, 1)
	p.EmitInt(OpIntLoad, 0)
	p.EmitName(OpIntInput, "x")
	p.EmitCall("double")
	p.Emit(OpStop)
	p.EmitInt(OpReturn, 1)
	p.DefineRoutine("double", 5)
	return p
}

func TestWireRoundTrip(t *testing.T) {
	p := testProgram()
	data, err := MarshalProgram(p)
	be.Err(t, err, nil)
	be.True(t, bytes.HasPrefix(data, WireMagic))

	got, err := UnmarshalProgram(data)
	be.Err(t, err, nil)
	be.Equal(t, got.Render(), p.Render())
	be.Equal(t, got.Routines, p.Routines)
}

func TestWireDeterministic(t *testing.T) {
	a, err := MarshalProgram(testProgram())
	be.Err(t, err, nil)
	b, err := MarshalProgram(testProgram())
	be.Err(t, err, nil)
	be.True(t, bytes.Equal(a, b))
}

func TestWireBadMagic(t *testing.T) {
	_, err := UnmarshalProgram([]byte("MAGE...."))
	be.Err(t, err, "bad magic")

	_, err = UnmarshalProgram([]byte{'I', 'V'})
	be.Err(t, err, "bad magic")
}

func TestWireGarbageBody(t *testing.T) {
	data := append(append([]byte{}, WireMagic...), 0xff, 0xff, 0xff)
	_, err := UnmarshalProgram(data)
	be.Err(t, err)
}

func TestWireRejectsInvalidProgram(t *testing.T) {
	p := NewProgram()
	p.Emit(OpStop)
	p.Instructions[0].Addr = 3
	_, err := MarshalProgram(p)
	be.Err(t, err, "invalid program")
}

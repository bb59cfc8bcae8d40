package code

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// WireVersion is the current object format version. Increment when making
// incompatible changes to the encoding.
const WireVersion uint16 = 1

// WireMagic prefixes every encoded program object.
var WireMagic = []byte{'I', 'V', 'M', 'O'}

// cborEncMode uses canonical encoding so the same program always encodes
// to the same bytes (the cache keys objects by content hash).
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("code: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireProgram struct {
	Version uint16   `cbor:"1,keyasint"`
	Program *Program `cbor:"2,keyasint"`
}

// MarshalProgram serializes a program to the IVMO object format.
func MarshalProgram(p *Program) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("code: refusing to encode invalid program: %w", err)
	}
	body, err := cborEncMode.Marshal(wireProgram{Version: WireVersion, Program: p})
	if err != nil {
		return nil, fmt.Errorf("code: marshal program: %w", err)
	}
	return append(append([]byte{}, WireMagic...), body...), nil
}

// UnmarshalProgram deserializes a program from the IVMO object format.
func UnmarshalProgram(data []byte) (*Program, error) {
	if len(data) < len(WireMagic) || !bytes.Equal(data[:len(WireMagic)], WireMagic) {
		return nil, fmt.Errorf("code: not a program object (bad magic)")
	}
	var w wireProgram
	if err := cbor.Unmarshal(data[len(WireMagic):], &w); err != nil {
		return nil, fmt.Errorf("code: unmarshal program: %w", err)
	}
	if w.Version > WireVersion {
		return nil, fmt.Errorf("code: object version %d is newer than supported version %d", w.Version, WireVersion)
	}
	if w.Program == nil {
		return nil, fmt.Errorf("code: object carries no program")
	}
	if err := w.Program.Validate(); err != nil {
		return nil, fmt.Errorf("code: decoded program is invalid: %w", err)
	}
	return w.Program, nil
}

package ir

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// The frontend hands modules to the backend as CBOR. Canonical mode keeps
// the encoding deterministic, so the same module always produces the same
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("ir: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode serializes a module to canonical CBOR bytes.
func Encode(m *Module) ([]byte, error) {
	return cborEncMode.Marshal(m)
}

// Decode deserializes a module from CBOR bytes and validates it.
func Decode(data []byte) (*Module, error) {
	var m Module
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("ir: unmarshal module: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

package codegen

import (
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

// Signature renders the canonical external signature of a function:
// name(type,...) with ABI type names.
func Signature(f *ir.Function) string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = abiType(p.Type)
	}
	return f.Name + "(" + strings.Join(parts, ",") + ")"
}

// Selector returns the 4-byte dispatch identifier for a function: the
// first four bytes of the Keccak-256 hash of its canonical signature.
func Selector(f *ir.Function) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(Signature(f)))
	sum := h.Sum(nil)

	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}

func abiType(t ir.Type) string {
	switch t {
	case ir.TypeBool:
		return "bool"
	case ir.TypeString:
		return "string"
	case ir.TypeAddress:
		return "address"
	default:
		return "uint256"
	}
}

package codegen

import (
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/bytecode"
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

func init() {
	Register(&nativeTarget{})
}

// nativeTarget lowers the module to QVM bytecode. Unlike the text
// targets it consumes the flat block graph directly; the assembler does
// its own jump backpatching.
type nativeTarget struct{}

func (t *nativeTarget) Name() string { return "qvm" }

func (t *nativeTarget) Generate(m *ir.Module) (Output, error) {
	mod, err := bytecode.Assemble(m)
	if err != nil {
		return Output{}, err
	}
	return Output{Bytes: mod.Serialize(), Binary: true, Ext: ".qbc"}, nil
}

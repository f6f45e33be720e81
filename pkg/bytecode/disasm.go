package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the whole module:
// constant pool, string table, function table, and the instruction stream
// with resolved operands.
func (m *Module) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("; QVM Bytecode v%d.%d.%d\n", m.Version[0], m.Version[1], m.Version[2]))

	if len(m.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range m.Constants {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, c.Dec()))
		}
	}

	if len(m.Strings) > 0 {
		sb.WriteString("; Strings:\n")
		for i, s := range m.Strings {
			display := s
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %q\n", i, display))
		}
	}

	sb.WriteString("; Functions:\n")
	for i, fn := range m.Functions {
		sb.WriteString(fmt.Sprintf(";   [%3d] %s offset=%04X params=%d locals=%d\n",
			i, m.FunctionName(uint32(i)), fn.Offset, fn.NumParams, fn.NumLocals))
	}

	sb.WriteString("; Code:\n")
	offset := 0
	for offset < len(m.Code) {
		line, instrLen := m.disassembleInstruction(offset)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		if instrLen == 0 {
			break
		}
		offset += instrLen
	}

	return sb.String()
}

// disassembleInstruction renders a single instruction at the given offset.
// Returns the formatted string and the instruction length (0 when the
// stream is malformed at this offset).
func (m *Module) disassembleInstruction(offset int) (string, int) {
	op := Opcode(m.Code[offset])
	if !op.IsValid() {
		return op.String(), 1
	}
	info := GetOpcodeInfo(op)

	operands := make([]uint32, 0, info.NumOperands)
	pos := offset + 1
	for i := 0; i < info.NumOperands; i++ {
		if pos+4 > len(m.Code) {
			return fmt.Sprintf("%-14s <truncated>", info.Name), 0
		}
		operands = append(operands, binary.LittleEndian.Uint32(m.Code[pos:]))
		pos += 4
	}

	switch op {
	case OpConst:
		val := "?"
		if int(operands[0]) < len(m.Constants) {
			val = m.Constants[operands[0]].Dec()
		}
		return fmt.Sprintf("%-14s %d (%s)", info.Name, operands[0], val), op.InstructionLen()
	case OpCall:
		return fmt.Sprintf("%-14s %d (%s) argc=%d", info.Name, operands[0], m.FunctionName(operands[0]), operands[1]), op.InstructionLen()
	default:
		parts := make([]string, len(operands))
		for i, o := range operands {
			parts[i] = fmt.Sprintf("%d", o)
		}
		if len(parts) == 0 {
			return info.Name, op.InstructionLen()
		}
		return fmt.Sprintf("%-14s %s", info.Name, strings.Join(parts, " ")), op.InstructionLen()
	}
}

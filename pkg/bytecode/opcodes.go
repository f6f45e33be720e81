package bytecode

import "fmt"

// Opcode represents a QVM bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
// Every operand is a 4-byte little-endian unsigned value; wide literals are
// loaded through the constant pool, never inlined.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop Opcode = 0x00 // No operation
	OpPop Opcode = 0x01 // Pop top of stack

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConst Opcode = 0x10 // Push wide constant from pool: OpConst <index:u32>

	// ========================================================================
	// Local variables (0x20-0x2F)
	// ========================================================================

	OpLoadLocal  Opcode = 0x20 // Push local variable: OpLoadLocal <slot:u32>
	OpStoreLocal Opcode = 0x21 // Pop and store to local: OpStoreLocal <slot:u32>

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// ========================================================================

	OpAdd Opcode = 0x50 // Pop two, push sum (wrapping)
	OpSub Opcode = 0x51 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x52 // Pop two, push product (wrapping)
	OpDiv Opcode = 0x53 // Pop two, push quotient; division by zero is an error
	OpMod Opcode = 0x54 // Pop two, push remainder; division by zero is an error

	OpCheckedAdd Opcode = 0x58 // Like OpAdd but fails on overflow
	OpCheckedSub Opcode = 0x59 // Like OpSub but fails on underflow
	OpCheckedMul Opcode = 0x5A // Like OpMul but fails on overflow

	// ========================================================================
	// Comparison (0x60-0x6F)
	// ========================================================================

	OpEq Opcode = 0x60 // Pop two, push 1 if equal, 0 otherwise
	OpLt Opcode = 0x61 // Pop two, push 1 if a < b

	// ========================================================================
	// Persistent storage (0x70-0x7F)
	// ========================================================================

	OpSLoad  Opcode = 0x70 // Push storage value: OpSLoad <slot:u32>
	OpSStore Opcode = 0x71 // Pop and write to storage: OpSStore <slot:u32>

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump        Opcode = 0x80 // Unconditional jump: OpJump <offset:u32>
	OpJumpIfFalse Opcode = 0x81 // Pop condition, jump if zero: OpJumpIfFalse <offset:u32>

	// ========================================================================
	// Calls (0x90-0x9F)
	// ========================================================================

	OpCall Opcode = 0x90 // Call function: OpCall <func:u32> <argc:u32>

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn     Opcode = 0xF0 // Pop return value and return it to the caller
	OpReturnVoid Opcode = 0xF1 // Return with no value
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name        string // Human-readable name
	StackPop    int    // How many values popped from stack (-1 = variable)
	StackPush   int    // How many values pushed to stack
	NumOperands int    // Number of u32 operands following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop: {"NOP", 0, 0, 0},
	OpPop: {"POP", 1, 0, 0},

	OpConst: {"CONST", 0, 1, 1},

	OpLoadLocal:  {"LOAD_LOCAL", 0, 1, 1},
	OpStoreLocal: {"STORE_LOCAL", 1, 0, 1},

	OpAdd: {"ADD", 2, 1, 0},
	OpSub: {"SUB", 2, 1, 0},
	OpMul: {"MUL", 2, 1, 0},
	OpDiv: {"DIV", 2, 1, 0},
	OpMod: {"MOD", 2, 1, 0},

	OpCheckedAdd: {"CHECKED_ADD", 2, 1, 0},
	OpCheckedSub: {"CHECKED_SUB", 2, 1, 0},
	OpCheckedMul: {"CHECKED_MUL", 2, 1, 0},

	OpEq: {"EQ", 2, 1, 0},
	OpLt: {"LT", 2, 1, 0},

	OpSLoad:  {"SLOAD", 0, 1, 1},
	OpSStore: {"SSTORE", 1, 0, 1},

	OpJump:        {"JUMP", 0, 0, 1},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, 0, 1},

	OpCall: {"CALL", -1, 1, 2},

	OpReturn:     {"RETURN", 1, 0, 0},
	OpReturnVoid: {"RETURN_VOID", 0, 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// IsValid reports whether op is a defined opcode.
func (op Opcode) IsValid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// NumOperands returns the number of u32 operands for this opcode.
func (op Opcode) NumOperands() int {
	return GetOpcodeInfo(op).NumOperands
}

// InstructionLen returns the total byte length of an instruction
// (1 opcode byte + 4 bytes per operand).
func (op Opcode) InstructionLen() int {
	return 1 + 4*op.NumOperands()
}

// IsReturn returns true if this opcode terminates the current frame.
func (op Opcode) IsReturn() bool {
	return op == OpReturn || op == OpReturnVoid
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

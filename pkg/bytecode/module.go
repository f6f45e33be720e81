package bytecode

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Magic bytes for QVM bytecode files: "QVMB" (Quorlin VM Bytecode)
var Magic = []byte{'Q', 'V', 'M', 'B'}

// Format version. Increment when making incompatible changes.
const (
	VersionMajor byte = 0
	VersionMinor byte = 1
	VersionPatch byte = 0
)

// WideSize is the byte width of a wide constant: 256-bit little-endian.
const WideSize = 32

// FuncInfo is one function table entry.
type FuncInfo struct {
	NameID    uint32 // Index into the string table
	Offset    uint32 // Byte offset of the first instruction in Code
	NumParams uint32
	NumLocals uint32 // Local slots in addition to parameters
}

// Module is an in-memory QVM bytecode module: deduplicated constant pool
// and string table, function table, and one raw instruction stream shared
// by every function.
type Module struct {
	Version   [3]byte
	Constants []*uint256.Int
	Strings   []string
	Functions []FuncInfo
	Code      []byte

	// Dedup indexes, built during the forward pass. Nil after loading;
	// rebuilt lazily on the first Add.
	constIndex  map[[WideSize]byte]uint32
	stringIndex map[string]uint32
}

// NewModule creates an empty module with the current format version.
func NewModule() *Module {
	return &Module{
		Version:     [3]byte{VersionMajor, VersionMinor, VersionPatch},
		Code:        make([]byte, 0, 256),
		constIndex:  make(map[[WideSize]byte]uint32),
		stringIndex: make(map[string]uint32),
	}
}

// AddConstant adds a wide constant to the pool and returns its index.
// If the constant already exists, returns the existing index.
func (m *Module) AddConstant(v *uint256.Int) uint32 {
	if m.constIndex == nil {
		m.constIndex = make(map[[WideSize]byte]uint32, len(m.Constants))
		for i, c := range m.Constants {
			m.constIndex[c.Bytes32()] = uint32(i)
		}
	}
	key := v.Bytes32()
	if idx, ok := m.constIndex[key]; ok {
		return idx
	}
	idx := uint32(len(m.Constants))
	m.Constants = append(m.Constants, new(uint256.Int).Set(v))
	m.constIndex[key] = idx
	return idx
}

// AddString adds a string to the table and returns its index.
// If the string already exists, returns the existing index.
func (m *Module) AddString(s string) uint32 {
	if m.stringIndex == nil {
		m.stringIndex = make(map[string]uint32, len(m.Strings))
		for i, existing := range m.Strings {
			m.stringIndex[existing] = uint32(i)
		}
	}
	if idx, ok := m.stringIndex[s]; ok {
		return idx
	}
	idx := uint32(len(m.Strings))
	m.Strings = append(m.Strings, s)
	m.stringIndex[s] = idx
	return idx
}

// FunctionByName returns the index of the function whose name matches, or
// false if no function table entry carries that name.
func (m *Module) FunctionByName(name string) (uint32, bool) {
	for i, fn := range m.Functions {
		if int(fn.NameID) < len(m.Strings) && m.Strings[fn.NameID] == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// FunctionName returns the name recorded for a function table index.
func (m *Module) FunctionName(idx uint32) string {
	if int(idx) >= len(m.Functions) {
		return ""
	}
	nameID := m.Functions[idx].NameID
	if int(nameID) >= len(m.Strings) {
		return ""
	}
	return m.Strings[nameID]
}

// Emit appends a single opcode byte to the instruction stream and returns
// its offset.
func (m *Module) Emit(op Opcode) int {
	offset := len(m.Code)
	m.Code = append(m.Code, byte(op))
	return offset
}

// EmitU32 appends an opcode followed by u32 little-endian operands and
// returns the instruction's offset.
func (m *Module) EmitU32(op Opcode, operands ...uint32) int {
	offset := len(m.Code)
	m.Code = append(m.Code, byte(op))
	for _, operand := range operands {
		m.Code = binary.LittleEndian.AppendUint32(m.Code, operand)
	}
	return offset
}

// CurrentOffset returns the offset the next emitted instruction will have.
func (m *Module) CurrentOffset() int {
	return len(m.Code)
}

// PatchU32 overwrites the u32 at the given byte offset. Used by the
// assembler's second pass to resolve jump targets.
func (m *Module) PatchU32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(m.Code[offset:offset+4], v)
}

// Serialize encodes the module to its binary file format.
// Layout (all integers little-endian):
//
//	[magic:4] [version:3] [reserved:1]
//	[constant_count:u32] [32-byte wide constants...]
//	[string_count:u32] ([len:u32] [utf8 bytes])...
//	[function_count:u32] ([name_id:u32] [offset:u32] [num_params:u32] [num_locals:u32])...
//	[instruction bytes...]
func (m *Module) Serialize() []byte {
	size := 8 + 4 + len(m.Constants)*WideSize + 4 + 4 + len(m.Functions)*16 + len(m.Code)
	for _, s := range m.Strings {
		size += 4 + len(s)
	}
	buf := make([]byte, 0, size)

	buf = append(buf, Magic...)
	buf = append(buf, m.Version[0], m.Version[1], m.Version[2], 0)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Constants)))
	for _, c := range m.Constants {
		buf = append(buf, wideLE(c)...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Strings)))
	for _, s := range m.Strings {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(m.Functions)))
	for _, fn := range m.Functions {
		buf = binary.LittleEndian.AppendUint32(buf, fn.NameID)
		buf = binary.LittleEndian.AppendUint32(buf, fn.Offset)
		buf = binary.LittleEndian.AppendUint32(buf, fn.NumParams)
		buf = binary.LittleEndian.AppendUint32(buf, fn.NumLocals)
	}

	buf = append(buf, m.Code...)
	return buf
}

// wideLE encodes a 256-bit value as 32 little-endian bytes.
func wideLE(v *uint256.Int) []byte {
	be := v.Bytes32()
	le := make([]byte, WideSize)
	for i := 0; i < WideSize; i++ {
		le[i] = be[WideSize-1-i]
	}
	return le
}

// wideFromLE decodes 32 little-endian bytes into a 256-bit value.
func wideFromLE(le []byte) *uint256.Int {
	var be [WideSize]byte
	for i := 0; i < WideSize; i++ {
		be[i] = le[WideSize-1-i]
	}
	return new(uint256.Int).SetBytes(be[:])
}

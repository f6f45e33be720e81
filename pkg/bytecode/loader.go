package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrBadMagic indicates the buffer does not start with the QVMB tag.
var ErrBadMagic = errors.New("bytecode: invalid magic")

// ErrTruncated indicates a size field claimed more bytes than remain.
var ErrTruncated = errors.New("bytecode: truncated module")

// Load parses and validates a serialized module. Every sectional read is
// bounds-checked against the remaining buffer; a section that claims more
// bytes than exist fails with ErrTruncated naming the section.
func Load(data []byte) (*Module, error) {
	r := &reader{data: data}

	magic, err := r.bytes(4, "magic")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, Magic) {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrBadMagic, Magic, magic)
	}

	header, err := r.bytes(4, "version")
	if err != nil {
		return nil, err
	}

	m := &Module{Version: [3]byte{header[0], header[1], header[2]}}

	constCount, err := r.u32("constant count")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < constCount; i++ {
		raw, err := r.bytes(WideSize, fmt.Sprintf("constant %d", i))
		if err != nil {
			return nil, err
		}
		m.Constants = append(m.Constants, wideFromLE(raw))
	}

	stringCount, err := r.u32("string count")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < stringCount; i++ {
		strLen, err := r.u32(fmt.Sprintf("string %d length", i))
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(int(strLen), fmt.Sprintf("string %d", i))
		if err != nil {
			return nil, err
		}
		m.Strings = append(m.Strings, string(raw))
	}

	funcCount, err := r.u32("function count")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < funcCount; i++ {
		raw, err := r.bytes(16, fmt.Sprintf("function %d", i))
		if err != nil {
			return nil, err
		}
		fn := FuncInfo{
			NameID:    binary.LittleEndian.Uint32(raw[0:4]),
			Offset:    binary.LittleEndian.Uint32(raw[4:8]),
			NumParams: binary.LittleEndian.Uint32(raw[8:12]),
			NumLocals: binary.LittleEndian.Uint32(raw[12:16]),
		}
		if int(fn.NameID) >= len(m.Strings) {
			return nil, fmt.Errorf("bytecode: function %d name id %d out of range (%d strings)", i, fn.NameID, len(m.Strings))
		}
		m.Functions = append(m.Functions, fn)
	}

	// Everything left is the instruction stream.
	m.Code = make([]byte, len(r.data)-r.pos)
	copy(m.Code, r.data[r.pos:])

	for i, fn := range m.Functions {
		if int(fn.Offset) > len(m.Code) {
			return nil, fmt.Errorf("bytecode: function %d offset %d beyond code size %d", i, fn.Offset, len(m.Code))
		}
	}

	return m, nil
}

// reader is a cursor over the input buffer with bounds-checked reads.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) bytes(n int, section string) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: reading %s: need %d bytes at offset %d, have %d",
			ErrTruncated, section, n, r.pos, len(r.data)-r.pos)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) u32(section string) (uint32, error) {
	raw, err := r.bytes(4, section)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

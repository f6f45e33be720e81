package bytecode

import (
	"errors"
	"fmt"
)

// Every VM error is terminal for the current call: it propagates up as a
// failure result and discards any buffered storage writes made during the
// call. Nothing is retried and there is no partial success.

// ErrStackUnderflow indicates a pop from an empty operand stack.
var ErrStackUnderflow = errors.New("vm: stack underflow")

// ErrDivisionByZero indicates OpDiv or OpMod with a zero divisor.
var ErrDivisionByZero = errors.New("vm: division by zero")

// ErrCodeOutOfBounds indicates an instruction read past the end of the
// code section.
var ErrCodeOutOfBounds = errors.New("vm: instruction read out of bounds")

// OverflowError reports which checked operation left the representable
// range.
type OverflowError struct {
	Op Opcode // OpCheckedAdd, OpCheckedSub, or OpCheckedMul
}

func (e *OverflowError) Error() string {
	switch e.Op {
	case OpCheckedSub:
		return "vm: checked subtraction underflow"
	case OpCheckedMul:
		return "vm: checked multiplication overflow"
	default:
		return "vm: checked addition overflow"
	}
}

// LocalIndexError reports a local slot access outside the current frame.
type LocalIndexError struct {
	Slot  uint32
	Count int
}

func (e *LocalIndexError) Error() string {
	return fmt.Sprintf("vm: invalid local index %d (frame has %d slots)", e.Slot, e.Count)
}

// ConstantIndexError reports an OpConst operand outside the constant pool.
type ConstantIndexError struct {
	Index uint32
	Count int
}

func (e *ConstantIndexError) Error() string {
	return fmt.Sprintf("vm: invalid constant index %d (pool has %d entries)", e.Index, e.Count)
}

// UnknownOpcodeError reports an undefined opcode byte and where it was
// fetched.
type UnknownOpcodeError struct {
	Op     byte
	Offset int
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("vm: unknown opcode 0x%02X at offset %d", e.Op, e.Offset)
}

// UnknownFunctionError reports a call to a name or index absent from the
// function table.
type UnknownFunctionError struct {
	Name  string
	Index uint32
}

func (e *UnknownFunctionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("vm: unknown function %q", e.Name)
	}
	return fmt.Sprintf("vm: unknown function index %d", e.Index)
}

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Function string
	Want     uint32
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("vm: function %s takes %d arguments, got %d", e.Function, e.Want, e.Got)
}

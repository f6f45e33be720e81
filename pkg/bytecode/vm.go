package bytecode

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/tliron/commonlog"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/storage"
)

var vmLog = commonlog.GetLogger("qvm")

// VM executes a loaded module: a fetch-decode-execute loop over an operand
// stack of 256-bit unsigned integers, per-frame local slots, and a
// persistent slot store. Execution is single-threaded; one call runs to
// completion before another can start.
type VM struct {
	mod   *Module
	store storage.Store

	stack  []*uint256.Int
	frames []*frame
	ip     int

	// Trace logs every dispatched instruction at debug level.
	Trace bool
}

// frame is one active function invocation. Locals hold parameters first,
// then the function's declared local slots.
type frame struct {
	fnIndex uint32
	retIP   int
	locals  []*uint256.Int
}

// NewVM creates a VM for the given module and persistent store.
func NewVM(mod *Module, store storage.Store) *VM {
	return &VM{
		mod:    mod,
		store:  store,
		stack:  make([]*uint256.Int, 0, 64),
		frames: make([]*frame, 0, 16),
	}
}

// Call executes the named function with the given arguments and returns
// its result (nil for a void return).
//
// The whole call runs against a write overlay: persistent-store mutations
// are buffered and committed only on normal return. Any error discards the
// buffered writes, so an aborted call leaves the store exactly as it was.
func (vm *VM) Call(name string, args []*uint256.Int) (*uint256.Int, error) {
	idx, ok := vm.mod.FunctionByName(name)
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}

	overlay := storage.NewOverlay(vm.store)
	base := vm.store
	vm.store = overlay
	defer func() { vm.store = base }()

	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]

	if err := vm.pushFrame(idx, args, -1); err != nil {
		return nil, err
	}

	result, err := vm.run()
	if err != nil {
		overlay.Discard()
		return nil, err
	}
	if err := overlay.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// pushFrame allocates a frame for the function at idx, copies args into the
// leading local slots, and jumps to the function's recorded offset.
func (vm *VM) pushFrame(idx uint32, args []*uint256.Int, retIP int) error {
	if int(idx) >= len(vm.mod.Functions) {
		return &UnknownFunctionError{Index: idx}
	}
	fn := vm.mod.Functions[idx]
	if len(args) != int(fn.NumParams) {
		return &ArityError{Function: vm.mod.FunctionName(idx), Want: fn.NumParams, Got: len(args)}
	}

	locals := make([]*uint256.Int, fn.NumParams+fn.NumLocals)
	for i := range locals {
		locals[i] = uint256.NewInt(0)
	}
	for i, a := range args {
		locals[i] = new(uint256.Int).Set(a)
	}

	vm.frames = append(vm.frames, &frame{fnIndex: idx, retIP: retIP, locals: locals})
	vm.ip = int(fn.Offset)
	return nil
}

// run is the dispatch loop. It returns when the outermost frame executes a
// return opcode.
func (vm *VM) run() (*uint256.Int, error) {
	code := vm.mod.Code

	for {
		if vm.ip < 0 || vm.ip >= len(code) {
			return nil, ErrCodeOutOfBounds
		}

		opOffset := vm.ip
		op := Opcode(code[vm.ip])
		vm.ip++

		if vm.Trace {
			vmLog.Debugf("[%04x] %-14s sp=%d fp=%d", opOffset, op.String(), len(vm.stack), len(vm.frames))
		}

		switch op {
		case OpNop:
			// Do nothing

		case OpPop:
			if _, err := vm.pop(); err != nil {
				return nil, err
			}

		case OpConst:
			idx, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			if int(idx) >= len(vm.mod.Constants) {
				return nil, &ConstantIndexError{Index: idx, Count: len(vm.mod.Constants)}
			}
			vm.push(vm.mod.Constants[idx])

		case OpLoadLocal:
			slot, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			locals := vm.topFrame().locals
			if int(slot) >= len(locals) {
				return nil, &LocalIndexError{Slot: slot, Count: len(locals)}
			}
			vm.push(locals[slot])

		case OpStoreLocal:
			slot, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			locals := vm.topFrame().locals
			if int(slot) >= len(locals) {
				return nil, &LocalIndexError{Slot: slot, Count: len(locals)}
			}
			locals[slot] = v

		case OpAdd:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			vm.push(new(uint256.Int).Add(a, b))

		case OpSub:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			vm.push(new(uint256.Int).Sub(a, b))

		case OpMul:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			vm.push(new(uint256.Int).Mul(a, b))

		case OpDiv:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			if b.IsZero() {
				return nil, ErrDivisionByZero
			}
			vm.push(new(uint256.Int).Div(a, b))

		case OpMod:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			if b.IsZero() {
				return nil, ErrDivisionByZero
			}
			vm.push(new(uint256.Int).Mod(a, b))

		case OpCheckedAdd:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			sum, overflow := new(uint256.Int).AddOverflow(a, b)
			if overflow {
				return nil, &OverflowError{Op: op}
			}
			vm.push(sum)

		case OpCheckedSub:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			diff, underflow := new(uint256.Int).SubOverflow(a, b)
			if underflow {
				return nil, &OverflowError{Op: op}
			}
			vm.push(diff)

		case OpCheckedMul:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			prod, overflow := new(uint256.Int).MulOverflow(a, b)
			if overflow {
				return nil, &OverflowError{Op: op}
			}
			vm.push(prod)

		case OpEq:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			vm.pushBool(a.Eq(b))

		case OpLt:
			a, b, err := vm.pop2()
			if err != nil {
				return nil, err
			}
			vm.pushBool(a.Lt(b))

		case OpSLoad:
			slot, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			v, err := vm.store.Get(slot)
			if err != nil {
				return nil, err
			}
			vm.push(v)

		case OpSStore:
			slot, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.store.Set(slot, v); err != nil {
				return nil, err
			}

		case OpJump:
			target, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			vm.ip = int(target)

		case OpJumpIfFalse:
			target, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			cond, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if cond.IsZero() {
				vm.ip = int(target)
			}

		case OpCall:
			fnIdx, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			argc, err := vm.operand(code)
			if err != nil {
				return nil, err
			}
			args := make([]*uint256.Int, argc)
			for i := int(argc) - 1; i >= 0; i-- {
				a, err := vm.pop()
				if err != nil {
					return nil, err
				}
				args[i] = a
			}
			if err := vm.pushFrame(fnIdx, args, vm.ip); err != nil {
				return nil, err
			}

		case OpReturn:
			result, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if done := vm.popFrame(); done {
				return result, nil
			}
			vm.push(result)

		case OpReturnVoid:
			if done := vm.popFrame(); done {
				return nil, nil
			}

		default:
			return nil, &UnknownOpcodeError{Op: byte(op), Offset: opOffset}
		}
	}
}

// popFrame destroys the current frame. Returns true when it was the
// outermost frame and execution should halt.
func (vm *VM) popFrame() bool {
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return true
	}
	vm.ip = f.retIP
	return false
}

func (vm *VM) topFrame() *frame {
	return vm.frames[len(vm.frames)-1]
}

// operand reads the next 4-byte little-endian operand.
func (vm *VM) operand(code []byte) (uint32, error) {
	if vm.ip+4 > len(code) {
		return 0, ErrCodeOutOfBounds
	}
	v := binary.LittleEndian.Uint32(code[vm.ip:])
	vm.ip += 4
	return v, nil
}

func (vm *VM) push(v *uint256.Int) {
	vm.stack = append(vm.stack, new(uint256.Int).Set(v))
}

func (vm *VM) pushBool(b bool) {
	if b {
		vm.stack = append(vm.stack, uint256.NewInt(1))
	} else {
		vm.stack = append(vm.stack, uint256.NewInt(0))
	}
}

func (vm *VM) pop() (*uint256.Int, error) {
	if len(vm.stack) == 0 {
		return nil, ErrStackUnderflow
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

// pop2 pops b then a, returning them in push order (a, b).
func (vm *VM) pop2() (*uint256.Int, *uint256.Int, error) {
	b, err := vm.pop()
	if err != nil {
		return nil, nil, err
	}
	a, err := vm.pop()
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

package bytecode

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/storage"
)

const maxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

// exprModule is a single function "f" computing one binary operation over
// two constants and returning the result.
func exprModule(kind ir.InstrKind, checked bool, a, b string) *ir.Module {
	uintType := ir.TypeUint
	ret := ir.Reg(0)
	return &ir.Module{
		Name: "expr",
		Contracts: []*ir.Contract{{
			Name: "Expr",
			Functions: []*ir.Function{{
				Name:         "f",
				Result:       &uintType,
				NextRegister: 1,
				Blocks: []*ir.Block{{
					Label: ir.EntryLabel,
					Instrs: []ir.Instr{
						{Kind: kind, Dst: 0, A: ir.Const(a), B: ir.Const(b), Checked: checked},
					},
					Term: &ir.Terminator{Kind: ir.TermReturn, Value: &ret},
				}},
			}},
		}},
	}
}

func mustAssemble(t *testing.T, m *ir.Module) *Module {
	t.Helper()
	mod, err := Assemble(m)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return mod
}

func callExpr(t *testing.T, kind ir.InstrKind, checked bool, a, b string) (*uint256.Int, error) {
	t.Helper()
	vm := NewVM(mustAssemble(t, exprModule(kind, checked, a, b)), storage.NewMemStore())
	return vm.Call("f", nil)
}

func TestVMArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		kind    ir.InstrKind
		checked bool
		a, b    string
		want    uint64
	}{
		{"add", ir.InstrAdd, false, "2", "3", 5},
		{"sub", ir.InstrSub, false, "7", "2", 5},
		{"mul", ir.InstrMul, false, "4", "5", 20},
		{"div", ir.InstrDiv, false, "20", "5", 4},
		{"div truncates", ir.InstrDiv, false, "7", "2", 3},
		{"checked add in range", ir.InstrAdd, true, "100", "200", 300},
		{"checked sub in range", ir.InstrSub, true, "200", "100", 100},
		{"checked mul in range", ir.InstrMul, true, "12", "12", 144},
		{"eq true", ir.InstrEq, false, "9", "9", 1},
		{"eq false", ir.InstrEq, false, "9", "8", 0},
		{"lt true", ir.InstrLt, false, "3", "4", 1},
		{"lt false", ir.InstrLt, false, "4", "3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callExpr(t, tt.kind, tt.checked, tt.a, tt.b)
			if err != nil {
				t.Fatalf("Call failed: %v", err)
			}
			if got.Uint64() != tt.want {
				t.Errorf("f() = %s, want %d", got.Dec(), tt.want)
			}
		})
	}
}

func TestVMCheckedOverflow(t *testing.T) {
	tests := []struct {
		name string
		kind ir.InstrKind
		a, b string
		op   Opcode
	}{
		{"add overflow", ir.InstrAdd, maxUint256, "1", OpCheckedAdd},
		{"sub underflow", ir.InstrSub, "1", "2", OpCheckedSub},
		{"mul overflow", ir.InstrMul, maxUint256, "2", OpCheckedMul},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callExpr(t, tt.kind, true, tt.a, tt.b)
			var overflow *OverflowError
			if !errors.As(err, &overflow) {
				t.Fatalf("Call = %v, want OverflowError", err)
			}
			if overflow.Op != tt.op {
				t.Errorf("failed op = %s, want %s", overflow.Op, tt.op)
			}
		})
	}
}

func TestVMUncheckedWraps(t *testing.T) {
	got, err := callExpr(t, ir.InstrAdd, false, maxUint256, "1")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("wrapping add = %s, want 0", got.Dec())
	}
}

func TestVMDivisionByZero(t *testing.T) {
	_, err := callExpr(t, ir.InstrDiv, false, "1", "0")
	if !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Call = %v, want ErrDivisionByZero", err)
	}
}

func TestVMIncrementAndGet(t *testing.T) {
	mod := mustAssemble(t, counterModule())
	vm := NewVM(mod, storage.NewMemStore())

	if _, err := vm.Call("increment", []*uint256.Int{uint256.NewInt(5)}); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	got, err := vm.Call("get", nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Uint64() != 5 {
		t.Errorf("count = %s, want 5", got.Dec())
	}

	if _, err := vm.Call("increment", []*uint256.Int{uint256.NewInt(3)}); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	got, err = vm.Call("get", nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Uint64() != 8 {
		t.Errorf("count = %s, want 8", got.Dec())
	}
}

func TestVMAbortDiscardsStorageWrites(t *testing.T) {
	// boom writes storage and then overflows. The write must not survive.
	uintType := ir.TypeUint
	m := &ir.Module{
		Name: "abort",
		Contracts: []*ir.Contract{{
			Name:   "Abort",
			Fields: []*ir.Field{{Name: "value", Type: ir.TypeUint}},
			Functions: []*ir.Function{{
				Name:         "boom",
				Result:       &uintType,
				NextRegister: 1,
				Blocks: []*ir.Block{{
					Label: ir.EntryLabel,
					Instrs: []ir.Instr{
						{Kind: ir.InstrSStore, Slot: 0, A: ir.Const("1")},
						{Kind: ir.InstrAdd, Dst: 0, A: ir.Const(maxUint256), B: ir.Const("1"), Checked: true},
					},
					Term: &ir.Terminator{Kind: ir.TermReturn, Value: func() *ir.Value { v := ir.Reg(0); return &v }()},
				}},
			}},
		}},
	}

	store := storage.NewMemStore()
	store.Set(0, uint256.NewInt(42))

	vm := NewVM(mustAssemble(t, m), store)
	if _, err := vm.Call("boom", nil); err == nil {
		t.Fatal("boom succeeded, want overflow error")
	}

	v, _ := store.Get(0)
	if v.Uint64() != 42 {
		t.Errorf("slot 0 = %s after aborted call, want untouched 42", v.Dec())
	}
}

func TestVMLoopSum(t *testing.T) {
	mod := mustAssemble(t, sumModule())
	vm := NewVM(mod, storage.NewMemStore())

	tests := []struct {
		n, want uint64
	}{
		{0, 0},
		{1, 0},
		{5, 10},
		{10, 45},
	}
	for _, tt := range tests {
		got, err := vm.Call("sum_to", []*uint256.Int{uint256.NewInt(tt.n)})
		if err != nil {
			t.Fatalf("sum_to(%d) failed: %v", tt.n, err)
		}
		if got.Uint64() != tt.want {
			t.Errorf("sum_to(%d) = %s, want %d", tt.n, got.Dec(), tt.want)
		}
	}
}

func TestVMNestedCalls(t *testing.T) {
	mod := mustAssemble(t, callModule())
	vm := NewVM(mod, storage.NewMemStore())

	got, err := vm.Call("quad", []*uint256.Int{uint256.NewInt(3)})
	if err != nil {
		t.Fatalf("quad failed: %v", err)
	}
	if got.Uint64() != 12 {
		t.Errorf("quad(3) = %s, want 12", got.Dec())
	}
}

func TestVMUnknownFunction(t *testing.T) {
	vm := NewVM(mustAssemble(t, counterModule()), storage.NewMemStore())

	_, err := vm.Call("missing", nil)
	var unknown *UnknownFunctionError
	if !errors.As(err, &unknown) {
		t.Fatalf("Call = %v, want UnknownFunctionError", err)
	}
	if unknown.Name != "missing" {
		t.Errorf("unknown function name = %q, want missing", unknown.Name)
	}
}

func TestVMArityMismatch(t *testing.T) {
	vm := NewVM(mustAssemble(t, counterModule()), storage.NewMemStore())

	_, err := vm.Call("increment", nil)
	var arity *ArityError
	if !errors.As(err, &arity) {
		t.Fatalf("Call = %v, want ArityError", err)
	}
	if arity.Want != 1 || arity.Got != 0 {
		t.Errorf("arity = want %d got %d, expected want 1 got 0", arity.Want, arity.Got)
	}
}

func TestVMUnknownOpcode(t *testing.T) {
	m := NewModule()
	nameID := m.AddString("f")
	m.Code = append(m.Code, 0xEE)
	m.Functions = append(m.Functions, FuncInfo{NameID: nameID})

	vm := NewVM(m, storage.NewMemStore())
	_, err := vm.Call("f", nil)
	var unknown *UnknownOpcodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Call = %v, want UnknownOpcodeError", err)
	}
	if unknown.Op != 0xEE {
		t.Errorf("opcode = 0x%02x, want 0xEE", unknown.Op)
	}
}

func TestVMConstantIndexOutOfRange(t *testing.T) {
	// An OpConst operand pointing past the end of the constant pool.
	m := NewModule()
	nameID := m.AddString("f")
	m.EmitU32(OpConst, 7)
	m.Emit(OpReturnVoid)
	m.Functions = append(m.Functions, FuncInfo{NameID: nameID})

	vm := NewVM(m, storage.NewMemStore())
	_, err := vm.Call("f", nil)
	var constErr *ConstantIndexError
	if !errors.As(err, &constErr) {
		t.Fatalf("Call = %v, want ConstantIndexError", err)
	}
	if constErr.Index != 7 || constErr.Count != 0 {
		t.Errorf("error = %+v, want index 7 against an empty pool", constErr)
	}
}

func TestVMCodeOutOfBounds(t *testing.T) {
	// A function whose code runs off the end of the stream.
	m := NewModule()
	nameID := m.AddString("f")
	m.Emit(OpNop)
	m.Functions = append(m.Functions, FuncInfo{NameID: nameID})

	vm := NewVM(m, storage.NewMemStore())
	if _, err := vm.Call("f", nil); !errors.Is(err, ErrCodeOutOfBounds) {
		t.Errorf("Call = %v, want ErrCodeOutOfBounds", err)
	}
}

func TestVMStackUnderflow(t *testing.T) {
	m := NewModule()
	nameID := m.AddString("f")
	m.Emit(OpPop)
	m.Emit(OpReturnVoid)
	m.Functions = append(m.Functions, FuncInfo{NameID: nameID})

	vm := NewVM(m, storage.NewMemStore())
	if _, err := vm.Call("f", nil); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Call = %v, want ErrStackUnderflow", err)
	}
}

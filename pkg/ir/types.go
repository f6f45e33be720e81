// Package ir defines the typed intermediate representation consumed by every
// Quorlin backend. The frontend validates and lowers source into this form;
// the backends treat it as read-only input.
package ir

import "fmt"

// Type classifies a declared field, parameter, or return value.
type Type uint8

const (
	TypeUint Type = iota
	TypeBool
	TypeString
	TypeAddress
)

// String returns a human-readable name for a Type.
func (t Type) String() string {
	switch t {
	case TypeUint:
		return "uint"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeAddress:
		return "address"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Module is the unit of compilation: an ordered sequence of contracts.
type Module struct {
	Name      string      `cbor:"name"`
	Contracts []*Contract `cbor:"contracts"`
}

// Contract owns declared fields, events, and functions. Layout is the
// finalized field→slot map; it is computed once by ResolveLayout and then
// only ever read.
type Contract struct {
	Name      string            `cbor:"name"`
	Fields    []*Field          `cbor:"fields"`
	Events    []*Event          `cbor:"events,omitempty"`
	Functions []*Function       `cbor:"functions"`
	Layout    map[string]uint32 `cbor:"layout,omitempty"`
}

// Field is one persistent storage declaration. Init, when present, is the
// initializer evaluated by constructor code; backends that need a value for
// an uninitialized field synthesize the type's default.
type Field struct {
	Name string `cbor:"name"`
	Type Type   `cbor:"type"`
	Init *Value `cbor:"init,omitempty"`
}

// Event declares an emittable event and its parameters.
type Event struct {
	Name   string  `cbor:"name"`
	Params []Param `cbor:"params,omitempty"`
}

// Param is a named, typed function or event parameter.
type Param struct {
	Name string `cbor:"name"`
	Type Type   `cbor:"type"`
}

// EntryLabel is the required label of every function's entry block.
const EntryLabel = "entry"

// Function owns an entry block plus zero or more labeled blocks in
// declaration order. NextRegister is the exclusive upper bound on register
// numbers used anywhere in the body.
type Function struct {
	Name         string   `cbor:"name"`
	Params       []Param  `cbor:"params,omitempty"`
	Result       *Type    `cbor:"result,omitempty"`
	NextRegister uint32   `cbor:"next_register"`
	Blocks       []*Block `cbor:"blocks"`
}

// Entry returns the function's entry block, or nil if the frontend failed
// to provide one.
func (f *Function) Entry() *Block {
	for _, b := range f.Blocks {
		if b.Label == EntryLabel {
			return b
		}
	}
	return nil
}

// Block returns the block with the given label, or nil.
func (f *Function) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Block is a straight-line instruction sequence ending in exactly one
// terminator.
type Block struct {
	Label  string       `cbor:"label"`
	Instrs []Instr      `cbor:"instrs,omitempty"`
	Term   *Terminator  `cbor:"term"`
}

// InstrKind discriminates the Instr variants.
type InstrKind uint8

const (
	InstrAssign InstrKind = iota // Dst = A
	InstrAdd                     // Dst = A + B (Checked selects overflow-safe semantics)
	InstrSub                     // Dst = A - B
	InstrMul                     // Dst = A * B
	InstrDiv                     // Dst = A / B
	InstrEq                      // Dst = A == B
	InstrLt                      // Dst = A < B
	InstrSLoad                   // Dst = storage[Slot]
	InstrSStore                  // storage[Slot] = A
	InstrCall                    // Dst = Callee(Args...) when HasDst
)

// String returns a human-readable name for an InstrKind.
func (k InstrKind) String() string {
	switch k {
	case InstrAssign:
		return "assign"
	case InstrAdd:
		return "add"
	case InstrSub:
		return "sub"
	case InstrMul:
		return "mul"
	case InstrDiv:
		return "div"
	case InstrEq:
		return "eq"
	case InstrLt:
		return "lt"
	case InstrSLoad:
		return "sload"
	case InstrSStore:
		return "sstore"
	case InstrCall:
		return "call"
	default:
		return fmt.Sprintf("InstrKind(%d)", k)
	}
}

// Instr is one IR instruction. Which fields are meaningful depends on Kind;
// the flat shape keeps the wire encoding free of custom codecs.
type Instr struct {
	Kind    InstrKind `cbor:"kind"`
	Dst     uint32    `cbor:"dst,omitempty"`
	HasDst  bool      `cbor:"has_dst,omitempty"`
	A       Value     `cbor:"a,omitempty"`
	B       Value     `cbor:"b,omitempty"`
	Checked bool      `cbor:"checked,omitempty"`
	Slot    uint32    `cbor:"slot,omitempty"`
	Callee  string    `cbor:"callee,omitempty"`
	Args    []Value   `cbor:"args,omitempty"`
}

// TermKind discriminates the Terminator variants.
type TermKind uint8

const (
	TermReturn TermKind = iota // return Value (optional)
	TermJump                   // goto Target
	TermBranch                 // if Cond goto True else goto False
)

// String returns a human-readable name for a TermKind.
func (k TermKind) String() string {
	switch k {
	case TermReturn:
		return "return"
	case TermJump:
		return "jump"
	case TermBranch:
		return "branch"
	default:
		return fmt.Sprintf("TermKind(%d)", k)
	}
}

// Terminator is a block's single control transfer.
type Terminator struct {
	Kind   TermKind `cbor:"kind"`
	Value  *Value   `cbor:"value,omitempty"`
	Target string   `cbor:"target,omitempty"`
	Cond   Value    `cbor:"cond,omitempty"`
	True   string   `cbor:"true,omitempty"`
	False  string   `cbor:"false,omitempty"`
}

// ValueKind discriminates the Value variants.
type ValueKind uint8

const (
	ValRegister ValueKind = iota // virtual register Reg
	ValConst                     // inline literal, decimal text in Lit
	ValField                     // named persistent storage field Name
	ValLocal                     // named local Name
)

// Value is an immutable tagged reference to a register, literal, storage
// field, or local.
type Value struct {
	Kind ValueKind `cbor:"kind"`
	Reg  uint32    `cbor:"reg,omitempty"`
	Lit  string    `cbor:"lit,omitempty"`
	Name string    `cbor:"name,omitempty"`
}

// Reg makes a register value.
func Reg(n uint32) Value { return Value{Kind: ValRegister, Reg: n} }

// Const makes an inline constant from decimal text.
func Const(lit string) Value { return Value{Kind: ValConst, Lit: lit} }

// FieldRef makes a reference to a named storage field.
func FieldRef(name string) Value { return Value{Kind: ValField, Name: name} }

// LocalRef makes a reference to a named local.
func LocalRef(name string) Value { return Value{Kind: ValLocal, Name: name} }

func (v Value) String() string {
	switch v.Kind {
	case ValRegister:
		return fmt.Sprintf("r%d", v.Reg)
	case ValConst:
		return v.Lit
	case ValField:
		return "field:" + v.Name
	case ValLocal:
		return "local:" + v.Name
	default:
		return fmt.Sprintf("Value(%d)", v.Kind)
	}
}

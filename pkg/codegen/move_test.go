package codegen

import (
	"strings"
	"testing"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
)

func TestMoveModuleStructure(t *testing.T) {
	text := generateText(t, "move", counterModule())

	for _, want := range []string{
		"module counter::counter {",
		"use std::signer;",
		"struct Counter has key {",
		"count: u64,",
		"struct Changed has drop, store {",
		"public entry fun init(account: &signer) {",
		"move_to(account, Counter {",
		"public entry fun increment(account: &signer, by: u64) acquires Counter {",
		"public fun get(account: &signer): u64 acquires Counter {",
		"let state = borrow_global_mut<Counter>(signer::address_of(account));",
		"fun do_increment(state: &mut Counter, by: u64) {",
		"r1 = r0 + by;",
		"state.count = r1;",
		"return r0;",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestMoveDefaultValues(t *testing.T) {
	m := &ir.Module{
		Name: "app",
		Contracts: []*ir.Contract{{
			Name: "Registry",
			Fields: []*ir.Field{
				{Name: "total", Type: ir.TypeUint},
				{Name: "open", Type: ir.TypeBool},
				{Name: "label", Type: ir.TypeString},
				{Name: "admin", Type: ir.TypeAddress},
			},
		}},
	}

	text := generateText(t, "move", m)
	for _, want := range []string{
		"total: 0,",
		"open: false,",
		`label: b"",`,
		"admin: @0x0,",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("init missing default %q:\n%s", want, text)
		}
	}
}

func TestMoveInitializerOverridesDefault(t *testing.T) {
	m := counterModule()
	m.Contracts[0].Fields[0].Init = func() *ir.Value { v := ir.Const("100"); return &v }()

	text := generateText(t, "move", m)
	if !strings.Contains(text, "count: 100,") {
		t.Errorf("declared initializer not used:\n%s", text)
	}
}

func TestMoveLoop(t *testing.T) {
	text := generateText(t, "move", singleFunctionModule(sumFunction()))

	for _, want := range []string{
		"loop {",
		"r2 = if (r1 < n) 1 else 0;",
		"if (!(r2 != 0)) break;",
		"};",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestMoveDeterministic(t *testing.T) {
	first := generateText(t, "move", counterModule())
	second := generateText(t, "move", counterModule())
	if first != second {
		t.Error("generating the same module twice produced different output")
	}
}

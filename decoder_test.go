package pkl

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

// hexBytes decodes hex-encoded test input; panics on malformed literals
// since these are fixed test fixtures, not user input.
func hexBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// decodeTest is one Load()-and-compare table case.
type decodeTest struct {
	name      string
	input     string // hex
	want      Value
	remainder []byte
	wantErr   ErrorKind
}

func runDecodeTests(t *testing.T, tests []decodeTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			v, rest, err := Load(hexBytes(tt.input), nil)
			if tt.wantErr != 0 || err != nil {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("Load() error = %v, want *DecodeError", err)
				}
				if de.Kind != tt.wantErr {
					t.Fatalf("Load() error kind = %v, want %v", de.Kind, tt.wantErr)
				}
				return
			}
			if !deepValueEqual(v, tt.want) {
				t.Fatalf("Load() = %#v, want %#v", v, tt.want)
			}
			if tt.remainder != nil && string(rest) != string(tt.remainder) {
				t.Fatalf("Load() remainder = %x, want %x", rest, tt.remainder)
			}
		})
	}
}

// deepValueEqual compares decoded values structurally, following
// pointers for *List so two different list-shaped results with the
// same contents still compare equal (tests don't care about identity,
// only memo-sharing tests do, and those are written separately).
func deepValueEqual(a, b Value) bool {
	switch av := a.(type) {
	case *List:
		bv, ok := b.(*List)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !deepValueEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Set:
		bv, ok := b.(Set)
		return ok && eqSet(av, bv)
	case Dict:
		bv, ok := b.(Dict)
		return ok && eqDict(av, bv)
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	default:
		return equal(a, b)
	}
}

func TestScenarios(t *testing.T) {
	runDecodeTests(t, []decodeTest{
		{
			name:  "int 1 protocol 4",
			input: "80044b012e",
			want:  int64(1),
		},
		{
			name:  "utf8 text protocol 4",
			input: "8004950d000000000000008c097465737420f09f98ba942e",
			want:  "test 😺",
		},
		{
			name:  "set literal protocol 4",
			input: "80049509000000000000008f94284b014b02902e",
			want:  mustSet(int64(1), int64(2)),
		},
		{
			name:      "trailing bytes",
			input:     "80044b012e00000000",
			want:      int64(1),
			remainder: []byte{0, 0, 0, 0},
		},
		{
			name:  "protocol 0 list",
			input: "286c70300a49310a6149320a612e",
			want:  &List{Items: []Value{int64(1), int64(2)}},
		},
		{
			name:    "proto 6 rejected",
			input:   "8006" + "2e",
			wantErr: UnsupportedProtocol,
		},
		{
			name:    "missing persistent id resolver",
			input:   "50" + "6162630a" + "2e", // PERSID "abc"
			wantErr: MissingResolver,
		},
	})
}

func mustSet(items ...Value) Set {
	s := NewSet()
	for _, v := range items {
		s.Add(v)
	}
	return s
}

func TestSharedMemoListVisibleThroughBothTupleSlots(t *testing.T) {
	input := hexBytes("8004950d000000000000005d9428" + "4b01" + "4b02" + "6568008694" + "2e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tup, ok := v.(Tuple)
	if !ok || len(tup) != 2 {
		t.Fatalf("want 2-tuple, got %#v", v)
	}
	a, aok := tup[0].(*List)
	b, bok := tup[1].(*List)
	if !aok || !bok {
		t.Fatalf("want both tuple slots to be *List, got %T, %T", tup[0], tup[1])
	}
	if a != b {
		t.Fatalf("expected both tuple slots to share the same *List pointer")
	}
	if len(a.Items) != 2 || !equal(a.Items[0], int64(1)) || !equal(a.Items[1], int64(2)) {
		t.Fatalf("unexpected list contents: %#v", a.Items)
	}
}

func TestDatetimeDescriptorResolver(t *testing.T) {
	// GLOBAL "datetime" "date" ; SHORT_BINBYTES <4 bytes> ; TUPLE1 ; REDUCE ; STOP
	input := hexBytes("63" + hex.EncodeToString([]byte("datetime\n")) + hex.EncodeToString([]byte("date\n")) +
		"43" + "04" + "01020304" + "85" + "52" + "2e")

	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	desc, ok := v.(*ObjectDescriptor)
	if !ok {
		t.Fatalf("want *ObjectDescriptor, got %#v", v)
	}
	if desc.Constructor != "datetime.date" {
		t.Fatalf("constructor = %q, want datetime.date", desc.Constructor)
	}
	if len(desc.Args) != 1 {
		t.Fatalf("args = %#v, want 1 element", desc.Args)
	}
	if b, ok := desc.Args[0].(Bytes); !ok || len(b) != 4 {
		t.Fatalf("args[0] = %#v, want 4-byte Bytes", desc.Args[0])
	}

	resolved, _, err := Load(input, &Options{
		ObjectResolver: func(d *ObjectDescriptor) (Value, bool, error) {
			if d.Constructor == "datetime.date" {
				return "resolved-date", true, nil
			}
			return nil, false, nil
		},
	})
	if err != nil {
		t.Fatalf("Load with resolver: %v", err)
	}
	if resolved != "resolved-date" {
		t.Fatalf("resolved = %#v, want replacement value", resolved)
	}
}

func TestLong1Long4BoundaryValues(t *testing.T) {
	tests := []decodeTest{
		{
			name:  "long1 negative one",
			input: "8a01ff2e", // LONG1 len=1 byte=0xff (-1)
			want:  big.NewInt(-1),
		},
		{
			name:  "long1 max byte",
			input: "8a01" + "7f" + "2e", // 127
			want:  big.NewInt(127),
		},
	}
	runDecodeTests(t, tests)
}

// TestLong4BeyondInt64 builds its input as raw bytes rather than a hex
// literal: LONG4's declared length is itself a 4-byte field, so hand
// -assembling the hex string is error-prone for a payload this wide.
func TestLong4BeyondInt64(t *testing.T) {
	payload := make([]byte, 9) // little-endian two's complement, 9 bytes
	payload[8] = 1             // bit 64 set => value is exactly 2^64
	input := []byte{opLong4, 9, 0, 0, 0}
	input = append(input, payload...)
	input = append(input, opStop)

	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	got, ok := v.(*big.Int)
	if !ok || got.Cmp(want) != 0 {
		t.Fatalf("Load() = %#v, want %v", v, want)
	}
}

func TestEmptyContainers(t *testing.T) {
	runDecodeTests(t, []decodeTest{
		{name: "empty list", input: "5d2e", want: &List{Items: nil}},
		{name: "empty tuple", input: "292e", want: Tuple{}},
		{name: "empty dict", input: "7d2e", want: NewDict()},
		{name: "empty set", input: "8f2e", want: NewSet()},
	})
}

func TestUnknownOpcode(t *testing.T) {
	_, _, err := Load(hexBytes("ff2e"), nil)
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != UnknownOpcode {
		t.Fatalf("error = %v, want UnknownOpcode", err)
	}
}

func TestStopWithEmptyStackIsUnderflow(t *testing.T) {
	_, _, err := Load(hexBytes("2e"), nil)
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != StackUnderflow {
		t.Fatalf("error = %v, want StackUnderflow", err)
	}
}

func TestPopToMarkWithNoMarkIsUnderflow(t *testing.T) {
	_, _, err := Load(hexBytes("316c2e"), nil) // POP_MARK, LIST, STOP
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != StackUnderflow {
		t.Fatalf("error = %v, want StackUnderflow", err)
	}
}

func TestBuildOnNonDescriptorIsTypeMismatch(t *testing.T) {
	input := hexBytes("4b01" + "4e" + "62" + "2e") // push 1, push None, BUILD, STOP
	_, _, err := Load(input, nil)
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != TypeMismatch {
		t.Fatalf("error = %v, want TypeMismatch", err)
	}
}

// TestInst covers the protocol-0 INST opcode: MARK, args..., INST,
// module-line, class-line.
func TestInst(t *testing.T) {
	// MARK, BININT1 1, INST "mymod" "MyClass", STOP
	input := hexBytes("284b01696d796d6f640a4d79436c6173730a2e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	desc, ok := v.(*ObjectDescriptor)
	if !ok {
		t.Fatalf("want *ObjectDescriptor, got %#v", v)
	}
	if desc.Constructor != "mymod.MyClass" {
		t.Fatalf("Constructor = %q, want mymod.MyClass", desc.Constructor)
	}
	if len(desc.Args) != 1 || !equal(desc.Args[0], int64(1)) {
		t.Fatalf("Args = %#v, want [1]", desc.Args)
	}
}

// TestObj covers the protocol-1 OBJ opcode: MARK, class, args..., OBJ.
func TestObj(t *testing.T) {
	// MARK, GLOBAL "mod" "Cls", BININT1 1, OBJ, STOP
	input := hexBytes("28636d6f640a436c730a4b016f2e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	desc, ok := v.(*ObjectDescriptor)
	if !ok {
		t.Fatalf("want *ObjectDescriptor, got %#v", v)
	}
	if desc.Constructor != "mod.Cls" {
		t.Fatalf("Constructor = %q, want mod.Cls", desc.Constructor)
	}
	if len(desc.Args) != 1 || !equal(desc.Args[0], int64(1)) {
		t.Fatalf("Args = %#v, want [1]", desc.Args)
	}
}

// TestNewobj covers the protocol-2 NEWOBJ opcode: class, argtuple, NEWOBJ.
func TestNewobj(t *testing.T) {
	// GLOBAL "mod" "Cls", BININT1 1, TUPLE1, NEWOBJ, STOP
	input := hexBytes("636d6f640a436c730a4b0185812e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	desc, ok := v.(*ObjectDescriptor)
	if !ok {
		t.Fatalf("want *ObjectDescriptor, got %#v", v)
	}
	if desc.Constructor != "mod.Cls.__new__" {
		t.Fatalf("Constructor = %q, want mod.Cls.__new__", desc.Constructor)
	}
	if len(desc.Args) != 2 {
		t.Fatalf("Args = %#v, want [class, 1]", desc.Args)
	}
	if g, ok := desc.Args[0].(Global); !ok || g.Path() != "mod.Cls" {
		t.Fatalf("Args[0] = %#v, want Global mod.Cls", desc.Args[0])
	}
	if !equal(desc.Args[1], int64(1)) {
		t.Fatalf("Args[1] = %#v, want 1", desc.Args[1])
	}
}

// TestNewobjEx covers the protocol-4 NEWOBJ_EX opcode: class, argtuple,
// kwargs dict, NEWOBJ_EX.
func TestNewobjEx(t *testing.T) {
	// GLOBAL "mod" "Cls", EMPTY_TUPLE, MARK, SHORT_BINUNICODE "k", BININT1 1,
	// DICT, NEWOBJ_EX, STOP
	input := hexBytes("636d6f640a436c730a29288c016b4b0164922e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	desc, ok := v.(*ObjectDescriptor)
	if !ok {
		t.Fatalf("want *ObjectDescriptor, got %#v", v)
	}
	if desc.Constructor != "mod.Cls.__new__" {
		t.Fatalf("Constructor = %q, want mod.Cls.__new__", desc.Constructor)
	}
	if len(desc.Kwargs) != 1 || !equal(desc.Kwargs["k"], int64(1)) {
		t.Fatalf("Kwargs = %#v, want {k: 1}", desc.Kwargs)
	}
}

// TestStackGlobalNested covers STACK_GLOBAL producing a Global whose
// Scope is itself a Global, as happens when chaining a bound-method
// reference.
func TestStackGlobalNested(t *testing.T) {
	// GLOBAL "mod" "Sub", SHORT_BINUNICODE "attr", STACK_GLOBAL, STOP
	input := hexBytes("636d6f640a5375620a8c0461747472932e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g, ok := v.(Global)
	if !ok {
		t.Fatalf("want Global, got %#v", v)
	}
	if g.Path() != "mod.Sub.attr" {
		t.Fatalf("Path() = %q, want mod.Sub.attr", g.Path())
	}
	inner, ok := g.Scope.(Global)
	if !ok || inner.Path() != "mod.Sub" {
		t.Fatalf("Scope = %#v, want Global mod.Sub", g.Scope)
	}
}

// TestBuildSetsState covers BUILD's success path: the state argument
// is recorded on the descriptor instead of raising TypeMismatch.
func TestBuildSetsState(t *testing.T) {
	// GLOBAL "mod" "Cls", EMPTY_TUPLE, REDUCE, NONE, BUILD, STOP
	input := hexBytes("636d6f640a436c730a29524e622e")
	v, _, err := Load(input, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	desc, ok := v.(*ObjectDescriptor)
	if !ok {
		t.Fatalf("want *ObjectDescriptor, got %#v", v)
	}
	if desc.Constructor != "mod.Cls" {
		t.Fatalf("Constructor = %q, want mod.Cls", desc.Constructor)
	}
	if !desc.HasState {
		t.Fatal("HasState = false, want true after BUILD")
	}
	if _, ok := desc.State.(None); !ok {
		t.Fatalf("State = %#v, want None", desc.State)
	}
}

// TestBinpersidTagsItsOwnOpcode confirms a missing-resolver error from
// BINPERSID is tagged with BINPERSID's own opcode, not PERSID's
// (handleRef is shared between both opcodes).
func TestBinpersidTagsItsOwnOpcode(t *testing.T) {
	// SHORT_BINUNICODE "pid1", BINPERSID, STOP
	input := hexBytes("8c0470696431512e")
	_, _, err := Load(input, nil)
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != MissingResolver {
		t.Fatalf("error = %v, want MissingResolver", err)
	}
	if de.Opcode != opBinpersid {
		t.Fatalf("Opcode = %#x, want BINPERSID (%#x)", de.Opcode, opBinpersid)
	}
}

// TestPersidTagsItsOwnOpcode is the PERSID-side counterpart: a missing
// resolver there must not be misreported as BINPERSID.
func TestPersidTagsItsOwnOpcode(t *testing.T) {
	input := hexBytes("50" + "6162630a" + "2e") // PERSID "abc", STOP
	_, _, err := Load(input, nil)
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != MissingResolver {
		t.Fatalf("error = %v, want MissingResolver", err)
	}
	if de.Opcode != opPersid {
		t.Fatalf("Opcode = %#x, want PERSID (%#x)", de.Opcode, opPersid)
	}
}

// TestResolveBuiltinGetattr and TestResolveBuiltinBytearray exercise
// the two builtin reductions real picklers emit in place of a
// dedicated opcode.
func TestResolveBuiltinGetattr(t *testing.T) {
	desc := &ObjectDescriptor{
		Constructor: "builtins.getattr",
		Args:        []Value{Global{Scope: "decimal", Name: "Decimal"}, "from_float"},
	}
	v, ok := resolveBuiltin(desc)
	if !ok {
		t.Fatal("resolveBuiltin(getattr) did not match")
	}
	g, ok := v.(Global)
	if !ok || g.Path() != "decimal.Decimal.from_float" {
		t.Fatalf("resolved = %#v, want Global decimal.Decimal.from_float", v)
	}
}

func TestResolveBuiltinBytearray(t *testing.T) {
	desc := &ObjectDescriptor{
		Constructor: "builtins.bytearray",
		Args:        []Value{Bytes("abc")},
	}
	v, ok := resolveBuiltin(desc)
	if !ok {
		t.Fatal("resolveBuiltin(bytearray) did not match")
	}
	if v != Bytes("abc") {
		t.Fatalf("resolved = %#v, want Bytes(\"abc\")", v)
	}

	empty, ok := resolveBuiltin(&ObjectDescriptor{Constructor: "builtins.bytearray"})
	if !ok || empty != Bytes("") {
		t.Fatalf("resolveBuiltin(bytearray, no args) = %#v, %v, want empty Bytes", empty, ok)
	}
}

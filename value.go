package pkl

import "fmt"

// Value is the result type of decoding: one of None, bool, int64,
// *big.Int, float64, string, Bytes, ByteString, *List, Tuple, Dict,
// Set, Global, or *ObjectDescriptor, or whatever a caller-supplied
// resolver returns. Go has no closed sum type,
// so Value is plain interface{} and the variants are distinguished by
// type switch.
type Value = any

// None is the Go representation of Python's None.
type None struct{}

func (None) String() string { return "None" }

// Bytes is pickle's bytes/bytearray, from the BINBYTES family,
// BYTEARRAY8 and the builtins.bytearray reduction. The _codecs.encode
// reduction that protocols 0-2 use for bytes is not resolved and comes
// back as an *ObjectDescriptor. It is a byte-valued
// string, not a []byte, so it remains usable as a Dict/Set key the way
// Python bytes are hashable.
type Bytes string

func (b Bytes) GoString() string { return fmt.Sprintf("pkl.Bytes(%q)", string(b)) }

// ByteString is Python 2's str: 8-bit, ambiguously text-or-binary.
// STRING/BINSTRING/SHORT_BINSTRING produce ByteString when the decoder
// cannot tell whether the pickling side meant text or bytes. It
// compares equal to both string and Bytes with matching content (see
// dict.go's equal), mirroring CPython's str-vs-bytes/unicode history.
type ByteString string

func (b ByteString) GoString() string { return fmt.Sprintf("pkl.ByteString(%q)", string(b)) }

// List is Python's list: an ordered, mutable sequence. It is a
// pointer-backed struct, not a bare slice, so that two stack slots
// sharing a memo entry observe the same mutations (appending to a Go
// slice can reallocate and silently break that aliasing).
type List struct {
	Items []Value
}

func newList() *List { return &List{Items: []Value{}} }

func (l *List) GoString() string { return fmt.Sprintf("pkl.List%#v", l.Items) }

// Tuple is Python's tuple: fixed-arity, immutable, so a plain slice is
// sufficient — nothing ever mutates a Tuple in place once built.
type Tuple []Value

// Global is a reference to a Python class or function, identified by a
// dotted path. Scope is usually a string (the module name) but can
// itself be a Global, producing nested paths like "A.B.c" — this
// happens when the built-in getattr resolver chains a bound-method
// reference.
type Global struct {
	Scope Value // string or Global
	Name  string
}

// Path renders the Global as a dotted string, e.g. "datetime.date".
func (g Global) Path() string {
	switch s := g.Scope.(type) {
	case Global:
		return s.Path() + "." + g.Name
	case string:
		return s + "." + g.Name
	default:
		return fmt.Sprintf("%v.%s", g.Scope, g.Name)
	}
}

func (g Global) GoString() string { return fmt.Sprintf("pkl.Global(%s)", g.Path()) }

// Ref is a Python persistent reference (pickle's PERSID/BINPERSID),
// used historically to let one pickle point into e.g. a ZODB database
// without embedding the referenced object. See Options.PersistentIDResolver
// for turning a Ref into an application object during decode.
type Ref struct {
	Pid Value
}

// ObjectDescriptor is the normalized form of a Python object
// reconstruction assembled from REDUCE/INST/OBJ/NEWOBJ/NEWOBJ_EX and
// mutated in place by BUILD and the append/setitem opcodes. It is
// returned as-is unless an Options.ObjectResolver recognizes its
// Constructor and replaces it.
type ObjectDescriptor struct {
	// Constructor is the dotted path used to build the object. For
	// NEWOBJ/NEWOBJ_EX this is Global.Path() + ".__new__".
	Constructor string

	// Args are the positional constructor arguments. For
	// NEWOBJ/NEWOBJ_EX the class itself is prepended as Args[0].
	Args []Value

	// Kwargs are the keyword constructor arguments (NEWOBJ_EX only).
	Kwargs map[string]Value

	// State is the value passed to BUILD, i.e. __getstate__'s result
	// consumed by __setstate__. HasState distinguishes "BUILD never
	// ran" from "BUILD ran with a state of None".
	State    Value
	HasState bool

	// AppendItems accumulates APPEND/APPENDS when this descriptor,
	// rather than a List, is the opcode's target (a __reduce__ whose
	// 4th element is a list-items iterator).
	AppendItems []Value

	// SetItems accumulates SETITEM/SETITEMS when this descriptor,
	// rather than a Dict, is the opcode's target (a __reduce__ whose
	// 5th element is a dict-items iterator).
	SetItems []KV
}

// KV is an ordered key/value pair, used for ObjectDescriptor.SetItems
// where insertion order must be preserved and the key is not
// necessarily hashable in the host model.
type KV struct {
	Key   Value
	Value Value
}

func newObjectDescriptor(constructor string, args []Value) *ObjectDescriptor {
	return &ObjectDescriptor{Constructor: constructor, Args: args}
}

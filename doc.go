// Package pkl decodes Python's pickle binary serialization format,
// protocol versions 0 through 5.
//
// Use Load to decode a whole pickle buffer:
//
//	v, rest, err := pkl.Load(data, nil)
//
// Load never executes Python code and never resolves a class to a Go
// constructor on its own: Python-specific reconstructions come back as
// an *ObjectDescriptor unless the caller supplies an ObjectResolver via
// Options. This makes it safe to decode pickles from untrusted sources,
// unlike the reference Python implementation where a crafted pickle can
// run arbitrary code.
//
// # Type mapping
//
//	Python             Go
//	------             --
//	None               pkl.None
//	bool               bool
//	int                int64
//	long               *big.Int
//	float              float64
//	str (py3)          string
//	str (py2, legacy)  pkl.ByteString
//	bytes, bytearray   pkl.Bytes
//	list               *pkl.List
//	tuple              pkl.Tuple
//	dict               pkl.Dict
//	set                pkl.Set
//	frozenset          pkl.Set (Frozen() == true)
//
// A class or function reference (the GLOBAL/STACK_GLOBAL opcodes) comes
// back as a Global. An object built through __reduce__, __new__ or the
// INST/OBJ opcodes comes back as an *ObjectDescriptor unless an
// ObjectResolver replaces it. A ZODB-style persistent reference
// (PERSID/BINPERSID) is replaced by the result of the
// PersistentIDResolver; without one, Load fails with MissingResolver.
//
// # Memo sharing
//
// Pickle can memoize a mutable container and later mutate it via
// APPEND/SETITEM before referencing the same memo slot again; every
// reference must observe the same, possibly-mutated, value. Load
// preserves this by giving every distinct memoized value exactly one
// live store and substituting it wherever referenced (see memo.go).
// Cyclic pickles (a container that references itself through its own
// memo slot) cannot be represented in this value model and are not
// supported.
package pkl

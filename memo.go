package pkl

// memo is the per-decode index → value table backing GET/PUT and
// their BIN/LONG_BIN/MEMOIZE variants.
//
// A pickle can memoize a mutable container and mutate it later via
// APPEND/SETITEM before referencing the same memo slot again; every
// reference must observe the same, possibly-mutated, value. Since
// List, Dict, Set and ObjectDescriptor are all already pointer-backed
// (see value.go/dict.go/set.go), storing the Value directly here and
// handing that same Value back out on GET already shares the
// underlying container — no separate handle type is needed.
type memo struct {
	byIndex map[int]Value
	next    int // count of entries stored so far, for MEMOIZE's implicit index
}

func newMemo() *memo {
	return &memo{byIndex: make(map[int]Value)}
}

func (m *memo) store(index int, v Value) {
	m.byIndex[index] = v
	m.next = len(m.byIndex)
}

func (m *memo) get(index int) (Value, bool) {
	v, ok := m.byIndex[index]
	return v, ok
}

package pkl

import (
	"fmt"
	"sort"

	"github.com/aristanetworks/gomap"
)

// Set is Python's set or frozenset, keyed by the same Python-equality
// semantics as Dict. frozen records which pickle opcode built it
// (EMPTY_SET/ADDITEMS vs FROZENSET) purely for round-trip fidelity;
// both behave identically as a Value since this decoder never
// mutates a Set after it is finalized and handed to the caller.
type Set struct {
	m      *gomap.Map[Value, struct{}]
	frozen bool
}

// NewSet returns a new, empty mutable set.
func NewSet() Set { return newSetSizeHint(0, false) }

// NewFrozenSet returns a new, empty frozenset.
func NewFrozenSet() Set { return newSetSizeHint(0, true) }

func newSetSizeHint(size int, frozen bool) Set {
	return Set{
		m:      gomap.NewHint[Value, struct{}](size, equal, pyhash),
		frozen: frozen,
	}
}

// Frozen reports whether this set was built as a Python frozenset.
func (s Set) Frozen() bool { return s.frozen }

// Add inserts value, no-op if an equal value is already present.
func (s Set) Add(value Value) {
	if !s.Has(value) {
		s.m.Set(value, struct{}{})
	}
}

// Has reports whether a value equal to the query is present.
func (s Set) Has(value Value) bool {
	_, ok := s.m.Get(value)
	return ok
}

// Len returns the number of items.
func (s Set) Len() int { return s.m.Len() }

// Iter returns an iterator over all items, in arbitrary order.
func (s Set) Iter() func(yield func(Value) bool) {
	it := s.m.Iter()
	return func(yield func(Value) bool) {
		for it.Next() {
			if !yield(it.Key()) {
				break
			}
		}
	}
}

func (s Set) String() string { return s.sprintf("%v") }
func (s Set) GoString() string {
	kind := "Set"
	if s.frozen {
		kind = "FrozenSet"
	}
	return fmt.Sprintf("pkl.%s%s", kind, s.sprintf("%#v"))
}

func (s Set) sprintf(format string) string {
	items := make([]string, 0, s.Len())
	s.Iter()(func(v Value) bool {
		items = append(items, fmt.Sprintf(format, v))
		return true
	})
	sort.Strings(items)
	out := "{"
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out + "}"
}

func eqSet(a, b Set) bool {
	if a.Len() != b.Len() {
		return false
	}
	ok := true
	a.Iter()(func(v Value) bool {
		if !b.Has(v) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// Python-equality Dict: keys compare and hash the way Python's do,
// across bool/int64/*big.Int/float64 and across string/ByteString/Bytes.
package pkl

import (
	"fmt"
	"hash/maphash"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/aristanetworks/gomap"
)

// Dict is Python's dict: a mapping keyed by Python-equality rather
// than Go's native ==, so that 1, 1.0, True and big.NewInt(1) all
// land in the same slot. Keys are compared via equal and hashed via
// pyhash below.
//
// Dict is pointer-like: its zero value has no backing map and is not
// usable. Use NewDict or NewDictWithSizeHint.
type Dict struct {
	m *gomap.Map[Value, Value]
}

// NewDict returns a new, empty dictionary.
func NewDict() Dict { return NewDictWithSizeHint(0) }

// NewDictWithSizeHint returns a new dictionary preallocated for size items.
func NewDictWithSizeHint(size int) Dict {
	return Dict{m: gomap.NewHint[Value, Value](size, equal, pyhash)}
}

// Get returns the value associated with a key equal to the query, or
// nil if none is present.
func (d Dict) Get(key Value) Value {
	v, _ := d.Get_(key)
	return v
}

// Get_ is the comma-ok form of Get.
func (d Dict) Get_(key Value) (value Value, ok bool) {
	return d.m.Get(key)
}

// Set associates key with value, first removing any existing entry
// with an equal key (ByteString's cross-type equality is
// non-transitive, so a plain map-set could otherwise leave stale
// entries under a differently-typed but equal key).
func (d Dict) Set(key, value Value) {
	d.Del(key)
	d.m.Set(key, value)
}

// Del removes every entry whose key is equal to the query.
func (d Dict) Del(key Value) {
	for {
		d.m.Delete(key)
		if _, have := d.Get_(key); !have {
			break
		}
	}
}

// Len returns the number of entries.
func (d Dict) Len() int { return d.m.Len() }

// Iter returns an iterator over all entries, in arbitrary order.
func (d Dict) Iter() func(yield func(Value, Value) bool) {
	it := d.m.Iter()
	return func(yield func(Value, Value) bool) {
		for it.Next() {
			if !yield(it.Key(), it.Elem()) {
				break
			}
		}
	}
}

func (d Dict) String() string   { return d.sprintf("%v") }
func (d Dict) GoString() string { return fmt.Sprintf("pkl.Dict%s", d.sprintf("%#v")) }

func (d Dict) sprintf(format string) string {
	type kv struct{ k, v string }
	all := make([]kv, 0, d.Len())
	d.Iter()(func(k, v Value) bool {
		all = append(all, kv{fmt.Sprintf(format, k), fmt.Sprintf(format, v)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].k < all[j].k })
	s := "{"
	for i, e := range all {
		if i > 0 {
			s += ", "
		}
		s += e.k + ": " + e.v
	}
	return s + "}"
}

// ---- equal: Python-equality over Value ----

type pkind uint

const (
	pkBool pkind = iota
	pkInt
	pkBigInt
	pkFloat
	pkSlice // List items / Tuple
	pkStruct
	pkOther
)

func kindOf(x Value) pkind {
	switch x.(type) {
	case bool:
		return pkBool
	case int64:
		return pkInt
	case *big.Int:
		return pkBigInt
	case float64:
		return pkFloat
	case Tuple:
		return pkSlice
	}
	r := reflect.ValueOf(x)
	switch r.Kind() {
	case reflect.Slice, reflect.Array:
		return pkSlice
	case reflect.Struct:
		return pkStruct
	}
	return pkOther
}

// equal implements Python's == across this package's Value variants.
// It is an extension of Go's ==: numeric types compare across
// bool/int64/*big.Int/float64, and ByteString compares equal to both
// string and Bytes with matching content (but string and Bytes never
// compare equal to each other, matching Python 3's str-vs-bytes split).
func equal(xa, xb Value) bool {
	switch a := xa.(type) {
	case string:
		switch b := xb.(type) {
		case string:
			return a == b
		case ByteString:
			return a == string(b)
		default:
			return false
		}
	case ByteString:
		switch b := xb.(type) {
		case string:
			return ByteString(b) == a
		case ByteString:
			return a == b
		case Bytes:
			return ByteString(b) == a
		default:
			return false
		}
	case Bytes:
		switch b := xb.(type) {
		case ByteString:
			return Bytes(b) == a
		case Bytes:
			return a == b
		default:
			return false
		}
	}

	ak, bk := kindOf(xa), kindOf(xb)
	if ak > bk {
		xa, xb = xb, xa
		ak, bk = bk, ak
	}

	switch ak {
	case pkBool:
		return eqNum(bint(xa.(bool)), bk, xb)
	case pkInt:
		return eqNum(xa.(int64), bk, xb)
	case pkBigInt:
		ab := xa.(*big.Int)
		switch bk {
		case pkBigInt:
			return ab.Cmp(xb.(*big.Int)) == 0
		case pkFloat:
			return ab.IsInt64() && eqNum(ab.Int64(), pkFloat, xb)
		}
		return false
	case pkFloat:
		af := xa.(float64)
		switch bk {
		case pkFloat:
			return af == xb.(float64)
		}
		return false
	case pkSlice:
		switch bk {
		case pkSlice:
			return eqSlice(xa, xb)
		}
		return false
	}

	switch a := xa.(type) {
	case Dict:
		if b, ok := xb.(Dict); ok {
			return eqDict(a, b)
		}
		return false
	case Set:
		if b, ok := xb.(Set); ok {
			return eqSet(a, b)
		}
		return false
	}

	if ak == pkStruct && bk == pkStruct {
		return reflect.DeepEqual(xa, xb)
	}
	return xa == xb
}

// eqNum compares a (bool-as-int64 or int64) against b, which may be
// int64, *big.Int or float64. The caller has already ordered the pair
// so ak <= bk, halving the cases this needs to handle.
func eqNum(ai int64, bk pkind, xb Value) bool {
	switch bk {
	case pkBool:
		return ai == bint(xb.(bool))
	case pkInt:
		return ai == xb.(int64)
	case pkBigInt:
		b := xb.(*big.Int)
		return b.IsInt64() && b.Int64() == ai
	case pkFloat:
		return float64(ai) == xb.(float64)
	}
	return false
}

func eqSlice(xa, xb Value) bool {
	a := reflect.ValueOf(xa)
	b := reflect.ValueOf(xb)
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !equal(a.Index(i).Interface(), b.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func eqDict(a, b Dict) bool {
	if a.Len() != b.Len() {
		return false
	}
	ok := true
	a.Iter()(func(k, va Value) bool {
		vb, have := b.Get_(k)
		if !have || !equal(va, vb) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

func bint(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ---- hash: consistent with equal ----

func pyhash(seed maphash.Seed, x Value) uint64 {
	switch v := x.(type) {
	case string:
		return hashString(seed, v)
	case ByteString:
		return hashString(seed, string(v))
	case Bytes:
		return hashString(seed, string(v))
	}

	var h maphash.Hash
	h.SetSeed(seed)

	hashUint := func(u uint64) {
		var b [8]byte
		for i := 0; i < 8; i++ {
			b[i] = byte(u >> (56 - 8*i))
		}
		h.Write(b[:])
	}
	hashInt := func(i int64) { hashUint(uint64(i)) }
	hashFloat := func(f float64) {
		if i := int64(f); float64(i) == f {
			hashInt(i)
		} else {
			hashUint(math.Float64bits(f))
		}
	}

	switch v := x.(type) {
	case bool:
		hashInt(bint(v))
		return h.Sum64()
	case int64:
		hashInt(v)
		return h.Sum64()
	case float64:
		hashFloat(v)
		return h.Sum64()
	case *big.Int:
		switch {
		case v.IsInt64():
			hashInt(v.Int64())
		default:
			h.WriteString("bigint")
			h.Write(v.Bytes())
		}
		return h.Sum64()
	case Tuple:
		h.WriteString("tuple")
		for _, item := range v {
			hashUint(pyhash(seed, item))
		}
		return h.Sum64()
	}

	panic(fmt.Sprintf("pkl: unhashable type: %T", x))
}

func hashString(seed maphash.Seed, s string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(s)
	return h.Sum64()
}

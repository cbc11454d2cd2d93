package interp

import (
	"sort"
	"strconv"

	"github.com/kolkov/xawk/internal/types"
)

// Array is an associative array. Meta holds out-of-band numbers attached
// by a builtin (the bin edges stored by hist); it never shows up in
// iteration and is dropped whenever the array is cleared or rebuilt.
type Array struct {
	items map[string]types.Value
	meta  []float64
}

// NewArray returns an empty array.
func NewArray() *Array {
	return &Array{items: make(map[string]types.Value)}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.items)
}

// Get returns the element at key and whether it exists.
func (a *Array) Get(key string) (types.Value, bool) {
	v, ok := a.items[key]
	return v, ok
}

// Ref returns the element at key, creating it as Uninitialized if absent.
func (a *Array) Ref(key string) types.Value {
	v, ok := a.items[key]
	if !ok {
		a.items[key] = types.Null()
	}
	return v
}

// Set stores v at key.
func (a *Array) Set(key string, v types.Value) {
	a.items[key] = v
}

// Has reports whether key exists, without creating it.
func (a *Array) Has(key string) bool {
	_, ok := a.items[key]
	return ok
}

// Delete removes key.
func (a *Array) Delete(key string) {
	delete(a.items, key)
}

// Clear removes every element and the metadata.
func (a *Array) Clear() {
	clear(a.items)
	a.meta = nil
}

// Meta returns the array's metadata, or nil.
func (a *Array) Meta() []float64 {
	return a.meta
}

// Keys returns a snapshot of the keys in map order.
func (a *Array) Keys() []string {
	keys := make([]string, 0, len(a.items))
	for k := range a.items {
		keys = append(keys, k)
	}
	return keys
}

// SortedKeys returns the keys with numeric keys first in ascending order,
// then the remaining keys by text.
func (a *Array) SortedKeys() []string {
	keys := a.Keys()
	sort.Slice(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})
	return keys
}

// keyLess orders numeric keys before text keys.
func keyLess(a, b string) bool {
	an, aErr := strconv.ParseFloat(a, 64)
	bn, bErr := strconv.ParseFloat(b, 64)
	switch {
	case aErr == nil && bErr == nil:
		if an != bn {
			return an < bn
		}
		return a < b
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

// orderedKeys returns the keys in the order named by a PROCINFO["sorted_in"]
// value. Unknown orders leave the keys in map order.
func (a *Array) orderedKeys(order, convfmt string) []string {
	keys := a.Keys()
	var less func(i, j int) bool
	switch order {
	case "@ind_str_asc":
		less = func(i, j int) bool { return keys[i] < keys[j] }
	case "@ind_str_desc":
		less = func(i, j int) bool { return keys[i] > keys[j] }
	case "@ind_num_asc":
		less = func(i, j int) bool { return numLess(keys[i], keys[j]) }
	case "@ind_num_desc":
		less = func(i, j int) bool { return numLess(keys[j], keys[i]) }
	case "@val_str_asc", "@val_str_desc", "@val_num_asc", "@val_num_desc":
		vals := make(map[string]types.Value, len(keys))
		for _, k := range keys {
			vals[k] = a.items[k]
		}
		desc := order == "@val_str_desc" || order == "@val_num_desc"
		numeric := order == "@val_num_asc" || order == "@val_num_desc"
		less = func(i, j int) bool {
			x, y := vals[keys[i]], vals[keys[j]]
			if desc {
				x, y = y, x
			}
			var c int
			if numeric {
				c = compareFloat(x.AsNum(), y.AsNum())
			} else {
				c = types.Compare(types.Str(x.AsStr(convfmt)), types.Str(y.AsStr(convfmt)), convfmt)
			}
			if c != 0 {
				return c < 0
			}
			return keys[i] < keys[j]
		}
	default:
		return keys
	}
	sort.SliceStable(keys, less)
	return keys
}

func numLess(a, b string) bool {
	an, bn := types.ParseNumPrefix(a), types.ParseNumPrefix(b)
	if an != bn {
		return an < bn
	}
	return a < b
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Package catmap maintains the mapping between category names and the
// compact integer codes used by categorical aggregations.
//
// A Dict is append-only: once a name is assigned a code, that code never
// changes. Data sources snapshot the dictionary after each chunk, so a
// snapshot taken earlier is always a prefix of one taken later. Aggregators
// rely on that prefix property when merging per-chunk results.
package catmap

import (
	"github.com/arloliu/dshade/errs"
)

// MaxCategories caps the number of distinct categories a single Dict can
// hold. Categorical grids allocate one value plane per category, so an
// unbounded dictionary would make grid memory unbounded too.
const MaxCategories = 4096

// Dict assigns stable integer codes to category names in first-seen order.
//
// Dict is not safe for concurrent use. Sources build one Dict per column
// while scanning rows sequentially, then publish immutable snapshots.
type Dict struct {
	codes map[string]int32
	names []string
}

// New creates an empty dictionary.
func New() *Dict {
	return &Dict{
		codes: make(map[string]int32),
	}
}

// FromNames creates a dictionary pre-populated with the given names in order.
// Duplicate names are rejected so codes stay unambiguous.
func FromNames(names []string) (*Dict, error) {
	d := New()
	for _, name := range names {
		if _, exists := d.codes[name]; exists {
			return nil, errs.ErrDuplicateCategory
		}
		if _, err := d.Add(name); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Add returns the code for name, assigning the next free code if the name
// has not been seen before. Returns ErrTooManyCategories once MaxCategories
// distinct names exist.
func (d *Dict) Add(name string) (int32, error) {
	if code, ok := d.codes[name]; ok {
		return code, nil
	}

	if len(d.names) >= MaxCategories {
		return 0, errs.ErrTooManyCategories
	}

	code := int32(len(d.names))
	d.codes[name] = code
	d.names = append(d.names, name)

	return code, nil
}

// Lookup returns the code for name without assigning a new one.
func (d *Dict) Lookup(name string) (int32, bool) {
	code, ok := d.codes[name]
	return code, ok
}

// Name returns the name for code. The second result is false if the code
// is out of range.
func (d *Dict) Name(code int32) (string, bool) {
	if code < 0 || int(code) >= len(d.names) {
		return "", false
	}

	return d.names[code], true
}

// Len returns the number of distinct categories.
func (d *Dict) Len() int {
	return len(d.names)
}

// Snapshot returns a copy of the current names in code order. The copy is
// safe to hand to other goroutines while the Dict keeps growing.
func (d *Dict) Snapshot() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)

	return out
}

// IsPrefix reports whether prev is a prefix of next.
//
// Chunk snapshots from a single source are cumulative, so any earlier
// snapshot must be a prefix of any later one. Aggregators use this to
// validate that per-chunk categorical results can be merged by code.
func IsPrefix(prev, next []string) bool {
	if len(prev) > len(next) {
		return false
	}
	for i, name := range prev {
		if next[i] != name {
			return false
		}
	}

	return true
}

// Package pagination answers "up to N items strictly before time T" over an
// immutable list of timestamped records.
package pagination

import "sort"

type entry struct {
	key float64
	pos int
}

// Index keeps record positions sorted ascending by timestamp. It is built
// once from immutable source data and is read-only afterwards, so it needs
// no synchronization.
type Index struct {
	entries []entry
}

// NewIndex builds an index over the given timestamps. The sort is stable, so
// records sharing a timestamp keep their load order.
func NewIndex(keys []float64) *Index {
	entries := make([]entry, len(keys))
	for i, k := range keys {
		entries[i] = entry{key: k, pos: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})
	return &Index{entries: entries}
}

// FindBefore returns the index of the first entry with key >= target
// (a lower-bound binary search). It equals Len when target is beyond all
// keys and 0 when target is below all of them.
func (ix *Index) FindBefore(target float64) int {
	return sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].key >= target
	})
}

// FindEqual returns the position of some entry with exactly the target key.
func (ix *Index) FindEqual(target float64) (int, bool) {
	i := ix.FindBefore(target)
	if i < len(ix.entries) && ix.entries[i].key == target {
		return ix.entries[i].pos, true
	}
	return 0, false
}

// Query walks newest-first from just before target, returning the positions
// of up to limit entries accepted by filter. A nil filter accepts
// everything. An exhausted or empty list yields an empty result.
func (ix *Index) Query(before float64, limit int, filter func(pos int) bool) []int {
	out := make([]int, 0)
	for i := ix.FindBefore(before) - 1; i >= 0 && len(out) < limit; i-- {
		pos := ix.entries[i].pos
		if filter == nil || filter(pos) {
			out = append(out, pos)
		}
	}
	return out
}

// Len is the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.entries)
}

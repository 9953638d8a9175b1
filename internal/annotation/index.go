package annotation

import (
	"path/filepath"
	"sort"
	"strings"
)

// Key is the order-independent identity of an image unit: the sorted
// basenames of its members joined with a separator that cannot appear in a
// filename component.
type Key string

// KeyFor canonicalizes a list of image paths into a Key. Directory
// components are stripped so "a/0_a.jpg" and "0_a.jpg" coincide, and two
// permutations of the same filenames always produce the same Key.
func KeyFor(images []string) Key {
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = filepath.Base(img)
	}
	sort.Strings(names)
	return Key(strings.Join(names, "\x00"))
}

// Index maps unit identities to the records referencing them, insertion
// order preserved. It is built once per session and mutated in place via
// Add; it is never rebuilt mid-session, so a lookup immediately after a
// successful write sees the new record without touching disk.
type Index struct {
	byKey map[Key][]Record
	size  int
}

// NewIndex builds an index over records. Records without a non-empty
// images list are skipped; they cannot be joined to any unit.
func NewIndex(records []Record) *Index {
	idx := &Index{byKey: make(map[Key][]Record, len(records))}
	for _, rec := range records {
		idx.Add(rec)
	}
	return idx
}

// Add registers one record under its canonical key. Records lacking images
// are ignored.
func (x *Index) Add(rec Record) {
	if len(rec.Images) == 0 {
		return
	}
	key := KeyFor(rec.Images)
	x.byKey[key] = append(x.byKey[key], rec)
	x.size++
}

// Lookup returns the records sharing the given unit's identity, in the
// order they were indexed. The result slice is shared; callers must not
// mutate it.
func (x *Index) Lookup(images []string) []Record {
	return x.byKey[KeyFor(images)]
}

// Size returns the number of indexed records.
func (x *Index) Size() int {
	return x.size
}

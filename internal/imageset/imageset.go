// Package imageset discovers comparison units in a flat image directory.
//
// A unit is a group of image files judged together as one annotation task.
// Grouping follows a filename convention: either a shared prefix before the
// first underscore ("0_a.jpg", "0_b.jpg" -> unit "0") or consecutive pairing
// after a natural sort.
package imageset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Policy selects how qualifying files are partitioned into units.
type Policy string

const (
	// PolicyPrefix groups files by the stem prefix before the first
	// underscore. Files whose stem has no underscore are excluded.
	PolicyPrefix Policy = "prefix"

	// PolicyPairs sorts all files naturally and pairs them off two at a
	// time. A trailing unpaired file is dropped.
	PolicyPairs Policy = "pairs"
)

// Valid reports whether p names a known grouping policy.
func (p Policy) Valid() bool {
	return p == PolicyPrefix || p == PolicyPairs
}

// Unit is one comparison task: image basenames in natural order.
type Unit []string

// imageExts is the closed set of recognized image extensions.
var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// List scans dir and partitions its image files into units under the given
// policy. The result is ordered by the natural order of each unit's group
// key. An empty directory yields an empty slice; callers decide whether that
// is fatal.
func List(dir string, policy Policy) ([]Unit, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("imageset: unknown grouping policy %q", policy)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("imageset: read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExts[ext]; !ok {
			continue
		}
		names = append(names, entry.Name())
	}

	if policy == PolicyPairs {
		return pairUnits(names), nil
	}
	return prefixUnits(names), nil
}

// prefixUnits groups names by the stem prefix before the first underscore.
// Names without an underscore in the stem are silently excluded.
func prefixUnits(names []string) []Unit {
	groups := map[string][]string{}
	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		idx := strings.Index(stem, "_")
		if idx < 0 {
			continue
		}
		prefix := stem[:idx]
		groups[prefix] = append(groups[prefix], name)
	}

	prefixes := make([]string, 0, len(groups))
	for prefix := range groups {
		prefixes = append(prefixes, prefix)
	}
	SortNatural(prefixes)

	units := make([]Unit, 0, len(prefixes))
	for _, prefix := range prefixes {
		members := groups[prefix]
		SortNatural(members)
		units = append(units, Unit(members))
	}
	return units
}

// pairUnits sorts names naturally and partitions them into consecutive
// pairs, dropping an odd trailing file.
func pairUnits(names []string) []Unit {
	SortNatural(names)
	units := make([]Unit, 0, len(names)/2)
	for i := 0; i+1 < len(names); i += 2 {
		units = append(units, Unit{names[i], names[i+1]})
	}
	return units
}

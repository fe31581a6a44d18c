// Package glyph holds annotated musical symbols and the dataset-wide
// occurrence counts used for rare-label filtering and popularity voting.
package glyph

import (
	"fmt"
	"sort"

	"omr-sampler/pkg/geometry"
)

// Reserved names produced by the labelling policy. Annotations must never
// use them as real glyph names.
const (
	NoneName  = "None"
	OtherName = "Other"
)

// Glyph is one annotated symbol with a page-pixel bounding box.
type Glyph struct {
	Name string        `json:"name"`
	Box  geometry.BBox `json:"box"`
}

// New creates a new Glyph.
func New(name string, box geometry.BBox) Glyph {
	return Glyph{Name: name, Box: box}
}

// Reserved reports whether name is one of the labelling sentinels.
func Reserved(name string) bool {
	return name == NoneName || name == OtherName
}

func (g Glyph) String() string {
	return fmt.Sprintf("%s%v", g.Name, g.Box)
}

// Content maps glyph names to their occurrence count across a dataset.
// It is built in full before extraction starts and is read-only afterwards.
type Content map[string]int

// Tally counts every glyph of every page.
func Tally(pages ...[]Glyph) Content {
	c := make(Content)
	for _, glyphs := range pages {
		for _, g := range glyphs {
			c[g.Name]++
		}
	}
	return c
}

// Count returns the occurrence count of name and whether it is known.
func (c Content) Count(name string) (int, bool) {
	n, ok := c[name]
	return n, ok
}

// Frequent reports whether name is known and occurs at least minOccurrences times.
func (c Content) Frequent(name string, minOccurrences int) bool {
	n, ok := c[name]
	return ok && n >= minOccurrences
}

// Names returns the known names sorted by descending count, then by name.
func (c Content) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if c[names[i]] != c[names[j]] {
			return c[names[i]] > c[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

package candidate

import (
	"image"
	"slices"

	"omr-sampler/internal/glyph"
	"omr-sampler/internal/label"
	"omr-sampler/pkg/geometry"
)

// Candidate is a candidate window together with its training label.
type Candidate struct {
	Box   geometry.BBox
	Label label.Label
}

// labelMap records, per staff image pixel, which glyph class inked it and
// how many ink pixels that glyph has in total.
type labelMap struct {
	width int
	ids   []int
	poll  []int
}

// Label labels candidate windows from the glyphs drawn on a staff image.
// Glyph boxes are staff-local (see staff.Score.ToLocal). Each glyph known to
// vocab stamps its ink pixels with its class and ink count; later glyphs
// overwrite earlier ones. A candidate takes the class covering most of its
// pixels when that coverage exceeds half the stamping glyph's ink count,
// otherwise it is label.None. A nil vocab keeps raw names.
func (f *Finder) Label(staffImg *image.Gray, glyphs []glyph.Glyph, vocab *label.Vocabulary, candidates []geometry.BBox) []Candidate {
	classes := relevantClasses(glyphs, vocab)
	ids := make(map[string]int, len(classes))
	for i, c := range classes {
		ids[c] = i + 1
	}

	b := staffImg.Bounds()
	bounds := geometry.NewBBox(0, b.Dx(), 0, b.Dy())
	m := labelMap{
		width: b.Dx(),
		ids:   make([]int, b.Dx()*b.Dy()),
		poll:  make([]int, b.Dx()*b.Dy()),
	}
	for i := range m.poll {
		m.poll[i] = 1
	}

	for _, g := range glyphs {
		class, ok := classOf(g.Name, vocab)
		if !ok {
			continue
		}
		box, _ := g.Box.Clamp(bounds)
		count := InkCount(staffImg, box)
		forEachInk(staffImg, box, func(x, y int) {
			m.ids[y*m.width+x] = ids[class]
			m.poll[y*m.width+x] = count
		})
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		box, _ := c.Clamp(bounds)
		out = append(out, Candidate{Box: c, Label: m.vote(box, classes)})
	}
	return out
}

func (m *labelMap) vote(box geometry.BBox, classes []string) label.Label {
	counts := make([]int, len(classes)+1)
	first := make([]int, len(classes)+1)
	for y := box.YMin; y < box.YMax; y++ {
		for x := box.XMin; x < box.XMax; x++ {
			i := y*m.width + x
			id := m.ids[i]
			if id == 0 {
				continue
			}
			if counts[id] == 0 {
				first[id] = i
			}
			counts[id]++
		}
	}

	best := 0
	for id := 1; id < len(counts); id++ {
		if counts[id] > counts[best] {
			best = id
		}
	}
	if best == 0 {
		return label.None
	}
	if float64(counts[best]) > 0.5*float64(m.poll[first[best]]) {
		return label.Of(classes[best-1])
	}
	return label.None
}

// relevantClasses returns the sorted distinct classes of the glyphs that
// can be labelled.
func relevantClasses(glyphs []glyph.Glyph, vocab *label.Vocabulary) []string {
	var classes []string
	for _, g := range glyphs {
		if c, ok := classOf(g.Name, vocab); ok && !slices.Contains(classes, c) {
			classes = append(classes, c)
		}
	}
	slices.Sort(classes)
	return classes
}

func classOf(name string, vocab *label.Vocabulary) (string, bool) {
	if glyph.Reserved(name) {
		return "", false
	}
	if vocab == nil {
		return name, true
	}
	if !vocab.Contains(name) {
		return "", false
	}
	return vocab.Resolve(name).Name, true
}

func forEachInk(img *image.Gray, box geometry.BBox, fn func(x, y int)) {
	b := img.Bounds()
	for y := box.YMin; y < box.YMax; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := box.XMin; x < box.XMax; x++ {
			if row[x] == 0 {
				fn(x, y)
			}
		}
	}
}

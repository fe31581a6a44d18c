package staff

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"omr-sampler/internal/glyph"
	"omr-sampler/pkg/geometry"
)

// Staff is one five-line staff of a page.
type Staff struct {
	Index int
	Start int           // top line row, relative to the model origin
	Box   geometry.BBox // page box of the five lines

	divisions [][]glyph.Glyph
	local     []glyph.Glyph
}

// Division returns the glyphs assigned to division i, in insertion order.
func (st *Staff) Division(i int) []glyph.Glyph {
	return st.divisions[i]
}

// Glyphs returns the glyphs assigned to the staff with their boxes
// relative to the staff's candidate box.
func (st *Staff) Glyphs() []glyph.Glyph {
	return st.local
}

// Score is the staff model of one page and the staves found on it.
type Score struct {
	Filename string
	Model    Model
	Staves   []*Staff
}

// Assignment summarises one PositionGlyphs call.
type Assignment struct {
	Assigned          int
	Rare              int
	OutsideHorizontal int
	OutsideVertical   int
}

// Load reads a geometry record and builds its Score.
func Load(path string) (*Score, error) {
	g, err := LoadGeometry(path)
	if err != nil {
		return nil, err
	}
	return NewScore(g)
}

// NewScore validates the geometry record and derives the staff model.
// Staves keep the order of the record.
func NewScore(g *Geometry) (*Score, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	m := NewModel(g)
	s := &Score{Filename: g.Filename, Model: m}
	for i, start := range g.Starts {
		top := start + m.Row
		s.Staves = append(s.Staves, &Staff{
			Index:     i,
			Start:     start,
			Box:       geometry.NewBBox(m.Col, m.Col+m.StaffLength, top, top+m.StaffThickness),
			divisions: make([][]glyph.Glyph, m.Divisions),
		})
	}
	return s, nil
}

// Len returns the number of staves.
func (s *Score) Len() int {
	return len(s.Staves)
}

// DivisionBox returns the page box of division div of staff staffIdx.
// The box depends only on the indices and the model constants.
func (s *Score) DivisionBox(staffIdx, div int) geometry.BBox {
	m := s.Model
	xmin := div*m.KernelWidth + m.Col
	ymin := s.Staves[staffIdx].Start + m.Row - (m.KernelHeight-m.StaffThickness)/2
	return geometry.NewBBox(xmin, xmin+m.KernelWidth, ymin, ymin+m.KernelHeight)
}

// CandidateBox returns the page box of staff staffIdx padded by
// CandidateExtra, half above and half below.
func (s *Score) CandidateBox(staffIdx int) geometry.BBox {
	m := s.Model
	top := s.Staves[staffIdx].Start + m.Row
	half := m.CandidateExtra / 2
	return geometry.NewBBox(m.Col, m.Col+m.StaffLength, top-half, top+m.StaffThickness+half)
}

// ToLocal re-expresses a page box relative to the candidate box of a staff.
func (s *Score) ToLocal(staffIdx int, box geometry.BBox) geometry.BBox {
	origin := s.CandidateBox(staffIdx)
	return box.Translate(-origin.XMin, -origin.YMin)
}

// ToPage is the inverse of ToLocal.
func (s *Score) ToPage(staffIdx int, box geometry.BBox) geometry.BBox {
	origin := s.CandidateBox(staffIdx)
	return box.Translate(origin.XMin, origin.YMin)
}

// StaffImage crops the candidate box of a staff out of a page, clamped to
// the page bounds. The second result reports whether clamping happened.
func (s *Score) StaffImage(img *image.Gray, staffIdx int) (*image.Gray, bool) {
	box, clamped := s.CandidateBox(staffIdx).Clamp(geometry.FromRectangle(img.Bounds()))
	return img.SubImage(box.Rectangle()).(*image.Gray), clamped
}

// PositionGlyphs assigns glyphs to staves and divisions. Earlier
// assignments are discarded, so repeated calls with the same input give the
// same result.
//
// Glyphs unknown to content or rarer than minOccurrences are skipped.
// A glyph is dropped when its horizontal center falls outside the staff
// model, or when the nearest staff center line is farther than
// Model.RejectionRadius. Ties go to the lower staff index.
func (s *Score) PositionGlyphs(glyphs []glyph.Glyph, content glyph.Content, minOccurrences int) (Assignment, error) {
	for _, g := range glyphs {
		if glyph.Reserved(g.Name) {
			return Assignment{}, formatErrorf("glyph.name", "%q is reserved", g.Name)
		}
	}

	m := s.Model
	for _, st := range s.Staves {
		st.divisions = make([][]glyph.Glyph, m.Divisions)
		st.local = nil
	}

	var a Assignment
	for _, g := range glyphs {
		if !content.Frequent(g.Name, minOccurrences) {
			a.Rare++
			continue
		}

		c := g.Box.Center()
		x, y := c.X-m.Col, c.Y-m.Row

		div := m.DivisionIndex(x)
		if div < 0 {
			slog.Debug("glyph outside staff horizontally", "page", s.Filename, "glyph", g.String())
			a.OutsideHorizontal++
			continue
		}

		staffIdx, dist := s.closestStaff(y)
		if staffIdx < 0 || dist > m.RejectionRadius() {
			slog.Debug("glyph too far from any staff", "page", s.Filename, "glyph", g.String(), "distance", dist)
			a.OutsideVertical++
			continue
		}

		st := s.Staves[staffIdx]
		st.divisions[div] = append(st.divisions[div], g)
		st.local = append(st.local, glyph.New(g.Name, s.ToLocal(staffIdx, g.Box)))
		a.Assigned++
	}

	slog.Debug("glyphs positioned", "page", s.Filename,
		"assigned", a.Assigned, "rare", a.Rare,
		"outside_horizontal", a.OutsideHorizontal, "outside_vertical", a.OutsideVertical)
	return a, nil
}

// closestStaff returns the staff whose center line is nearest to model
// row y, or -1 when the page has no staves.
func (s *Score) closestStaff(y int) (int, int) {
	best, bestDist := -1, math.MaxInt
	for i, st := range s.Staves {
		d := y - s.Model.CenterLine(st.Start)
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func (s *Score) String() string {
	return fmt.Sprintf("%s: %d staves, %d divisions", s.Filename, len(s.Staves), s.Model.Divisions)
}

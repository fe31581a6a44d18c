package staff

import "math"

// Sizing ratios of the supervised windowing path.
const (
	// StrideRatio is the portion of a kernel exclusive to the previous one.
	StrideRatio = 0.5
	// BoundaryExtraLines is the number of (line+space) units added above
	// and below a staff when cropping.
	BoundaryExtraLines = 4
	// CandidateExtraLines is the (line+space) padding of the candidate
	// staff box, split evenly above and below the staff.
	CandidateExtraLines = 4
	// RejectionLines bounds the vertical distance, in (line+space) units,
	// between a glyph center and its staff center line.
	RejectionLines = 5
)

// Model holds the sizing constants derived once from a staff's line
// thickness and spacing. It is immutable after construction.
type Model struct {
	StaffHeight int // H, line thickness
	StaffSpace  int // S, inter-line spacing
	StaffLength int // L, model columns
	Col, Row    int // page origin of the model

	KernelWidth     int // S + 3H
	KernelHeight    int // 11H + 10S
	Stride          int // round(KernelWidth * StrideRatio)
	StridesPerStaff int // L / Stride
	BoundaryExtra   int // 4(H+S)
	Divisions       int // floor(L / KernelWidth)
	StaffThickness  int // 5H + 4S
	CandidateExtra  int // 4(H+S), total padding of candidate boxes
}

// NewModel derives the model constants from a validated geometry record.
func NewModel(g *Geometry) Model {
	h, s, l := g.StaffHeight, g.StaffSpace, len(g.Gradient)
	m := Model{
		StaffHeight:    h,
		StaffSpace:     s,
		StaffLength:    l,
		Col:            g.Col,
		Row:            g.Row,
		KernelWidth:    s + 3*h,
		KernelHeight:   11*h + 10*s,
		BoundaryExtra:  BoundaryExtraLines * (h + s),
		StaffThickness: 5*h + 4*s,
		CandidateExtra: CandidateExtraLines * (h + s),
	}
	m.Stride = int(math.Round(float64(m.KernelWidth) * StrideRatio))
	if m.Stride > 0 {
		m.StridesPerStaff = l / m.Stride
	}
	m.Divisions = l / m.KernelWidth
	return m
}

// LineUnit returns H+S, the distance from one staff line to the next.
func (m Model) LineUnit() int {
	return m.StaffHeight + m.StaffSpace
}

// CenterLine returns the model row of the middle staff line of a staff
// starting at start.
func (m Model) CenterLine(start int) int {
	return start + 2*m.LineUnit() + m.StaffHeight/2
}

// RejectionRadius is the largest accepted distance between a glyph center
// and its staff center line.
func (m Model) RejectionRadius() int {
	return RejectionLines * m.LineUnit()
}

// DivisionIndex maps a model column to its division, or -1 when the
// column is outside [0, StaffLength) or past the last whole division.
func (m Model) DivisionIndex(x int) int {
	if x < 0 || x >= m.StaffLength {
		return -1
	}
	idx := x * m.Divisions / m.StaffLength
	if idx >= m.Divisions {
		return -1
	}
	return idx
}

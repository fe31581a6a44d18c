package staff

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"omr-sampler/internal/glyph"
	"omr-sampler/pkg/geometry"
)

// testGeometry: H=2, S=10, L=160 gives KernelWidth 16 and 10 divisions.
func testGeometry(starts ...int) *Geometry {
	return &Geometry{
		Filename:    "page.png",
		StaffHeight: 2,
		StaffSpace:  10,
		Col:         5,
		Row:         7,
		Rotation:    HorizontalRotation,
		Gradient:    make([]float64, 160),
		Starts:      starts,
	}
}

func mustScore(t *testing.T, g *Geometry) *Score {
	t.Helper()
	s, err := NewScore(g)
	if err != nil {
		t.Fatalf("NewScore() error = %v", err)
	}
	return s
}

func TestNewModel(t *testing.T) {
	m := NewModel(testGeometry(0))

	checks := []struct {
		name      string
		got, want int
	}{
		{"KernelWidth", m.KernelWidth, 16},
		{"KernelHeight", m.KernelHeight, 122},
		{"Stride", m.Stride, 8},
		{"StridesPerStaff", m.StridesPerStaff, 20},
		{"BoundaryExtra", m.BoundaryExtra, 48},
		{"Divisions", m.Divisions, 10},
		{"StaffThickness", m.StaffThickness, 50},
		{"CandidateExtra", m.CandidateExtra, 48},
		{"CenterLine(0)", m.CenterLine(0), 25},
		{"RejectionRadius", m.RejectionRadius(), 60},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestNewModel_DivisionsFitStaff(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		g := testGeometry(0)
		g.StaffHeight = rng.Intn(6) + 1
		g.StaffSpace = rng.Intn(30) + 1
		g.Gradient = make([]float64, rng.Intn(3000)+1)

		m := NewModel(g)
		if m.Divisions != m.StaffLength/m.KernelWidth {
			t.Fatalf("Divisions = %d, want %d", m.Divisions, m.StaffLength/m.KernelWidth)
		}
		if m.Divisions*m.KernelWidth > m.StaffLength {
			t.Fatalf("Divisions*KernelWidth = %d exceeds staff length %d", m.Divisions*m.KernelWidth, m.StaffLength)
		}
	}
}

func TestNewScore_RejectsUnrectified(t *testing.T) {
	g := testGeometry(0)
	g.Gradient[42] = 0.25
	if _, err := NewScore(g); !errors.Is(err, ErrGeometry) {
		t.Errorf("NewScore() error = %v, want ErrGeometry", err)
	}
}

func TestScore_Boxes(t *testing.T) {
	s := mustScore(t, testGeometry(100, 300))

	if got, want := s.Staves[1].Box, geometry.NewBBox(5, 165, 307, 357); got != want {
		t.Errorf("Staves[1].Box = %v, want %v", got, want)
	}

	// ymin = start + row - (KernelHeight - StaffThickness)/2 = 100 + 7 - 36
	if got, want := s.DivisionBox(0, 3), geometry.NewBBox(53, 69, 71, 193); got != want {
		t.Errorf("DivisionBox(0, 3) = %v, want %v", got, want)
	}

	if got, want := s.CandidateBox(0), geometry.NewBBox(5, 165, 83, 181); got != want {
		t.Errorf("CandidateBox(0) = %v, want %v", got, want)
	}
}

func TestScore_DivisionBoxIsPure(t *testing.T) {
	s := mustScore(t, testGeometry(100, 300))
	first := s.DivisionBox(1, 7)
	_ = s.DivisionBox(0, 2)
	if second := s.DivisionBox(1, 7); first != second {
		t.Errorf("DivisionBox(1, 7) = %v then %v", first, second)
	}
}

func TestScore_LocalRoundTrip(t *testing.T) {
	s := mustScore(t, testGeometry(100, 300))
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		x, y := rng.Intn(400), rng.Intn(600)
		box := geometry.NewBBox(x, x+rng.Intn(40)+1, y, y+rng.Intn(40)+1)
		staffIdx := rng.Intn(2)
		if got := s.ToLocal(staffIdx, s.ToPage(staffIdx, box)); got != box {
			t.Fatalf("ToLocal(ToPage(%v)) = %v", box, got)
		}
		if got := s.ToPage(staffIdx, s.ToLocal(staffIdx, box)); got != box {
			t.Fatalf("ToPage(ToLocal(%v)) = %v", box, got)
		}
	}
}

// glyphAt builds a 4x4 glyph whose page center is (x, y).
func glyphAt(name string, x, y int) glyph.Glyph {
	return glyph.New(name, geometry.NewBBox(x-2, x+2, y-2, y+2))
}

func TestScore_PositionGlyphs(t *testing.T) {
	s := mustScore(t, testGeometry(100, 300))
	content := glyph.Content{"gClef": 1000, "rare": 3}

	// staff 0 center line in page rows: 100 + 25 + 7 = 132
	glyphs := []glyph.Glyph{
		// staff 0, division 3
		glyphAt("gClef", 5+3*16+8, 132),
		// staff 1, division 9
		glyphAt("gClef", 5+9*16+1, 332),
		// below min occurrences, then not in content
		glyphAt("rare", 5+8, 132),
		glyphAt("unknown", 5+8, 132),
		// past the staff end, then left of the model origin
		glyphAt("gClef", 5+160+3, 132),
		glyphAt("gClef", 2, 132),
		// too far from both staves
		glyphAt("gClef", 5+8, 132+61+200),
	}

	a, err := s.PositionGlyphs(glyphs, content, 200)
	if err != nil {
		t.Fatalf("PositionGlyphs() error = %v", err)
	}
	want := Assignment{Assigned: 2, Rare: 2, OutsideHorizontal: 2, OutsideVertical: 1}
	if a != want {
		t.Errorf("PositionGlyphs() = %+v, want %+v", a, want)
	}
	if n := len(s.Staves[0].Division(3)); n != 1 {
		t.Errorf("len(staff 0 division 3) = %d, want 1", n)
	}
	if n := len(s.Staves[1].Division(9)); n != 1 {
		t.Errorf("len(staff 1 division 9) = %d, want 1", n)
	}

	local := s.Staves[1].Glyphs()
	if len(local) != 1 {
		t.Fatalf("len(Glyphs()) = %d, want 1", len(local))
	}
	if got := s.ToPage(1, local[0].Box); got != glyphs[1].Box {
		t.Errorf("ToPage(local) = %v, want %v", got, glyphs[1].Box)
	}
}

func TestScore_PositionGlyphs_Idempotent(t *testing.T) {
	s := mustScore(t, testGeometry(100))
	content := glyph.Content{"gClef": 1000}
	glyphs := []glyph.Glyph{glyphAt("gClef", 5+3*16+8, 132)}

	for i := 0; i < 2; i++ {
		if _, err := s.PositionGlyphs(glyphs, content, 200); err != nil {
			t.Fatalf("PositionGlyphs() error = %v", err)
		}
	}
	if n := len(s.Staves[0].Division(3)); n != 1 {
		t.Errorf("len(Division(3)) after two calls = %d, want 1", n)
	}
	if n := len(s.Staves[0].Glyphs()); n != 1 {
		t.Errorf("len(Glyphs()) after two calls = %d, want 1", n)
	}
}

func TestScore_PositionGlyphs_FarGlyphsDropped(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	content := glyph.Content{"gClef": 1000}
	for i := 0; i < 200; i++ {
		starts := make([]int, rng.Intn(4)+1)
		next := rng.Intn(50)
		for j := range starts {
			starts[j] = next
			next += 150 + rng.Intn(200)
		}
		s := mustScore(t, testGeometry(starts...))
		m := s.Model

		// pick a row farther than the rejection radius from every center line
		y := m.CenterLine(starts[len(starts)-1]) + m.RejectionRadius() + 1 + rng.Intn(100)
		g := glyphAt("gClef", m.Col+8, y+m.Row)

		a, err := s.PositionGlyphs([]glyph.Glyph{g}, content, 1)
		if err != nil {
			t.Fatalf("PositionGlyphs() error = %v", err)
		}
		if a.Assigned != 0 {
			t.Fatalf("glyph at row %d assigned with starts %v", y, starts)
		}
	}
}

func TestScore_PositionGlyphs_TieGoesToFirstStaff(t *testing.T) {
	// center lines at model rows 25 and 75; row 50 is equidistant
	s := mustScore(t, testGeometry(0, 50))
	g := glyphAt("gClef", 5+8, 50+7)
	if _, err := s.PositionGlyphs([]glyph.Glyph{g}, glyph.Content{"gClef": 1}, 1); err != nil {
		t.Fatalf("PositionGlyphs() error = %v", err)
	}
	if len(s.Staves[0].Division(0)) != 1 || len(s.Staves[1].Division(0)) != 0 {
		t.Error("tied glyph was not assigned to the first staff")
	}
}

func TestScore_PositionGlyphs_ReservedName(t *testing.T) {
	s := mustScore(t, testGeometry(100))
	_, err := s.PositionGlyphs([]glyph.Glyph{glyphAt("None", 20, 132)}, glyph.Content{"None": 500}, 1)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("PositionGlyphs() error = %v, want ErrFormat", err)
	}
}

func TestScore_StaffImage(t *testing.T) {
	s := mustScore(t, testGeometry(0, 300))
	page := image.NewGray(image.Rect(0, 0, 200, 400))

	img, clamped := s.StaffImage(page, 1)
	if clamped {
		t.Error("StaffImage(1) clamped, want exact crop")
	}
	if got, want := img.Bounds(), s.CandidateBox(1).Rectangle(); got != want {
		t.Errorf("StaffImage(1).Bounds() = %v, want %v", got, want)
	}

	// staff 0 candidate box starts above row 0
	if _, clamped := s.StaffImage(page, 0); !clamped {
		t.Error("StaffImage(0) not clamped, want clamped")
	}
}

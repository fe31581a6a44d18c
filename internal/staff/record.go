// Package staff derives the staff model of a page from its geometry record,
// assigns annotated glyphs to staves and divisions, and computes the
// division and staff boxes used for sampling.
package staff

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Rectified staff lines are horizontal, which the staff detector records
// as a rotation of pi/2.
const (
	HorizontalRotation = math.Pi / 2
	RotationTolerance  = 0.1
)

// RootTags lists the accepted root elements of a geometry record.
var RootTags = []string{"AutoScore", "stav"}

// Geometry is the staff geometry record of one page.
type Geometry struct {
	Filename    string
	StaffHeight int       // staff line thickness
	StaffSpace  int       // distance between two staff lines
	Col, Row    int       // page origin of the staff model
	Rotation    float64   // radians
	Gradient    []float64 // one entry per model column
	Starts      []int     // staff start rows, relative to Row
}

// node is a generic element; the record is positional, so children are
// mapped onto named fields after decoding.
type node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

// LoadGeometry reads and validates a geometry record from disk.
func LoadGeometry(path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geometry record: %w", err)
	}
	defer f.Close()

	g, err := ParseGeometry(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseGeometry decodes a geometry record and validates it.
//
// Layout: root[0] filename; root[1] model (staff height, staff space,
// column, row, rotation, gradient); root[2] staff start rows.
func ParseGeometry(r io.Reader) (*Geometry, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("invalid XML: %v", err)}
	}
	if !acceptedRoot(root.XMLName.Local) {
		return nil, formatErrorf("root", "unexpected tag %q", root.XMLName.Local)
	}
	if len(root.Nodes) < 3 {
		return nil, formatErrorf("root", "expected filename, model and staffs, got %d children", len(root.Nodes))
	}

	g := &Geometry{Filename: strings.TrimSpace(root.Nodes[0].Text)}
	if g.Filename == "" {
		return nil, formatErrorf("filename", "empty")
	}

	model := root.Nodes[1].Nodes
	if len(model) < 6 {
		return nil, formatErrorf("model", "expected 6 fields, got %d", len(model))
	}

	var err error
	if g.StaffHeight, err = intField("model.staff_height", model[0]); err != nil {
		return nil, err
	}
	if g.StaffSpace, err = intField("model.staff_space", model[1]); err != nil {
		return nil, err
	}
	if g.Col, err = intField("model.column", model[2]); err != nil {
		return nil, err
	}
	if g.Row, err = intField("model.row", model[3]); err != nil {
		return nil, err
	}
	if g.Rotation, err = floatField("model.rotation", model[4]); err != nil {
		return nil, err
	}
	for i, tok := range strings.Fields(model[5].Text) {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, formatErrorf(fmt.Sprintf("model.gradient[%d]", i), "not a number: %q", tok)
		}
		g.Gradient = append(g.Gradient, v)
	}

	for i, n := range root.Nodes[2].Nodes {
		start, err := intField(fmt.Sprintf("staffs[%d]", i), n)
		if err != nil {
			return nil, err
		}
		g.Starts = append(g.Starts, start)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the preconditions of the sampling engine: positive line
// metrics, a non-empty model, horizontal rotation and a zero gradient.
func (g *Geometry) Validate() error {
	if g.StaffHeight <= 0 {
		return formatErrorf("model.staff_height", "must be positive, got %d", g.StaffHeight)
	}
	if g.StaffSpace <= 0 {
		return formatErrorf("model.staff_space", "must be positive, got %d", g.StaffSpace)
	}
	if len(g.Gradient) == 0 {
		return formatErrorf("model.gradient", "empty staff model")
	}
	if math.Abs(g.Rotation-HorizontalRotation) > RotationTolerance {
		return &GeometryError{Reason: fmt.Sprintf("staff lines must be straight, rotation %.4f", g.Rotation)}
	}
	if n := floats.Count(func(v float64) bool { return v != 0 }, g.Gradient); n > 0 {
		return &GeometryError{Reason: fmt.Sprintf("staff model must be rectified, %d non-zero gradients", n)}
	}
	return nil
}

func acceptedRoot(tag string) bool {
	for _, t := range RootTags {
		if t == tag {
			return true
		}
	}
	return false
}

func intField(field string, n node) (int, error) {
	s := strings.TrimSpace(n.Text)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, formatErrorf(field, "not an integer: %q", s)
	}
	return v, nil
}

func floatField(field string, n node) (float64, error) {
	s := strings.TrimSpace(n.Text)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, formatErrorf(field, "not a number: %q", s)
	}
	return v, nil
}

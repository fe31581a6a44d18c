package groundtruth

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"omr-sampler/internal/glyph"
	"omr-sampler/internal/staff"
	"omr-sampler/pkg/geometry"
)

// Kind names a ground-truth format.
type Kind string

const (
	DeepScores Kind = "deepscores"
	Muscima    Kind = "muscima"
)

// ParseKind validates a dataset kind from configuration.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case DeepScores, Muscima:
		return k, nil
	default:
		return "", fmt.Errorf("unknown dataset kind %q", s)
	}
}

// Path returns the ground-truth file for a page image: the image's path,
// relative to the image directory, with an .xml extension, inside dir.
// Subdirectories are kept so same-named pages of different writers do not
// collide.
func Path(dir, imageFilename string) string {
	return filepath.Join(dir, strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename))+".xml")
}

// ReadFile reads the glyphs of one page.
func ReadFile(kind Kind, path string) ([]glyph.Glyph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ground truth: %w", err)
	}
	defer f.Close()

	var glyphs []glyph.Glyph
	switch kind {
	case DeepScores:
		glyphs, err = ReadDeepScores(f)
	case Muscima:
		glyphs, err = ReadMuscima(f)
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return glyphs, nil
}

type element struct {
	XMLName xml.Name
	Text    string    `xml:",chardata"`
	Nodes   []element `xml:",any"`
}

func (e element) child(tag string) (element, bool) {
	for _, n := range e.Nodes {
		if n.XMLName.Local == tag {
			return n, true
		}
	}
	return element{}, false
}

func decodeRoot(r io.Reader, tag string) (element, error) {
	var root element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return root, &staff.FormatError{Reason: fmt.Sprintf("invalid XML: %v", err)}
	}
	if root.XMLName.Local != tag {
		return root, &staff.FormatError{Field: "root", Reason: fmt.Sprintf("expected %q, got %q", tag, root.XMLName.Local)}
	}
	return root, nil
}

func intValue(field string, e element, tag string) (int, error) {
	n, ok := e.child(tag)
	if !ok {
		return 0, &staff.FormatError{Field: field + "." + tag, Reason: "missing"}
	}
	s := strings.TrimSpace(n.Text)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &staff.FormatError{Field: field + "." + tag, Reason: fmt.Sprintf("not an integer: %q", s)}
	}
	return v, nil
}

func floatValue(field string, e element, tag string) (float64, error) {
	n, ok := e.child(tag)
	if !ok {
		return 0, &staff.FormatError{Field: field + "." + tag, Reason: "missing"}
	}
	s := strings.TrimSpace(n.Text)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &staff.FormatError{Field: field + "." + tag, Reason: fmt.Sprintf("not a number: %q", s)}
	}
	return v, nil
}

// ReadDeepScores reads a DeepScores annotation. The page size must come
// before the first object; object boxes are fractions of it and are
// truncated to pixels.
func ReadDeepScores(r io.Reader) ([]glyph.Glyph, error) {
	root, err := decodeRoot(r, "annotation")
	if err != nil {
		return nil, err
	}

	var width, height int
	var glyphs []glyph.Glyph
	for _, n := range root.Nodes {
		switch n.XMLName.Local {
		case "size":
			if width, err = intValue("size", n, "width"); err != nil {
				return nil, err
			}
			if height, err = intValue("size", n, "height"); err != nil {
				return nil, err
			}
		case "object":
			field := fmt.Sprintf("object[%d]", len(glyphs))
			if width <= 0 || height <= 0 {
				return nil, &staff.FormatError{Field: field, Reason: "page size must precede objects"}
			}
			g, err := deepScoresObject(field, n, width, height)
			if err != nil {
				return nil, err
			}
			glyphs = append(glyphs, g)
		}
	}
	return glyphs, nil
}

func deepScoresObject(field string, n element, width, height int) (glyph.Glyph, error) {
	name, ok := n.child("name")
	if !ok || strings.TrimSpace(name.Text) == "" {
		return glyph.Glyph{}, &staff.FormatError{Field: field + ".name", Reason: "missing"}
	}
	box, ok := n.child("bndbox")
	if !ok {
		return glyph.Glyph{}, &staff.FormatError{Field: field + ".bndbox", Reason: "missing"}
	}

	var v [4]float64
	for i, tag := range []string{"xmin", "xmax", "ymin", "ymax"} {
		f, err := floatValue(field+".bndbox", box, tag)
		if err != nil {
			return glyph.Glyph{}, err
		}
		v[i] = f
	}
	return glyph.New(strings.TrimSpace(name.Text), geometry.NewBBox(
		int(float64(width)*v[0]), int(float64(width)*v[1]),
		int(float64(height)*v[2]), int(float64(height)*v[3]),
	)), nil
}

// ReadMuscima reads a MUSCIMA++ crop object list.
func ReadMuscima(r io.Reader) ([]glyph.Glyph, error) {
	root, err := decodeRoot(r, "CropObjectList")
	if err != nil {
		return nil, err
	}
	objects, ok := root.child("CropObjects")
	if !ok {
		return nil, &staff.FormatError{Field: "CropObjects", Reason: "missing"}
	}

	glyphs := make([]glyph.Glyph, 0, len(objects.Nodes))
	for i, n := range objects.Nodes {
		if n.XMLName.Local != "CropObject" {
			continue
		}
		field := fmt.Sprintf("CropObject[%d]", i)
		name, ok := n.child("ClassName")
		if !ok || strings.TrimSpace(name.Text) == "" {
			return nil, &staff.FormatError{Field: field + ".ClassName", Reason: "missing"}
		}

		var v [4]int
		for j, tag := range []string{"Top", "Left", "Width", "Height"} {
			if v[j], err = intValue(field, n, tag); err != nil {
				return nil, err
			}
		}
		top, left, w, h := v[0], v[1], v[2], v[3]
		glyphs = append(glyphs, glyph.New(strings.TrimSpace(name.Text), geometry.NewBBox(left, left+w, top, top+h)))
	}
	return glyphs, nil
}

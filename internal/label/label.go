// Package label defines the outcome of labelling one division and the
// per-dataset vocabulary that maps raw annotation names onto canonical
// class names.
package label

import "omr-sampler/internal/glyph"

// Outcome tags how a division was labelled.
type Outcome int

const (
	// NoMatch means no glyph survived the overlap test.
	NoMatch Outcome = iota
	// Other means the winning glyph is outside the vocabulary.
	Other
	// Named means the winning glyph maps to a canonical class.
	Named
)

func (o Outcome) String() string {
	switch o {
	case NoMatch:
		return "NoMatch"
	case Other:
		return "Other"
	case Named:
		return "Named"
	default:
		return "Unknown"
	}
}

// Label is the class assigned to a sample.
type Label struct {
	Outcome Outcome
	Name    string // canonical class, set only for Named
}

var (
	// None is the label of divisions without a glyph.
	None = Label{Outcome: NoMatch}
	// Unlisted is the label of glyphs outside the vocabulary.
	Unlisted = Label{Outcome: Other}
)

// Of returns the Named label for a canonical class.
func Of(name string) Label {
	return Label{Outcome: Named, Name: name}
}

// String returns the directory-safe class name: "None", "Other" or the
// canonical class.
func (l Label) String() string {
	switch l.Outcome {
	case NoMatch:
		return glyph.NoneName
	case Other:
		return glyph.OtherName
	default:
		return l.Name
	}
}

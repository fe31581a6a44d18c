// Package sample turns positioned glyphs into labelled training samples,
// one per division of every staff.
package sample

import (
	"image"
	"log/slog"

	"omr-sampler/internal/glyph"
	"omr-sampler/internal/label"
	"omr-sampler/internal/staff"
	"omr-sampler/pkg/geometry"
)

const (
	// Epsilon keeps the overlap ratio finite for zero-area glyph boxes.
	Epsilon = 1e-7
	// DefaultAreaOverlapThreshold is the minimum share of a glyph's area
	// that must fall inside a division.
	DefaultAreaOverlapThreshold = 0.8
)

// Sample is one (crop, label) pair.
type Sample struct {
	Staff    int
	Division int
	Box      geometry.BBox // requested page box
	Image    *image.Gray   // crop of Box clamped to the page, shares pixels with the page
	Label    label.Label
	Glyph    *glyph.Glyph // winning glyph, nil for label.None
	Clamped  bool         // Box reached past the page bounds
}

// Extractor labels divisions. Content must not change while Extract runs.
type Extractor struct {
	Content              glyph.Content
	Vocabulary           *label.Vocabulary // nil labels every glyph by its raw name
	AreaOverlapThreshold float64
}

// NewExtractor creates an Extractor with the default overlap threshold.
func NewExtractor(content glyph.Content, vocab *label.Vocabulary) *Extractor {
	return &Extractor{
		Content:              content,
		Vocabulary:           vocab,
		AreaOverlapThreshold: DefaultAreaOverlapThreshold,
	}
}

// Extract returns one sample per division of every staff, staff-major, so
// len(result) == score.Model.Divisions * score.Len(). Divisions without a
// glyph are labelled label.None; they are not filtered out.
func (e *Extractor) Extract(img *image.Gray, score *staff.Score) []Sample {
	samples := make([]Sample, 0, score.Model.Divisions*score.Len())
	clamped := 0
	for staffIdx := range score.Staves {
		for div := 0; div < score.Model.Divisions; div++ {
			box := score.DivisionBox(staffIdx, div)
			lbl, winner := e.Resolve(score, staffIdx, div)
			crop, c := Crop(img, box)
			if c {
				clamped++
			}
			samples = append(samples, Sample{
				Staff:    staffIdx,
				Division: div,
				Box:      box,
				Image:    crop,
				Label:    lbl,
				Glyph:    winner,
				Clamped:  c,
			})
		}
	}
	if clamped > 0 {
		slog.Warn("division crops clamped to page bounds", "page", score.Filename, "count", clamped)
	}
	return samples
}

// Resolve labels one division without touching pixels.
//
// Glyphs whose overlap with the division covers less than
// AreaOverlapThreshold of their own area are ignored. Among the rest the
// glyph with the highest dataset count wins; ties keep the first one.
func (e *Extractor) Resolve(score *staff.Score, staffIdx, div int) (label.Label, *glyph.Glyph) {
	box := score.DivisionBox(staffIdx, div)

	var winner *glyph.Glyph
	best := -1
	for _, g := range score.Staves[staffIdx].Division(div) {
		overlap := geometry.OverlapArea(box, g.Box)
		ratio := float64(overlap) / (float64(g.Box.Area()) + Epsilon)
		if ratio < e.AreaOverlapThreshold {
			slog.Debug("glyph rejected from division", "page", score.Filename,
				"staff", staffIdx, "division", div, "glyph", g.Name, "ratio", ratio)
			continue
		}
		if poll := e.Content[g.Name]; poll > best {
			best = poll
			g := g
			winner = &g
		}
	}

	if winner == nil {
		return label.None, nil
	}
	if e.Vocabulary == nil {
		return label.Of(winner.Name), winner
	}
	return e.Vocabulary.Resolve(winner.Name), winner
}

// Crop returns the part of box inside the image and whether it had to be
// clamped. A box entirely outside the image yields an empty crop.
func Crop(img *image.Gray, box geometry.BBox) (*image.Gray, bool) {
	clampedBox, clamped := box.Clamp(geometry.FromRectangle(img.Bounds()))
	return img.SubImage(clampedBox.Rectangle()).(*image.Gray), clamped
}

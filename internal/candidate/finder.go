package candidate

import (
	"fmt"
	"image"

	"omr-sampler/internal/staff"
	"omr-sampler/pkg/geometry"
)

// Finder locates candidate symbols on staff images cropped with
// staff.Score.StaffImage. Boxes are relative to the staff image.
type Finder struct {
	Params    Params
	Thickness int // expected staff image height
}

// NewFinder creates a Finder for the staves of score.
func NewFinder(score *staff.Score, p Params) *Finder {
	return &Finder{
		Params:    p,
		Thickness: score.Model.StaffThickness + score.Model.CandidateExtra,
	}
}

// ColumnCounts returns the number of ink pixels (value 0) in each column.
func ColumnCounts(img *image.Gray) []int {
	b := img.Bounds()
	counts := make([]int, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := range counts {
			if row[x] == 0 {
				counts[x]++
			}
		}
	}
	return counts
}

// ColumnProfile flags columns with more than minInk ink pixels.
func ColumnProfile(img *image.Gray, minInk int) []bool {
	counts := ColumnCounts(img)
	profile := make([]bool, len(counts))
	for i, c := range counts {
		profile[i] = c > minInk
	}
	return profile
}

// InkCount returns the number of ink pixels inside box, given in
// image-relative coordinates and clamped to the image.
func InkCount(img *image.Gray, box geometry.BBox) int {
	b := img.Bounds()
	box, _ = box.Clamp(geometry.NewBBox(0, b.Dx(), 0, b.Dy()))
	n := 0
	for y := box.YMin; y < box.YMax; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := box.XMin; x < box.XMax; x++ {
			if row[x] == 0 {
				n++
			}
		}
	}
	return n
}

// Regions returns full-height boxes over the runs of inked columns, merged
// and width-filtered as configured.
func (f *Finder) Regions(staffImg *image.Gray) ([]geometry.BBox, error) {
	height := staffImg.Bounds().Dy()
	if height != f.Thickness {
		return nil, &staff.FormatError{
			Field:  "staff image",
			Reason: fmt.Sprintf("height %d does not match staff thickness %d", height, f.Thickness),
		}
	}

	runs := Runs(ColumnProfile(staffImg, f.Params.StepThreshold))
	if f.Params.Merge {
		runs = Merge(runs, f.Params.MergeGap)
	}
	if f.Params.ThinFilter {
		runs = FilterWidth(runs, f.Params.MinWidth)
	}

	boxes := make([]geometry.BBox, 0, len(runs))
	for _, r := range runs {
		boxes = append(boxes, r.Box(height))
	}
	return boxes, nil
}

// Windows tiles a region with KernelSize square windows every Step pixels,
// starting one step before the region. Windows with a negative origin are
// dropped.
func (f *Finder) Windows(region geometry.BBox) []geometry.BBox {
	step, size := f.Params.Step, f.Params.KernelSize
	nx := (region.Width() + 2*step) / step
	ny := (region.Height() + 2*step) / step
	x0, y0 := region.XMin-step, region.YMin-step

	var windows []geometry.BBox
	for i := 0; i < nx; i++ {
		x := x0 + i*step
		for j := 0; j < ny; j++ {
			y := y0 + j*step
			if x < 0 || y < 0 {
				continue
			}
			windows = append(windows, geometry.NewBBox(x, x+size, y, y+size))
		}
	}
	return windows
}

// Glyphs returns the windows of every region holding more than
// KernelThreshold ink pixels.
func (f *Finder) Glyphs(staffImg *image.Gray, regions []geometry.BBox) []geometry.BBox {
	var found []geometry.BBox
	for _, region := range regions {
		for _, w := range f.Windows(region) {
			if InkCount(staffImg, w) > f.Params.KernelThreshold {
				found = append(found, w)
			}
		}
	}
	return found
}

// Find runs Regions then Glyphs.
func (f *Finder) Find(staffImg *image.Gray) ([]geometry.BBox, error) {
	regions, err := f.Regions(staffImg)
	if err != nil {
		return nil, err
	}
	return f.Glyphs(staffImg, regions), nil
}

package candidate

// Params holds the candidate finder thresholds. They are derived from the
// staff metrics by DefaultParams and can be tuned with the With* methods.
type Params struct {
	StaffHeight int
	StaffSpace  int

	// KernelSize is the side of the square window around a candidate.
	KernelSize int
	// Step is the window stride.
	Step int
	// StepThreshold is the ink count above which a column is flagged.
	StepThreshold int
	// KernelThreshold is the ink count above which a window is kept.
	KernelThreshold int

	// Merge joins flagged runs closer than MergeGap.
	Merge    bool
	MergeGap int
	// ThinFilter drops runs narrower than MinWidth.
	ThinFilter bool
	MinWidth   int

	// StaffLinesRemoved lowers the thresholds for images whose staff
	// lines were erased beforehand.
	StaffLinesRemoved bool
}

// DefaultParams returns the thresholds for a staff with line thickness h
// and spacing s, assuming staff lines were removed from the image.
func DefaultParams(h, s int) Params {
	p := Params{StaffHeight: h, StaffSpace: s, Merge: true, ThinFilter: true}
	return p.WithStaffLinesRemoved(true)
}

// WithStaffLinesRemoved returns a copy with thresholds recomputed for
// images with (false) or without (true) staff lines.
func (p Params) WithStaffLinesRemoved(removed bool) Params {
	h, s := p.StaffHeight, p.StaffSpace
	p.StaffLinesRemoved = removed
	p.KernelSize = s + 2*h
	p.Step = max(1, p.KernelSize/4)

	// Five staff lines add 5h ink to every column and h per line row of
	// a window.
	p.StepThreshold = 7 * h
	p.KernelThreshold = 2 * p.KernelSize * h
	if removed {
		p.StepThreshold -= 5 * h
		p.KernelThreshold -= p.KernelSize * h
	}

	p.MergeGap = p.KernelSize / 2
	p.MinWidth = p.KernelSize
	return p
}

// WithMerge returns a copy with run merging enabled or disabled.
func (p Params) WithMerge(merge bool) Params {
	p.Merge = merge
	return p
}

// WithThinFilter returns a copy with the width filter enabled or disabled.
func (p Params) WithThinFilter(filter bool) Params {
	p.ThinFilter = filter
	return p
}

// WithThresholds returns a copy with custom column and window thresholds.
// Zero values keep the current thresholds.
func (p Params) WithThresholds(step, kernel int) Params {
	if step > 0 {
		p.StepThreshold = step
	}
	if kernel > 0 {
		p.KernelThreshold = kernel
	}
	return p
}

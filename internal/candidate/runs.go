// Package candidate finds unlabelled symbol candidates on a binarized staff
// image from its column ink profile, without consulting ground truth.
package candidate

import (
	"slices"

	"omr-sampler/pkg/geometry"
)

// Run is a maximal range of true values in a profile. End is inclusive.
type Run struct {
	Start int
	End   int
}

// Width returns the number of positions covered by the run.
func (r Run) Width() int {
	return r.End - r.Start + 1
}

// Box returns the full-height box covering the run's columns.
func (r Run) Box(height int) geometry.BBox {
	return geometry.NewBBox(r.Start, r.End+1, 0, height)
}

// Runs returns the runs of profile from left to right. The scan is bounded
// by len(profile): an all-false or empty profile has no runs, an all-true
// profile has the single run (0, len-1).
func Runs(profile []bool) []Run {
	var runs []Run
	for i := 0; i < len(profile); {
		beg := slices.Index(profile[i:], true)
		if beg < 0 {
			break
		}
		beg += i

		end := slices.Index(profile[beg:], false)
		if end < 0 {
			end = len(profile)
		} else {
			end += beg
		}

		runs = append(runs, Run{Start: beg, End: end - 1})
		i = end
	}
	return runs
}

// Merge joins consecutive runs separated by at most gap positions, measured
// from one run's End to the next run's Start.
func Merge(runs []Run, gap int) []Run {
	if len(runs) == 0 {
		return nil
	}
	merged := make([]Run, 0, len(runs))
	cur := runs[0]
	for _, next := range runs[1:] {
		if next.Start-cur.End <= gap {
			cur.End = next.End
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	return append(merged, cur)
}

// FilterWidth drops runs narrower than minWidth.
func FilterWidth(runs []Run, minWidth int) []Run {
	var kept []Run
	for _, r := range runs {
		if r.Width() >= minWidth {
			kept = append(kept, r)
		}
	}
	return kept
}

// Package groundtruth reads the per-page glyph annotations of the supported
// datasets: DeepScores (synthetic scores, "annotation" files with boxes
// relative to the page size) and MUSCIMA++ (handwritten scores,
// "CropObjectList" files with pixel boxes).
package groundtruth

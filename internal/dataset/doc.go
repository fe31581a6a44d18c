// Package dataset runs a sampling job over a directory of pages.
//
// A job has two phases. Every page's geometry record and ground truth are
// read first and the glyph counts of the whole dataset are tallied into a
// glyph.Content. Only then are pages extracted in parallel, each worker
// owning its page's staff.Score and sharing the content read-only. A page
// that fails in either phase is reported as a Failure and never affects
// the other pages.
package dataset

package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"maps"
	"os"
	"path/filepath"
	"strconv"

	"omr-sampler/internal/sample"
)

// Writer stores samples as <dir>/<label>/<n><ext>, numbering each label
// from 1. It is not safe for concurrent use; Run serialises its calls.
// A zero Ext means ".png" and a nil Encode writes PNG.
type Writer struct {
	Dir    string
	Ext    string
	Encode func(*image.Gray) ([]byte, error)
	// SkipEmpty drops samples whose crop is empty (fully off the page).
	SkipEmpty bool

	counts map[string]int
}

// NewWriter creates a Writer saving PNG files. The extract command sets
// Encode to opencv.Encode.
func NewWriter(dir string) *Writer {
	return &Writer{
		Dir:       dir,
		Ext:       ".png",
		Encode:    encodePNG,
		SkipEmpty: true,
		counts:    make(map[string]int),
	}
}

// Prepare creates one directory per label class up front, so classes
// without samples still appear in the output.
func (w *Writer) Prepare(classes []string) error {
	for _, class := range classes {
		if err := os.MkdirAll(filepath.Join(w.Dir, class), 0o755); err != nil {
			return fmt.Errorf("failed to create label directory: %w", err)
		}
	}
	return nil
}

// WritePage implements Sink. A page is written completely or not at all:
// when a sample fails, the page's files written so far are removed and the
// label counters restored.
func (w *Writer) WritePage(filename string, samples []sample.Sample) error {
	type written struct{ label, path string }
	var done []written

	for _, s := range samples {
		if w.SkipEmpty && s.Image.Bounds().Empty() {
			continue
		}
		path, err := w.Write(s)
		if err != nil {
			err = fmt.Errorf("%s staff %d division %d: %w", filename, s.Staff, s.Division, err)
			for i := len(done) - 1; i >= 0; i-- {
				if rmErr := os.Remove(done[i].path); rmErr != nil {
					err = errors.Join(err, fmt.Errorf("failed to roll back sample: %w", rmErr))
					continue
				}
				w.uncount(done[i].label)
			}
			return err
		}
		done = append(done, written{label: s.Label.String(), path: path})
	}
	return nil
}

// Write stores one sample and returns its path.
func (w *Writer) Write(s sample.Sample) (string, error) {
	if w.counts == nil {
		w.counts = make(map[string]int)
	}
	encode, ext := w.Encode, w.Ext
	if encode == nil {
		encode = encodePNG
	}
	if ext == "" {
		ext = ".png"
	}

	name := s.Label.String()
	dir := filepath.Join(w.Dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create label directory: %w", err)
	}

	data, err := encode(s.Image)
	if err != nil {
		return "", fmt.Errorf("failed to encode sample: %w", err)
	}

	w.counts[name]++
	path := filepath.Join(dir, strconv.Itoa(w.counts[name])+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.uncount(name)
		return "", fmt.Errorf("failed to write sample: %w", err)
	}
	return path, nil
}

func (w *Writer) uncount(name string) {
	w.counts[name]--
	if w.counts[name] <= 0 {
		delete(w.counts, name)
	}
}

// Counts returns the number of samples written per label.
func (w *Writer) Counts() map[string]int {
	out := maps.Clone(w.counts)
	if out == nil {
		out = make(map[string]int)
	}
	return out
}

func encodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

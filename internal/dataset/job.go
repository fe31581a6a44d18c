package dataset

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"omr-sampler/internal/candidate"
	"omr-sampler/internal/glyph"
	"omr-sampler/internal/groundtruth"
	omrimage "omr-sampler/internal/image"
	"omr-sampler/internal/label"
	"omr-sampler/internal/sample"
	"omr-sampler/internal/staff"
)

// CandidateDivision marks samples produced by the candidate finder rather
// than by a staff division.
const CandidateDivision = -1

// Failure is a page that could not be processed.
type Failure struct {
	Filename string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Filename, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Sink receives the samples of one page. Run never calls it concurrently.
type Sink interface {
	WritePage(filename string, samples []sample.Sample) error
}

// Options configures a job.
type Options struct {
	Kind           groundtruth.Kind
	ImageDir       string
	GroundTruthDir string

	MinOccurrences       int
	AreaOverlapThreshold float64
	Vocabulary           *label.Vocabulary
	Workers              int

	// LoadImage reads a page; nil uses image.Load.
	LoadImage func(path string) (*image.Gray, error)
	// Binarize, when set, is applied to every page after loading.
	Binarize func(*image.Gray) (*image.Gray, error)
	// CandidateParams, when set, also samples the candidate finder's
	// windows of every staff.
	CandidateParams func(h, s int) candidate.Params
}

// Page is a page whose geometry and ground truth were read.
type Page struct {
	Score  *staff.Score
	Glyphs []glyph.Glyph
	Source string // geometry record path
}

// Result summarises a job.
type Result struct {
	Pages      int
	Samples    int
	Labels     map[string]int
	Assignment staff.Assignment
	Failures   []Failure
	// Content is the dataset-wide glyph tally the labels were decided on.
	Content glyph.Content
	// Unseen lists the vocabulary's raw names that no page annotates.
	Unseen []string
}

// ListGeometry returns the sorted geometry records (*.xml) of dir.
func ListGeometry(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list geometry records: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}

// ReadPages reads the geometry record and ground truth of every page.
// Pages keep the order of geometryPaths; unreadable ones become failures.
func ReadPages(ctx context.Context, geometryPaths []string, opts Options) ([]*Page, []Failure) {
	pages := make([]*Page, len(geometryPaths))
	errs := make([]error, len(geometryPaths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(opts))
	for i, path := range geometryPaths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			pages[i], errs[i] = readPage(path, opts)
			return nil
		})
	}
	_ = g.Wait()

	var kept []*Page
	var failures []Failure
	for i, p := range pages {
		if errs[i] != nil {
			slog.Error("failed to read page", "page", geometryPaths[i], "error", errs[i])
			failures = append(failures, Failure{Filename: geometryPaths[i], Err: errs[i]})
			continue
		}
		kept = append(kept, p)
	}
	return kept, failures
}

func readPage(path string, opts Options) (*Page, error) {
	score, err := staff.Load(path)
	if err != nil {
		return nil, err
	}
	if !omrimage.IsSupportedFormat(score.Filename) {
		return nil, &staff.FormatError{
			Field:  "filename",
			Reason: fmt.Sprintf("unsupported image format %q", filepath.Ext(score.Filename)),
		}
	}
	glyphs, err := groundtruth.ReadFile(opts.Kind, groundtruth.Path(opts.GroundTruthDir, score.Filename))
	if err != nil {
		return nil, err
	}
	return &Page{Score: score, Glyphs: glyphs, Source: path}, nil
}

// BuildContent tallies the glyphs of every page. It must complete before
// extraction starts; the result is shared read-only by all workers.
func BuildContent(pages []*Page) glyph.Content {
	all := make([][]glyph.Glyph, len(pages))
	for i, p := range pages {
		all[i] = p.Glyphs
	}
	return glyph.Tally(all...)
}

// Run reads all pages, builds the dataset content and extracts every page
// into sink. Page failures are collected in page order; the returned error
// is only set when ctx is cancelled.
func Run(ctx context.Context, geometryPaths []string, opts Options, sink Sink) (*Result, error) {
	pages, failures := ReadPages(ctx, geometryPaths, opts)
	content := BuildContent(pages)
	slog.Info("dataset content", "pages", len(pages), "glyph_types", len(content))
	unseen := Unseen(content, opts.Vocabulary)
	if len(unseen) > 0 {
		slog.Warn("vocabulary names never annotated", "names", unseen)
	}

	extractor := sample.NewExtractor(content, opts.Vocabulary)
	if opts.AreaOverlapThreshold > 0 {
		extractor.AreaOverlapThreshold = opts.AreaOverlapThreshold
	}

	res := &Result{Labels: make(map[string]int), Content: content, Unseen: unseen}
	errs := make([]error, len(pages))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(opts))
	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			samples, a, err := extractPage(p, content, extractor, opts)
			if err != nil {
				errs[i] = err
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if err := sink.WritePage(p.Score.Filename, samples); err != nil {
				errs[i] = fmt.Errorf("failed to write samples: %w", err)
				return nil
			}
			res.Pages++
			res.Samples += len(samples)
			for _, s := range samples {
				res.Labels[s.Label.String()]++
			}
			res.Assignment.Assigned += a.Assigned
			res.Assignment.Rare += a.Rare
			res.Assignment.OutsideHorizontal += a.OutsideHorizontal
			res.Assignment.OutsideVertical += a.OutsideVertical
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			slog.Error("failed to extract page", "page", pages[i].Source, "error", err)
			failures = append(failures, Failure{Filename: pages[i].Source, Err: err})
		}
	}
	slices.SortStableFunc(failures, func(a, b Failure) int {
		return slices.Index(geometryPaths, a.Filename) - slices.Index(geometryPaths, b.Filename)
	})
	res.Failures = failures

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// Unseen returns the raw names of vocab that content never counts.
func Unseen(content glyph.Content, vocab *label.Vocabulary) []string {
	if vocab == nil {
		return nil
	}
	var names []string
	for _, raw := range vocab.Raw() {
		if _, ok := content.Count(raw); !ok {
			names = append(names, raw)
		}
	}
	return names
}

func extractPage(p *Page, content glyph.Content, extractor *sample.Extractor, opts Options) ([]sample.Sample, staff.Assignment, error) {
	a, err := p.Score.PositionGlyphs(p.Glyphs, content, opts.MinOccurrences)
	if err != nil {
		return nil, a, err
	}

	load := opts.LoadImage
	if load == nil {
		load = omrimage.Load
	}
	img, err := load(filepath.Join(opts.ImageDir, p.Score.Filename))
	if err != nil {
		return nil, a, err
	}
	if opts.Binarize != nil {
		if img, err = opts.Binarize(img); err != nil {
			return nil, a, fmt.Errorf("failed to binarize: %w", err)
		}
	}

	samples := extractor.Extract(img, p.Score)
	if opts.CandidateParams != nil {
		m := p.Score.Model
		params := opts.CandidateParams(m.StaffHeight, m.StaffSpace)
		samples = append(samples, candidateSamples(img, p.Score, params, opts.Vocabulary)...)
	}
	return samples, a, nil
}

// candidateSamples labels the candidate windows of every staff. Staves
// whose padded box leaves the page are skipped.
func candidateSamples(img *image.Gray, score *staff.Score, params candidate.Params, vocab *label.Vocabulary) []sample.Sample {
	finder := candidate.NewFinder(score, params)

	var samples []sample.Sample
	for i, st := range score.Staves {
		staffImg, clamped := score.StaffImage(img, i)
		if clamped {
			slog.Warn("staff box leaves the page, no candidates", "page", score.Filename, "staff", i)
			continue
		}
		windows, err := finder.Find(staffImg)
		if err != nil {
			slog.Warn("candidate search failed", "page", score.Filename, "staff", i, "error", err)
			continue
		}
		for _, c := range finder.Label(staffImg, st.Glyphs(), vocab, windows) {
			box := score.ToPage(i, c.Box)
			crop, clamped := sample.Crop(img, box)
			samples = append(samples, sample.Sample{
				Staff:    i,
				Division: CandidateDivision,
				Box:      box,
				Image:    crop,
				Label:    c.Label,
				Clamped:  clamped,
			})
		}
	}
	return samples
}

func workers(opts Options) int {
	return max(1, opts.Workers)
}

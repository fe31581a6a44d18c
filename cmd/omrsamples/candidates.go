package main

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/spf13/cobra"

	"omr-sampler/internal/candidate"
	"omr-sampler/internal/glyph"
	"omr-sampler/internal/groundtruth"
	omrimage "omr-sampler/internal/image"
	"omr-sampler/internal/image/opencv"
	"omr-sampler/internal/label"
	"omr-sampler/internal/staff"
)

type candidatesOptions struct {
	geometry     string
	image        string
	groundTruth  string
	kind         string
	merge        bool
	thin         bool
	linesRemoved bool
	binarize     bool
}

func newCandidatesCmd() *cobra.Command {
	var o candidatesOptions

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Print the candidate symbol windows of every staff of a page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCandidates(cmd, o)
		},
	}
	cmd.Flags().StringVarP(&o.geometry, "geometry", "g", "", "Staff geometry record")
	cmd.Flags().StringVarP(&o.image, "image", "i", "", "Page image (defaults to the record's filename next to it)")
	cmd.Flags().StringVar(&o.groundTruth, "ground-truth", "", "Ground-truth file used to label the candidates")
	cmd.Flags().StringVar(&o.kind, "kind", string(groundtruth.DeepScores), "Ground-truth format: deepscores or muscima")
	cmd.Flags().BoolVar(&o.merge, "merge", true, "Merge nearby column runs")
	cmd.Flags().BoolVar(&o.thin, "thin", true, "Drop column runs narrower than a window")
	cmd.Flags().BoolVar(&o.linesRemoved, "lines-removed", true, "Staff lines were erased from the image")
	cmd.Flags().BoolVar(&o.binarize, "binarize", false, "Binarize the page with Otsu's threshold")
	_ = cmd.MarkFlagRequired("geometry")
	return cmd
}

func runCandidates(cmd *cobra.Command, o candidatesOptions) error {
	score, err := staff.Load(o.geometry)
	if err != nil {
		return err
	}

	imagePath := o.image
	if imagePath == "" {
		imagePath = filepath.Join(filepath.Dir(o.geometry), score.Filename)
	}
	var img *image.Gray
	if o.binarize {
		if img, err = opencv.Load(imagePath); err == nil {
			img, err = opencv.Binarize(img)
		}
	} else {
		img, err = omrimage.Load(imagePath)
	}
	if err != nil {
		return err
	}

	var vocab *label.Vocabulary
	labelled := o.groundTruth != ""
	if labelled {
		kind, err := groundtruth.ParseKind(o.kind)
		if err != nil {
			return err
		}
		glyphs, err := groundtruth.ReadFile(kind, o.groundTruth)
		if err != nil {
			return err
		}
		if _, err := score.PositionGlyphs(glyphs, glyph.Tally(glyphs), 0); err != nil {
			return err
		}
		if vocab, err = label.Preset(string(kind)); err != nil {
			return err
		}
	}

	m := score.Model
	params := candidate.DefaultParams(m.StaffHeight, m.StaffSpace).
		WithStaffLinesRemoved(o.linesRemoved).
		WithMerge(o.merge).
		WithThinFilter(o.thin)
	finder := candidate.NewFinder(score, params)

	out := cmd.OutOrStdout()
	for i, st := range score.Staves {
		staffImg, clamped := score.StaffImage(img, i)
		if clamped {
			fmt.Fprintf(out, "staff %d: box %v leaves the page\n", i, score.CandidateBox(i))
			continue
		}
		windows, err := finder.Find(staffImg)
		if err != nil {
			return fmt.Errorf("staff %d: %w", i, err)
		}
		fmt.Fprintf(out, "staff %d: %d candidates\n", i, len(windows))

		if !labelled {
			for _, w := range windows {
				fmt.Fprintf(out, "  %v\n", score.ToPage(i, w))
			}
			continue
		}
		for _, c := range finder.Label(staffImg, st.Glyphs(), vocab, windows) {
			fmt.Fprintf(out, "  %v %s\n", score.ToPage(i, c.Box), c.Label)
		}
	}
	return nil
}

package main

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"omr-sampler/internal/config"
	"omr-sampler/internal/dataset"
	"omr-sampler/internal/image/opencv"
	"omr-sampler/internal/logger"
)

func newExtractCmd() *cobra.Command {
	var configPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract one labelled sample per staff division of every page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigFromFile(configPath)
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Sampling.Workers = workers
			}
			return runExtract(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "omrsamples.toml", "Job configuration file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Pages processed in parallel (overrides the config)")
	return cmd
}

func runExtract(cmd *cobra.Command, cfg *config.Config) error {
	closer, err := logger.InitLogger(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	vocab, err := cfg.Vocabulary()
	if err != nil {
		return fmt.Errorf("failed to build vocabulary: %w", err)
	}
	paths, err := dataset.ListGeometry(cfg.Dataset.GeometryDir)
	if err != nil {
		return err
	}

	opts := dataset.Options{
		Kind:                 cfg.Kind(),
		ImageDir:             cfg.Dataset.ImageDir,
		GroundTruthDir:       cfg.Dataset.GroundTruthDir,
		MinOccurrences:       cfg.Sampling.MinOccurrences,
		AreaOverlapThreshold: cfg.Sampling.AreaOverlapThreshold,
		Vocabulary:           vocab,
		Workers:              cfg.Sampling.Workers,
	}
	if cfg.Sampling.Binarize {
		opts.LoadImage = opencv.Load
		opts.Binarize = opencv.Binarize
	}
	if cfg.Candidates.Enabled {
		opts.CandidateParams = cfg.CandidateParams
	}

	writer := dataset.NewWriter(cfg.Dataset.OutputDir)
	writer.Ext = cfg.Sampling.Format
	writer.Encode = func(img *image.Gray) ([]byte, error) {
		return opencv.Encode(img, cfg.Sampling.Format)
	}
	if err := writer.Prepare(vocab.Classes()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	slog.Info("starting extraction", "pages", len(paths), "dataset", cfg.Dataset.Kind, "workers", cfg.Sampling.Workers)
	res, err := dataset.Run(ctx, paths, opts, writer)
	if res != nil {
		printSummary(cmd.OutOrStdout(), res, writer.Counts())
	}
	return err
}

// topGlyphs is how many of the most frequent glyph names the summary lists.
const topGlyphs = 10

func printSummary(out io.Writer, res *dataset.Result, written map[string]int) {
	fmt.Fprintf(out, "%d pages, %d samples\n", res.Pages, res.Samples)

	names := make([]string, 0, len(res.Labels))
	for name := range res.Labels {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-24s %6d extracted %6d written\n", name, res.Labels[name], written[name])
	}

	a := res.Assignment
	fmt.Fprintf(out, "glyphs: %d assigned, %d rare, %d outside staff, %d too far\n",
		a.Assigned, a.Rare, a.OutsideHorizontal, a.OutsideVertical)

	frequent := res.Content.Names()
	if len(frequent) > topGlyphs {
		frequent = frequent[:topGlyphs]
	}
	for _, name := range frequent {
		n, _ := res.Content.Count(name)
		fmt.Fprintf(out, "  %-24s %6d annotated\n", name, n)
	}
	if len(res.Unseen) > 0 {
		fmt.Fprintf(out, "never annotated: %s\n", strings.Join(res.Unseen, ", "))
	}

	for _, f := range res.Failures {
		fmt.Fprintf(out, "FAILED %v\n", f)
	}
}

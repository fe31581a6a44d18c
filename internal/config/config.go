// Package config holds the TOML configuration of a sampling job.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"

	"omr-sampler/internal/candidate"
	"omr-sampler/internal/groundtruth"
	"omr-sampler/internal/label"
)

type Config struct {
	Dataset    DatasetConfig     `toml:"dataset"`
	Sampling   SamplingConfig    `toml:"sampling"`
	Candidates CandidatesConfig  `toml:"candidates"`
	Labels     map[string]string `toml:"labels"`
	Log        LogConfig         `toml:"log"`
}

type DatasetConfig struct {
	Kind           string `toml:"kind"`
	GeometryDir    string `toml:"geometry_dir"`
	GroundTruthDir string `toml:"ground_truth_dir"`
	ImageDir       string `toml:"image_dir"`
	OutputDir      string `toml:"output_dir"`
	Vocabulary     string `toml:"vocabulary"` // optional vocabulary file
}

type SamplingConfig struct {
	MinOccurrences       int     `toml:"min_occurrences"`
	AreaOverlapThreshold float64 `toml:"area_overlap_threshold"`
	Workers              int     `toml:"workers"`
	Binarize             bool    `toml:"binarize"` // Otsu through OpenCV
	Format               string  `toml:"format"`   // sample file extension
}

type CandidatesConfig struct {
	Enabled           bool `toml:"enabled"`
	StaffLinesRemoved bool `toml:"staff_lines_removed"`
	Merge             bool `toml:"merge"`
	ThinFilter        bool `toml:"thin_filter"`
	StepThreshold     int  `toml:"step_threshold"`   // 0 keeps the derived value
	KernelThreshold   int  `toml:"kernel_threshold"` // 0 keeps the derived value
}

type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Kind:      string(groundtruth.DeepScores),
			OutputDir: "samples",
		},
		Sampling: SamplingConfig{
			MinOccurrences:       200,
			AreaOverlapThreshold: 0.8,
			Workers:              runtime.NumCPU(),
			Format:               ".png",
		},
		Candidates: CandidatesConfig{
			StaffLinesRemoved: true,
			Merge:             true,
			ThinFilter:        true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func LoadConfigFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // no config file, return defaults
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Validate checks the values a job cannot run without.
func (c *Config) Validate() error {
	if _, err := groundtruth.ParseKind(c.Dataset.Kind); err != nil {
		return err
	}
	if c.Sampling.MinOccurrences < 0 {
		return fmt.Errorf("sampling.min_occurrences must not be negative, got %d", c.Sampling.MinOccurrences)
	}
	if t := c.Sampling.AreaOverlapThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("sampling.area_overlap_threshold must be in (0, 1], got %g", t)
	}
	if c.Sampling.Workers < 1 {
		return fmt.Errorf("sampling.workers must be positive, got %d", c.Sampling.Workers)
	}
	return nil
}

// Kind returns the validated dataset kind.
func (c *Config) Kind() groundtruth.Kind {
	k, _ := groundtruth.ParseKind(c.Dataset.Kind)
	return k
}

// Vocabulary returns the label vocabulary of the job: the [labels] table
// when present, else the vocabulary file, else the dataset preset.
func (c *Config) Vocabulary() (*label.Vocabulary, error) {
	switch {
	case len(c.Labels) > 0:
		return label.NewVocabulary(string(c.Kind()), c.Labels)
	case c.Dataset.Vocabulary != "":
		return label.LoadVocabulary(c.Dataset.Vocabulary)
	default:
		return label.Preset(string(c.Kind()))
	}
}

// CandidateParams returns the candidate finder parameters for a staff with
// line thickness h and spacing s.
func (c *Config) CandidateParams(h, s int) candidate.Params {
	return candidate.DefaultParams(h, s).
		WithStaffLinesRemoved(c.Candidates.StaffLinesRemoved).
		WithMerge(c.Candidates.Merge).
		WithThinFilter(c.Candidates.ThinFilter).
		WithThresholds(c.Candidates.StepThreshold, c.Candidates.KernelThreshold)
}

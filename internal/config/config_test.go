package config

import (
	"os"
	"path/filepath"
	"testing"

	"omr-sampler/internal/groundtruth"
	"omr-sampler/internal/label"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	c, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}
	if c.Sampling.MinOccurrences != 200 || c.Sampling.AreaOverlapThreshold != 0.8 {
		t.Errorf("defaults = %+v", c.Sampling)
	}
	if c.Kind() != groundtruth.DeepScores {
		t.Errorf("Kind() = %q, want deepscores", c.Kind())
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
[dataset]
kind = "muscima"
geometry_dir = "geom"
image_dir = "img"

[sampling]
min_occurrences = 10
workers = 2

[candidates]
merge = false
step_threshold = 9

[labels]
"g-clef" = "gClef"
"sharp" = ""

[log]
level = "debug"
`)
	c, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() error = %v", err)
	}
	if c.Kind() != groundtruth.Muscima || c.Dataset.GeometryDir != "geom" {
		t.Errorf("Dataset = %+v", c.Dataset)
	}
	if c.Sampling.MinOccurrences != 10 || c.Sampling.Workers != 2 {
		t.Errorf("Sampling = %+v", c.Sampling)
	}
	if c.Sampling.AreaOverlapThreshold != 0.8 || c.Dataset.OutputDir != "samples" {
		t.Error("unset keys lost their defaults")
	}
	if c.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", c.Log.Level)
	}

	v, err := c.Vocabulary()
	if err != nil {
		t.Fatalf("Vocabulary() error = %v", err)
	}
	if v.Resolve("g-clef") != label.Of("gClef") || v.Resolve("sharp") != label.Of("sharp") {
		t.Errorf("Vocabulary() does not follow [labels]: %v", v.Raw())
	}
	if v.Resolve("flat") != label.Unlisted {
		t.Error("[labels] should replace the preset")
	}

	p := c.CandidateParams(2, 10)
	if p.Merge || !p.ThinFilter || p.StepThreshold != 9 || p.KernelThreshold != 28 {
		t.Errorf("CandidateParams() = %+v", p)
	}
}

func TestLoadConfigFromFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":    "[dataset\nkind = 1",
		"kind":      "[dataset]\nkind = \"omniscore\"",
		"threshold": "[sampling]\narea_overlap_threshold = 1.5",
		"workers":   "[sampling]\nworkers = 0",
		"negative":  "[sampling]\nmin_occurrences = -1",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfigFromFile(writeConfig(t, content)); err == nil {
				t.Error("LoadConfigFromFile() should fail")
			}
		})
	}
}

func TestConfig_VocabularyPreset(t *testing.T) {
	c := NewDefaultConfig()
	v, err := c.Vocabulary()
	if err != nil {
		t.Fatalf("Vocabulary() error = %v", err)
	}
	if v.Dataset != "deepscores" {
		t.Errorf("Dataset = %q, want deepscores", v.Dataset)
	}

	vocabPath := writeConfig(t, "dataset = \"custom\"\n[labels]\nslur = \"\"\n")
	c.Dataset.Vocabulary = vocabPath
	v, err = c.Vocabulary()
	if err != nil {
		t.Fatalf("Vocabulary() from file error = %v", err)
	}
	if v.Dataset != "custom" || !v.Contains("slur") {
		t.Errorf("Vocabulary() from file = %q %v", v.Dataset, v.Raw())
	}
}

package label

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"omr-sampler/internal/glyph"
)

// Vocabulary maps the raw glyph names of one dataset onto canonical class
// names. The mapping is injective, so a class never merges two raw names
// of the same dataset.
type Vocabulary struct {
	Dataset   string
	canonical map[string]string
}

// vocabularyFile is the TOML layout read by LoadVocabulary.
type vocabularyFile struct {
	Dataset string            `toml:"dataset"`
	Labels  map[string]string `toml:"labels"`
}

// NewVocabulary validates mapping (raw name -> canonical class). An empty
// canonical class keeps the raw name.
func NewVocabulary(dataset string, mapping map[string]string) (*Vocabulary, error) {
	v := &Vocabulary{Dataset: dataset, canonical: make(map[string]string, len(mapping))}
	owner := make(map[string]string, len(mapping))

	raws := make([]string, 0, len(mapping))
	for raw := range mapping {
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	for _, raw := range raws {
		class := mapping[raw]
		if class == "" {
			class = raw
		}
		if raw == "" {
			return nil, fmt.Errorf("vocabulary %s: empty raw name", dataset)
		}
		if glyph.Reserved(raw) || glyph.Reserved(class) {
			return nil, fmt.Errorf("vocabulary %s: %q -> %q uses a reserved name", dataset, raw, class)
		}
		if prev, ok := owner[class]; ok {
			return nil, fmt.Errorf("vocabulary %s: %q and %q both map to %q", dataset, prev, raw, class)
		}
		owner[class] = raw
		v.canonical[raw] = class
	}
	return v, nil
}

// LoadVocabulary reads a vocabulary from a TOML file:
//
//	dataset = "muscima"
//	[labels]
//	"g-clef" = "gClef"
func LoadVocabulary(path string) (*Vocabulary, error) {
	var f vocabularyFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary: %w", err)
	}
	if f.Dataset == "" {
		f.Dataset = path
	}
	return NewVocabulary(f.Dataset, f.Labels)
}

// Resolve labels a raw glyph name.
func (v *Vocabulary) Resolve(raw string) Label {
	if class, ok := v.canonical[raw]; ok {
		return Of(class)
	}
	return Unlisted
}

// Contains reports whether raw is part of the vocabulary.
func (v *Vocabulary) Contains(raw string) bool {
	_, ok := v.canonical[raw]
	return ok
}

// Raw returns the raw names of the vocabulary, sorted.
func (v *Vocabulary) Raw() []string {
	names := make([]string, 0, len(v.canonical))
	for raw := range v.canonical {
		names = append(names, raw)
	}
	sort.Strings(names)
	return names
}

// Classes returns every label a sample can carry: the canonical classes
// sorted, followed by "None" and "Other".
func (v *Vocabulary) Classes() []string {
	classes := make([]string, 0, len(v.canonical)+2)
	for _, class := range v.canonical {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return append(classes, glyph.NoneName, glyph.OtherName)
}

// DeepScores returns the vocabulary of the DeepScores (synthetic) dataset.
func DeepScores() *Vocabulary {
	v, _ := NewVocabulary("deepscores", map[string]string{
		"noteheadBlack":     "noteheadBlack",
		"noteheadHalf":      "noteheadHalf",
		"noteheadWhole":     "noteheadWhole",
		"gClef":             "gClef",
		"keySharp":          "keySharp",
		"accidentalSharp":   "accidentalSharp",
		"accidentalNatural": "accidentalNatural",
	})
	return v
}

// Muscima returns the vocabulary of the MUSCIMA++ (handwritten) dataset,
// mapped onto the DeepScores class names.
func Muscima() *Vocabulary {
	v, _ := NewVocabulary("muscima", map[string]string{
		"g-clef":         "gClef",
		"notehead-full":  "noteheadBlack",
		"notehead-empty": "noteheadHalf",
		"sharp":          "accidentalSharp",
		"flat":           "accidentalFlat",
		"natural":        "accidentalNatural",
	})
	return v
}

// Preset returns the built-in vocabulary of a dataset kind.
func Preset(dataset string) (*Vocabulary, error) {
	switch dataset {
	case "deepscores":
		return DeepScores(), nil
	case "muscima":
		return Muscima(), nil
	default:
		return nil, fmt.Errorf("no vocabulary preset for dataset %q", dataset)
	}
}

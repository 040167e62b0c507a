package dataset

import (
	"fmt"
	"math"
	"slices"
)

const (
	DefaultFavorableLabel   = 1.0
	DefaultUnfavorableLabel = 0.0
)

// Schema declares the column layout shared by every row of a Dataset.
// Features and Protected are ordered; row values are aligned to them by position.
type Schema struct {
	Features         []string `json:"features"`
	Label            string   `json:"label"`
	Protected        []string `json:"protected"`
	FavorableLabel   float64  `json:"favorable_label"`
	UnfavorableLabel float64  `json:"unfavorable_label"`
}

// Validate reports structural problems: a missing label, no protected attributes,
// duplicate or empty column names, and indistinguishable label values.
func (s Schema) Validate() error {
	if s.Label == "" {
		return schemaError("label", "label column required")
	}
	if len(s.Protected) == 0 {
		return schemaError("protected", "at least one protected attribute required")
	}
	if s.FavorableLabel == s.UnfavorableLabel {
		return schemaError("label", "favorable and unfavorable labels must differ")
	}
	if math.IsNaN(s.FavorableLabel) || math.IsNaN(s.UnfavorableLabel) {
		return schemaError("label", "label values must be numbers")
	}

	seen := map[string]string{s.Label: "label"}
	check := func(kind string, names []string) error {
		for _, name := range names {
			if name == "" {
				return schemaError(kind, "empty column name")
			}
			if prev, ok := seen[name]; ok {
				return schemaError(kind, "column %q already declared as %s", name, prev)
			}
			seen[name] = kind
		}
		return nil
	}

	if err := check("features", s.Features); err != nil {
		return err
	}
	return check("protected", s.Protected)
}

// FeatureIndex returns the position of the named feature.
func (s Schema) FeatureIndex(name string) (int, bool) {
	i := slices.Index(s.Features, name)
	return i, i >= 0
}

// ProtectedIndex returns the position of the named protected attribute.
func (s Schema) ProtectedIndex(name string) (int, bool) {
	i := slices.Index(s.Protected, name)
	return i, i >= 0
}

// IsFavorable reports whether label is the favorable outcome.
func (s Schema) IsFavorable(label float64) bool {
	return label == s.FavorableLabel
}

// Equal reports whether two schemas declare the same layout.
func (s Schema) Equal(o Schema) bool {
	return s.Label == o.Label &&
		s.FavorableLabel == o.FavorableLabel &&
		s.UnfavorableLabel == o.UnfavorableLabel &&
		slices.Equal(s.Features, o.Features) &&
		slices.Equal(s.Protected, o.Protected)
}

func (s Schema) String() string {
	return fmt.Sprintf(
		"label=%s features=%d protected=%v",
		s.Label, len(s.Features), s.Protected,
	)
}

func (s Schema) clone() Schema {
	c := s
	c.Features = slices.Clone(s.Features)
	c.Protected = slices.Clone(s.Protected)
	return c
}

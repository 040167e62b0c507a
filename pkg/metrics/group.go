package metrics

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JaimeStill/parity/pkg/dataset"
)

// Predicate maps protected-attribute names to required values.
// A row satisfies the predicate when every named attribute matches.
type Predicate map[string]float64

// Group is a disjunction of predicates: a row belongs to the group when it
// satisfies any of them.
type Group []Predicate

// Attribute returns the single-predicate group attr == value.
func Attribute(attr string, value float64) Group {
	return Group{{attr: value}}
}

func (g Group) String() string {
	parts := make([]string, len(g))
	for i, p := range g {
		keys := slices.Sorted(maps.Keys(p))
		terms := make([]string, len(keys))
		for j, k := range keys {
			terms[j] = fmt.Sprintf("%s=%v", k, p[k])
		}
		parts[i] = "{" + strings.Join(terms, ",") + "}"
	}
	return strings.Join(parts, "|")
}

// Mask returns a 1/0 membership indicator per row of d.
func (g Group) Mask(d *dataset.Dataset) ([]float64, error) {
	if len(g) == 0 {
		return nil, fmt.Errorf("%w: no predicates", ErrInvalidGroup)
	}

	schema := d.Schema()
	columns := make(map[string][]float64)

	for _, p := range g {
		if len(p) == 0 {
			return nil, fmt.Errorf("%w: empty predicate", ErrInvalidGroup)
		}
		for attr := range p {
			if _, ok := schema.ProtectedIndex(attr); !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, attr)
			}
			if _, ok := columns[attr]; ok {
				continue
			}
			col, err := d.Column(attr)
			if err != nil {
				return nil, err
			}
			columns[attr] = col
		}
	}

	mask := make([]float64, d.Len())
	for i := range mask {
		for _, p := range g {
			if satisfies(p, columns, i) {
				mask[i] = 1
				break
			}
		}
	}
	return mask, nil
}

func satisfies(p Predicate, columns map[string][]float64, i int) bool {
	for attr, want := range p {
		if columns[attr][i] != want {
			return false
		}
	}
	return true
}

// Masks evaluates both groups over d and verifies that no row belongs to both.
func Masks(d *dataset.Dataset, privileged, unprivileged Group) (priv, unpriv []float64, err error) {
	if priv, err = privileged.Mask(d); err != nil {
		return nil, nil, fmt.Errorf("privileged: %w", err)
	}
	if unpriv, err = unprivileged.Mask(d); err != nil {
		return nil, nil, fmt.Errorf("unprivileged: %w", err)
	}

	for i := range priv {
		if priv[i] == 1 && unpriv[i] == 1 {
			return nil, nil, fmt.Errorf(
				"%w: row %d matches %s and %s",
				ErrOverlappingGroups, d.Row(i).Index, privileged, unprivileged,
			)
		}
	}
	return priv, unpriv, nil
}

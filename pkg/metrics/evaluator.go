// Package metrics computes group-fairness statistics over binary-label datasets.
// All statistics are weighted by instance weight, so they reflect any
// reweighing applied to the dataset.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JaimeStill/parity/pkg/dataset"
)

// Selection chooses the rows a statistic is computed over.
type Selection int

const (
	All Selection = iota
	Privileged
	Unprivileged
)

func (s Selection) String() string {
	switch s {
	case Privileged:
		return "privileged"
	case Unprivileged:
		return "unprivileged"
	default:
		return "all"
	}
}

// Evaluator computes fairness statistics for one dataset snapshot and one pair
// of groups. It copies what it needs at construction; later weight changes to
// the dataset are not observed.
type Evaluator struct {
	privileged   Group
	unprivileged Group
	weights      []float64
	favorable    []float64
	masks        map[Selection][]float64
}

// New validates the groups against the dataset schema and prepares the evaluator.
// Rows matching neither group only contribute to the All selection.
func New(d *dataset.Dataset, privileged, unprivileged Group) (*Evaluator, error) {
	priv, unpriv, err := Masks(d, privileged, unprivileged)
	if err != nil {
		return nil, err
	}

	all := make([]float64, d.Len())
	for i := range all {
		all[i] = 1
	}

	return &Evaluator{
		privileged:   privileged,
		unprivileged: unprivileged,
		weights:      d.Weights(),
		favorable:    d.Favorable(),
		masks: map[Selection][]float64{
			All:          all,
			Privileged:   priv,
			Unprivileged: unpriv,
		},
	}, nil
}

// NumRows returns the unweighted number of rows in the selection.
func (e *Evaluator) NumRows(sel Selection) int {
	return int(floats.Sum(e.masks[sel]))
}

// NumInstances returns the total instance weight of the selection.
func (e *Evaluator) NumInstances(sel Selection) float64 {
	return floats.Dot(e.weights, e.masks[sel])
}

// NumPositives returns the total weight of favorable-labeled rows in the selection.
func (e *Evaluator) NumPositives(sel Selection) float64 {
	return e.weightedSum(sel, e.favorable)
}

// NumNegatives returns the total weight of unfavorable-labeled rows in the selection.
func (e *Evaluator) NumNegatives(sel Selection) float64 {
	return e.NumInstances(sel) - e.NumPositives(sel)
}

// BaseRate returns the weighted favorable-outcome rate of the selection.
func (e *Evaluator) BaseRate(sel Selection) (float64, error) {
	if e.NumRows(sel) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyGroup, sel)
	}

	w := e.selectionWeights(sel)
	if floats.Sum(w) == 0 {
		return 0, fmt.Errorf("%w: %s has zero total weight", ErrEmptyGroup, sel)
	}

	return stat.Mean(e.favorable, w), nil
}

// MeanDifference returns the unprivileged base rate minus the privileged base rate.
// The result lies in [-1, 1]; 0 indicates parity.
func (e *Evaluator) MeanDifference() (float64, error) {
	unpriv, priv, err := e.rates()
	if err != nil {
		return 0, err
	}
	return unpriv - priv, nil
}

// StatisticalParityDifference is an alias for MeanDifference.
func (e *Evaluator) StatisticalParityDifference() (float64, error) {
	return e.MeanDifference()
}

// DisparateImpact returns the unprivileged base rate divided by the privileged base rate.
// The result lies in [0, +Inf); 1 indicates parity. A zero privileged rate yields
// ErrUndefinedRatio rather than Inf or NaN.
func (e *Evaluator) DisparateImpact() (float64, error) {
	unpriv, priv, err := e.rates()
	if err != nil {
		return 0, err
	}
	if priv == 0 {
		return 0, ErrUndefinedRatio
	}
	return unpriv / priv, nil
}

// Report evaluates every statistic, failing on the first undefined one.
func (e *Evaluator) Report() (*Report, error) {
	unpriv, priv, err := e.rates()
	if err != nil {
		return nil, err
	}

	di, err := e.DisparateImpact()
	if err != nil {
		return nil, err
	}

	return &Report{
		MeanDifference:        unpriv - priv,
		DisparateImpact:       di,
		PrivilegedBaseRate:    priv,
		UnprivilegedBaseRate:  unpriv,
		PrivilegedInstances:   e.NumInstances(Privileged),
		UnprivilegedInstances: e.NumInstances(Unprivileged),
		TotalInstances:        e.NumInstances(All),
		Privileged:            e.privileged,
		Unprivileged:          e.unprivileged,
	}, nil
}

func (e *Evaluator) rates() (unpriv, priv float64, err error) {
	if unpriv, err = e.BaseRate(Unprivileged); err != nil {
		return 0, 0, err
	}
	if priv, err = e.BaseRate(Privileged); err != nil {
		return 0, 0, err
	}
	return unpriv, priv, nil
}

func (e *Evaluator) selectionWeights(sel Selection) []float64 {
	w := make([]float64, len(e.weights))
	floats.MulTo(w, e.weights, e.masks[sel])
	return w
}

func (e *Evaluator) weightedSum(sel Selection, x []float64) float64 {
	return floats.Dot(e.selectionWeights(sel), x)
}

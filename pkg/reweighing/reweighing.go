// Package reweighing implements the reweighing pre-processing transformer.
//
// Reweighing assigns each (group, label) cell the weight
//
//	w(g, l) = W(g) * W(l) / (W * W(g, l))
//
// where W is total instance weight, W(g) and W(l) are the group and label
// marginals, and W(g, l) is the observed joint weight. With unit weights this is
// count(g)*count(l) / (total*count(g,l)). Multiplying instance weights by the
// cell weight makes the weighted favorable rate equal across groups while
// preserving group and label marginals.
package reweighing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/metrics"
)

var (
	// ErrEmptyCell indicates a (group, label) cell with no rows, leaving its weight undefined.
	ErrEmptyCell = errors.New("reweighing cell has no rows")
	// ErrNotFitted indicates Transform was called before Fit.
	ErrNotFitted = errors.New("reweighing transformer not fitted")
)

// Reweighing learns cell weights from one dataset and applies them to any
// dataset with a compatible schema.
type Reweighing struct {
	privileged   metrics.Group
	unprivileged metrics.Group
	weights      *Weights
}

// New creates an unfitted transformer for the given group definitions.
func New(privileged, unprivileged metrics.Group) *Reweighing {
	return &Reweighing{
		privileged:   privileged,
		unprivileged: unprivileged,
	}
}

// Weights returns the learned cell weights and whether Fit has succeeded.
func (r *Reweighing) Weights() (Weights, bool) {
	if r.weights == nil {
		return Weights{}, false
	}
	return *r.weights, true
}

// Fit computes the four cell weights from d. The dataset is not modified.
func (r *Reweighing) Fit(d *dataset.Dataset) (Weights, error) {
	priv, unpriv, err := metrics.Masks(d, r.privileged, r.unprivileged)
	if err != nil {
		return Weights{}, err
	}

	w := d.Weights()
	fav := d.Favorable()
	unfav := complement(fav)

	total := floats.Sum(w)
	nFav := weighted(w, fav)
	nUnfav := weighted(w, unfav)
	nPriv := weighted(w, priv)
	nUnpriv := weighted(w, unpriv)

	cells := []struct {
		cell         Cell
		group, label []float64
		nGroup       float64
		nLabel       float64
	}{
		{PrivilegedFavorable, priv, fav, nPriv, nFav},
		{PrivilegedUnfavorable, priv, unfav, nPriv, nUnfav},
		{UnprivilegedFavorable, unpriv, fav, nUnpriv, nFav},
		{UnprivilegedUnfavorable, unpriv, unfav, nUnpriv, nUnfav},
	}

	var learned Weights
	for _, c := range cells {
		joint := make([]float64, len(w))
		floats.MulTo(joint, c.group, c.label)

		if floats.Sum(joint) == 0 {
			return Weights{}, fmt.Errorf("%w: %s", ErrEmptyCell, c.cell)
		}

		nJoint := weighted(w, joint)
		if nJoint == 0 {
			return Weights{}, fmt.Errorf("%w: %s has zero total weight", ErrEmptyCell, c.cell)
		}

		learned.set(c.cell, c.nGroup*c.nLabel/(total*nJoint))
	}

	r.weights = &learned
	return learned, nil
}

// Transform returns a copy of d whose instance weights are multiplied by the
// learned cell weight of each row. Rows outside both groups keep their weight.
// Row order and every other value are unchanged; d itself is not modified.
func (r *Reweighing) Transform(d *dataset.Dataset) (*dataset.Dataset, error) {
	if r.weights == nil {
		return nil, ErrNotFitted
	}

	priv, unpriv, err := metrics.Masks(d, r.privileged, r.unprivileged)
	if err != nil {
		return nil, err
	}

	fav := d.Favorable()
	w := d.Weights()

	for i := range w {
		favorable := fav[i] == 1
		switch {
		case priv[i] == 1 && favorable:
			w[i] *= r.weights.PrivilegedFavorable
		case priv[i] == 1:
			w[i] *= r.weights.PrivilegedUnfavorable
		case unpriv[i] == 1 && favorable:
			w[i] *= r.weights.UnprivilegedFavorable
		case unpriv[i] == 1:
			w[i] *= r.weights.UnprivilegedUnfavorable
		}
	}

	return d.WithWeights(w)
}

// FitTransform fits on d and returns the reweighted copy with the learned weights.
func (r *Reweighing) FitTransform(d *dataset.Dataset) (*dataset.Dataset, Weights, error) {
	weights, err := r.Fit(d)
	if err != nil {
		return nil, Weights{}, err
	}

	out, err := r.Transform(d)
	if err != nil {
		return nil, Weights{}, err
	}
	return out, weights, nil
}

func weighted(w, mask []float64) float64 {
	return floats.Dot(w, mask)
}

func complement(mask []float64) []float64 {
	out := make([]float64, len(mask))
	for i, v := range mask {
		out[i] = 1 - v
	}
	return out
}

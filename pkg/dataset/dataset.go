// Package dataset provides the binary-label tabular dataset model used by the
// fairness metrics and the reweighing transformer, together with its loaders
// (JSON records, CSV) and the train/validation/test splitter.
//
// A Dataset is immutable after construction except for instance weights.
// Operations that produce new datasets (Copy, Subset, WithWeights, Split)
// never share row storage with their input.
package dataset

import (
	"fmt"
	"math"
	"slices"
)

// Row is a single labeled instance. Features and Protected are aligned with the
// owning Dataset's Schema. Index is the row's position in the dataset it was
// originally loaded from and survives splits and reweighing.
type Row struct {
	Index     int       `json:"index"`
	Features  []float64 `json:"features"`
	Label     float64   `json:"label"`
	Protected []float64 `json:"protected"`
	Weight    float64   `json:"weight"`
}

// Feature returns the named feature value.
func (r Row) Feature(s Schema, name string) (float64, error) {
	i, ok := s.FeatureIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return r.Features[i], nil
}

// Attribute returns the named protected attribute value.
func (r Row) Attribute(s Schema, name string) (float64, error) {
	i, ok := s.ProtectedIndex(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return r.Protected[i], nil
}

func (r Row) clone() Row {
	c := r
	c.Features = slices.Clone(r.Features)
	c.Protected = slices.Clone(r.Protected)
	return c
}

// Dataset is an ordered sequence of rows sharing one Schema.
type Dataset struct {
	schema Schema
	rows   []Row
}

// New validates the schema and every row against it and returns a Dataset that
// owns deep copies of the given rows. Validation failures are reported as
// *DeserializationError values wrapping ErrDeserialization.
func New(schema Schema, rows []Row) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, schemaError("records", "dataset has no rows")
	}

	seen := make(map[int]struct{}, len(rows))
	owned := make([]Row, len(rows))

	for i, row := range rows {
		if err := validateRow(schema, i, row); err != nil {
			return nil, err
		}
		if _, dup := seen[row.Index]; dup {
			return nil, recordError(i, "index", "duplicate index %d", row.Index)
		}
		seen[row.Index] = struct{}{}
		owned[i] = row.clone()
	}

	return &Dataset{schema: schema.clone(), rows: owned}, nil
}

func validateRow(s Schema, i int, r Row) error {
	if len(r.Features) != len(s.Features) {
		return recordError(i, "features", "got %d values, want %d", len(r.Features), len(s.Features))
	}
	if len(r.Protected) != len(s.Protected) {
		return recordError(i, "protected", "got %d values, want %d", len(r.Protected), len(s.Protected))
	}
	for j, v := range r.Features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return recordError(i, s.Features[j], "non-finite value")
		}
	}
	for j, v := range r.Protected {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return recordError(i, s.Protected[j], "non-finite value")
		}
	}
	if r.Label != s.FavorableLabel && r.Label != s.UnfavorableLabel {
		return recordError(i, s.Label, "label %v is neither favorable (%v) nor unfavorable (%v)",
			r.Label, s.FavorableLabel, s.UnfavorableLabel)
	}
	if !validWeight(r.Weight) {
		return recordError(i, "weight", "weight %v must be finite and non-negative", r.Weight)
	}
	return nil
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0)
}

// Schema returns a copy of the dataset schema.
func (d *Dataset) Schema() Schema {
	return d.schema.clone()
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns a copy of the row at position i.
func (d *Dataset) Row(i int) Row {
	return d.rows[i].clone()
}

// Rows returns copies of all rows in order.
func (d *Dataset) Rows() []Row {
	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		rows[i] = r.clone()
	}
	return rows
}

// Indices returns the original index of each row in order.
func (d *Dataset) Indices() []int {
	idx := make([]int, len(d.rows))
	for i, r := range d.rows {
		idx[i] = r.Index
	}
	return idx
}

// Labels returns the label of each row in order.
func (d *Dataset) Labels() []float64 {
	labels := make([]float64, len(d.rows))
	for i, r := range d.rows {
		labels[i] = r.Label
	}
	return labels
}

// Weights returns the instance weight of each row in order.
func (d *Dataset) Weights() []float64 {
	weights := make([]float64, len(d.rows))
	for i, r := range d.rows {
		weights[i] = r.Weight
	}
	return weights
}

// Favorable returns a 1/0 indicator of the favorable label for each row.
func (d *Dataset) Favorable() []float64 {
	fav := make([]float64, len(d.rows))
	for i, r := range d.rows {
		if d.schema.IsFavorable(r.Label) {
			fav[i] = 1
		}
	}
	return fav
}

// Column returns the values of a protected attribute or feature by name.
// Protected attributes take precedence; names are unique across both by schema validation.
func (d *Dataset) Column(name string) ([]float64, error) {
	if j, ok := d.schema.ProtectedIndex(name); ok {
		col := make([]float64, len(d.rows))
		for i, r := range d.rows {
			col[i] = r.Protected[j]
		}
		return col, nil
	}
	if j, ok := d.schema.FeatureIndex(name); ok {
		col := make([]float64, len(d.rows))
		for i, r := range d.rows {
			col[i] = r.Features[j]
		}
		return col, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

// SetWeight replaces the instance weight of the row at position i.
func (d *Dataset) SetWeight(i int, w float64) error {
	if i < 0 || i >= len(d.rows) {
		return fmt.Errorf("%w: position %d out of range", ErrInvalidWeight, i)
	}
	if !validWeight(w) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, w)
	}
	d.rows[i].Weight = w
	return nil
}

// WithWeights returns a copy of the dataset carrying the given weights.
// The receiver is not modified.
func (d *Dataset) WithWeights(weights []float64) (*Dataset, error) {
	if len(weights) != len(d.rows) {
		return nil, fmt.Errorf("%w: got %d weights for %d rows", ErrInvalidWeight, len(weights), len(d.rows))
	}
	for _, w := range weights {
		if !validWeight(w) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWeight, w)
		}
	}

	c := d.Copy()
	for i, w := range weights {
		c.rows[i].Weight = w
	}
	return c, nil
}

// Copy returns a deep copy of the dataset.
func (d *Dataset) Copy() *Dataset {
	return &Dataset{schema: d.schema.clone(), rows: d.Rows()}
}

// Subset returns a new dataset holding copies of the rows at the given positions, in that order.
func (d *Dataset) Subset(positions []int) *Dataset {
	rows := make([]Row, len(positions))
	for i, p := range positions {
		rows[i] = d.rows[p].clone()
	}
	return &Dataset{schema: d.schema.clone(), rows: rows}
}

// Equal reports whether two datasets have the same schema and rows.
func (d *Dataset) Equal(o *Dataset) bool {
	if !d.schema.Equal(o.schema) || len(d.rows) != len(o.rows) {
		return false
	}
	for i := range d.rows {
		a, b := d.rows[i], o.rows[i]
		if a.Index != b.Index || a.Label != b.Label || a.Weight != b.Weight ||
			!slices.Equal(a.Features, b.Features) || !slices.Equal(a.Protected, b.Protected) {
			return false
		}
	}
	return true
}

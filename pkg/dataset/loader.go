package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Load reads a dataset file, inferring the format from its extension.
func Load(path string, opts ...Option) (*Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Decode(f, format, opts...)
}

// Decode deserializes a dataset blob. Any mismatch between the blob and the
// expected row shape is reported as a *DeserializationError.
func Decode(r io.Reader, format Format, opts ...Option) (*Dataset, error) {
	o := collect(opts)

	switch format {
	case FormatJSON:
		return decodeJSON(r, o)
	case FormatCSV:
		return decodeCSV(r, o)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

type document struct {
	Schema  documentSchema `json:"schema"`
	Records []record       `json:"records"`
}

type documentSchema struct {
	Features         []string `json:"features"`
	Label            string   `json:"label"`
	Protected        []string `json:"protected"`
	FavorableLabel   *float64 `json:"favorable_label,omitempty"`
	UnfavorableLabel *float64 `json:"unfavorable_label,omitempty"`
}

type record struct {
	Index     *int               `json:"index,omitempty"`
	Features  map[string]float64 `json:"features"`
	Label     *float64           `json:"label"`
	Protected map[string]float64 `json:"protected"`
	Weight    *float64           `json:"weight,omitempty"`
}

func (s documentSchema) schema() Schema {
	out := Schema{
		Features:         s.Features,
		Label:            s.Label,
		Protected:        s.Protected,
		FavorableLabel:   DefaultFavorableLabel,
		UnfavorableLabel: DefaultUnfavorableLabel,
	}
	if s.FavorableLabel != nil {
		out.FavorableLabel = *s.FavorableLabel
	}
	if s.UnfavorableLabel != nil {
		out.UnfavorableLabel = *s.UnfavorableLabel
	}
	return out
}

func decodeJSON(r io.Reader, o options) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, &DeserializationError{Record: -1, Err: err}
	}

	schema := doc.Schema.schema()
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if o.schema != nil && !o.schema.Equal(schema) {
		return nil, schemaError("schema", "declared schema (%s) does not match expected (%s)", schema, *o.schema)
	}

	rows := make([]Row, len(doc.Records))
	for i, rec := range doc.Records {
		row, err := rec.row(schema, i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}

	return New(schema, rows)
}

func (rec record) row(s Schema, i int) (Row, error) {
	row := Row{
		Index:     i,
		Features:  make([]float64, len(s.Features)),
		Protected: make([]float64, len(s.Protected)),
		Weight:    1,
	}

	if rec.Index != nil {
		row.Index = *rec.Index
	}
	if rec.Label == nil {
		return row, recordError(i, s.Label, "missing label")
	}
	row.Label = *rec.Label
	if rec.Weight != nil {
		row.Weight = *rec.Weight
	}

	if err := fill(row.Features, s.Features, rec.Features, i, "features"); err != nil {
		return row, err
	}
	if err := fill(row.Protected, s.Protected, rec.Protected, i, "protected"); err != nil {
		return row, err
	}

	return row, nil
}

func fill(dst []float64, names []string, values map[string]float64, i int, block string) error {
	if len(values) > len(names) {
		for name := range values {
			if !slices.Contains(names, name) {
				return recordError(i, name, "column not declared in %s", block)
			}
		}
	}
	for j, name := range names {
		v, ok := values[name]
		if !ok {
			return recordError(i, name, "missing %s value", block)
		}
		dst[j] = v
	}
	return nil
}

func decodeCSV(r io.Reader, o options) (*Dataset, error) {
	df := dataframe.ReadCSV(
		r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
	)
	if df.Err != nil {
		return nil, &DeserializationError{Record: -1, Err: df.Err}
	}
	if df.Nrow() == 0 {
		return nil, schemaError("records", "dataset has no rows")
	}

	header := df.Names()
	schema, err := csvSchema(header, o)
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]float64, len(header))
	for _, name := range header {
		columns[name] = df.Col(name).Float()
	}

	hasWeight := o.weightColumn != "" && slices.Contains(header, o.weightColumn)
	rows := make([]Row, df.Nrow())

	for i := range rows {
		row := Row{
			Index:     i,
			Features:  make([]float64, len(schema.Features)),
			Protected: make([]float64, len(schema.Protected)),
			Weight:    1,
		}

		for j, name := range schema.Features {
			if row.Features[j], err = numeric(columns, name, i); err != nil {
				return nil, err
			}
		}
		for j, name := range schema.Protected {
			if row.Protected[j], err = numeric(columns, name, i); err != nil {
				return nil, err
			}
		}
		if row.Label, err = numeric(columns, schema.Label, i); err != nil {
			return nil, err
		}
		if hasWeight {
			if row.Weight, err = numeric(columns, o.weightColumn, i); err != nil {
				return nil, err
			}
		}

		rows[i] = row
	}

	return New(schema, rows)
}

func numeric(columns map[string][]float64, name string, i int) (float64, error) {
	v := columns[name][i]
	if math.IsNaN(v) {
		return 0, recordError(i, name, "missing or non-numeric value")
	}
	return v, nil
}

func csvSchema(header []string, o options) (Schema, error) {
	reserved := func(name string) bool {
		return o.weightColumn != "" && name == o.weightColumn
	}

	if o.schema != nil {
		s := *o.schema
		declared := slices.Concat(s.Features, s.Protected, []string{s.Label})
		for _, name := range declared {
			if !slices.Contains(header, name) {
				return Schema{}, schemaError(name, "declared column missing from header")
			}
		}
		for _, name := range header {
			if !slices.Contains(declared, name) && !reserved(name) {
				return Schema{}, schemaError(name, "column not declared in schema")
			}
		}
		return s, nil
	}

	if o.label == "" {
		return Schema{}, schemaError("label", "label column required")
	}

	s := Schema{
		Label:            o.label,
		Protected:        o.protected,
		FavorableLabel:   o.favorable,
		UnfavorableLabel: o.unfavorable,
	}

	for _, name := range slices.Concat(s.Protected, []string{s.Label}) {
		if !slices.Contains(header, name) {
			return Schema{}, schemaError(name, "declared column missing from header")
		}
	}
	for _, name := range header {
		if name == s.Label || slices.Contains(s.Protected, name) || reserved(name) {
			continue
		}
		s.Features = append(s.Features, name)
	}

	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

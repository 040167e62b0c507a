package dataset

import (
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes the dataset in the JSON record format read by Decode.
// Record indices and instance weights are written explicitly so that a decoded
// copy is equal to the original.
func Encode(w io.Writer, d *Dataset) error {
	fav, unfav := d.schema.FavorableLabel, d.schema.UnfavorableLabel
	doc := document{
		Schema: documentSchema{
			Features:         nonNil(d.schema.Features),
			Label:            d.schema.Label,
			Protected:        d.schema.Protected,
			FavorableLabel:   &fav,
			UnfavorableLabel: &unfav,
		},
		Records: make([]record, len(d.rows)),
	}

	for i, r := range d.rows {
		index, label, weight := r.Index, r.Label, r.Weight
		rec := record{
			Index:     &index,
			Features:  make(map[string]float64, len(r.Features)),
			Label:     &label,
			Protected: make(map[string]float64, len(r.Protected)),
			Weight:    &weight,
		}
		for j, name := range d.schema.Features {
			rec.Features[name] = r.Features[j]
		}
		for j, name := range d.schema.Protected {
			rec.Protected[name] = r.Protected[j]
		}
		doc.Records[i] = rec
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package audits

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/pkg/query"
	"github.com/JaimeStill/parity/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audits", "a").
	Project("id", "ID").
	Project("dataset_id", "DatasetID").
	Project("privileged", "Privileged").
	Project("unprivileged", "Unprivileged").
	Project("cuts", "Cuts").
	Project("shuffle", "Shuffle").
	Project("seed", "Seed").
	Project("partition", "Partition").
	Project("partition_sizes", "PartitionSizes").
	Project("before", "Before").
	Project("after", "After").
	Project("weights", "Weights").
	Project("result_key", "ResultKey").
	Project("created_at", "CreatedAt").
	Join("public", "datasets", "d", "JOIN", "d.id = a.dataset_id").
	Project("name", "DatasetName")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for audit queries.
// Nil fields are ignored. DatasetName uses case-insensitive contains matching
// and the creation window is [CreatedAfter, CreatedBefore); the remaining
// fields use exact matching.
type Filters struct {
	DatasetID     *uuid.UUID `json:"dataset_id,omitempty"`
	DatasetName   *string    `json:"dataset_name,omitempty"`
	Shuffle       *bool      `json:"shuffle,omitempty"`
	Seed          *int64     `json:"seed,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DatasetID", f.DatasetID).
		WhereContains("DatasetName", f.DatasetName).
		WhereEquals("Shuffle", f.Shuffle).
		WhereEquals("Seed", f.Seed).
		WhereRange("CreatedAt", f.CreatedAfter, f.CreatedBefore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("dataset_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DatasetID = &id
		}
	}

	if n := values.Get("dataset_name"); n != "" {
		f.DatasetName = &n
	}

	if s := values.Get("shuffle"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			f.Shuffle = &b
		}
	}

	if s := values.Get("seed"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			f.Seed = &n
		}
	}

	if t, err := time.Parse(time.RFC3339, values.Get("created_after")); err == nil {
		f.CreatedAfter = &t
	}
	if t, err := time.Parse(time.RFC3339, values.Get("created_before")); err == nil {
		f.CreatedBefore = &t
	}

	return f
}

func scanAudit(s repository.Scanner) (Audit, error) {
	var (
		a                   Audit
		privRaw, unprivRaw  []byte
		cutsRaw, sizesRaw   []byte
		beforeRaw, afterRaw []byte
		weightsRaw          []byte
	)

	err := s.Scan(
		&a.ID,
		&a.DatasetID,
		&privRaw,
		&unprivRaw,
		&cutsRaw,
		&a.Shuffle,
		&a.Seed,
		&a.Partition,
		&sizesRaw,
		&beforeRaw,
		&afterRaw,
		&weightsRaw,
		&a.ResultKey,
		&a.CreatedAt,
		&a.DatasetName,
	)
	if err != nil {
		return a, err
	}

	columns := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"privileged", privRaw, &a.Privileged},
		{"unprivileged", unprivRaw, &a.Unprivileged},
		{"cuts", cutsRaw, &a.Cuts},
		{"partition_sizes", sizesRaw, &a.PartitionSizes},
		{"before", beforeRaw, &a.Before},
		{"after", afterRaw, &a.After},
		{"weights", weightsRaw, &a.Weights},
	}

	for _, c := range columns {
		if err := json.Unmarshal(c.raw, c.dst); err != nil {
			return a, fmt.Errorf("unmarshal %s: %w", c.name, err)
		}
	}

	return a, nil
}

func marshalColumns(values ...any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal column %d: %w", i, err)
		}
		out[i] = data
	}
	return out, nil
}

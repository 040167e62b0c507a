package datasets

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/query"
	"github.com/JaimeStill/parity/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "datasets", "d").
	Project("id", "ID").
	Project("name", "Name").
	Project("filename", "Filename").
	Project("format", "Format").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("row_count", "RowCount").
	Project("schema", "Schema").
	Project("storage_key", "StorageKey").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt").
	Project("label", "Label")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for dataset queries.
// Nil fields are ignored. Format and Label use exact matching;
// Name and Filename use case-insensitive contains matching. MinRows is
// inclusive, and the upload window is [UploadedAfter, UploadedBefore).
type Filters struct {
	Name           *string    `json:"name,omitempty"`
	Filename       *string    `json:"filename,omitempty"`
	Format         *string    `json:"format,omitempty"`
	Label          *string    `json:"label,omitempty"`
	MinRows        *int       `json:"min_rows,omitempty"`
	UploadedAfter  *time.Time `json:"uploaded_after,omitempty"`
	UploadedBefore *time.Time `json:"uploaded_before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereContains("Filename", f.Filename).
		WhereEquals("Format", f.Format).
		WhereEquals("Label", f.Label).
		WhereRange("RowCount", f.MinRows, nil).
		WhereRange("UploadedAt", f.UploadedAfter, f.UploadedBefore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if ft := values.Get("format"); ft != "" {
		f.Format = &ft
	}

	if l := values.Get("label"); l != "" {
		f.Label = &l
	}

	if m := values.Get("min_rows"); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			f.MinRows = &n
		}
	}

	f.UploadedAfter = parseTime(values.Get("uploaded_after"))
	f.UploadedBefore = parseTime(values.Get("uploaded_before"))

	return f
}

// parseTime accepts RFC 3339 timestamps or plain dates; anything else is nil.
func parseTime(s string) *time.Time {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func scanDataset(s repository.Scanner) (Dataset, error) {
	var (
		d         Dataset
		schemaRaw []byte
		label     string
	)

	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Filename,
		&d.Format,
		&d.ContentType,
		&d.SizeBytes,
		&d.RowCount,
		&schemaRaw,
		&d.StorageKey,
		&d.UploadedAt,
		&d.UpdatedAt,
		&label,
	)
	if err != nil {
		return d, err
	}

	if err := json.Unmarshal(schemaRaw, &d.Schema); err != nil {
		return d, fmt.Errorf("unmarshal schema: %w", err)
	}

	return d, nil
}

func marshalSchema(s dataset.Schema) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

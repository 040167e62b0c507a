package audits_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/internal/audits"
	"github.com/JaimeStill/parity/pkg/query"
)

func TestFiltersFromQuery(t *testing.T) {
	id := uuid.New()
	values := url.Values{
		"dataset_id":     {id.String()},
		"shuffle":        {"true"},
		"seed":           {"42"},
		"created_after":  {"2026-03-01T12:00:00Z"},
		"created_before": {"not-a-time"},
	}

	f := audits.FiltersFromQuery(values)

	if f.DatasetID == nil || *f.DatasetID != id {
		t.Errorf("DatasetID = %v, want %s", f.DatasetID, id)
	}
	if f.Shuffle == nil || !*f.Shuffle {
		t.Errorf("Shuffle = %v, want true", f.Shuffle)
	}
	if f.Seed == nil || *f.Seed != 42 {
		t.Errorf("Seed = %v, want 42", f.Seed)
	}

	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if f.CreatedAfter == nil || !f.CreatedAfter.Equal(want) {
		t.Errorf("CreatedAfter = %v, want %v", f.CreatedAfter, want)
	}
	if f.CreatedBefore != nil {
		t.Errorf("malformed created_before should be ignored, got %v", f.CreatedBefore)
	}
}

func TestFiltersApplyCreatedWindow(t *testing.T) {
	p := query.NewProjectionMap("public", "audits", "a").
		Project("seed", "Seed").
		Project("created_at", "CreatedAt")

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	seed := int64(7)

	f := audits.Filters{Seed: &seed, CreatedAfter: &from, CreatedBefore: &to}
	sql, args := f.Apply(query.NewBuilder(p)).BuildCount()

	want := "SELECT COUNT(*) FROM public.audits a WHERE a.seed = $1 AND a.created_at >= $2 AND a.created_at < $3"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3", args)
	}
	if strings.Contains(sql, "dataset_id") {
		t.Error("nil DatasetID should not add a condition")
	}
}

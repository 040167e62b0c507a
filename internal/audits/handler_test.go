package audits_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/internal/audits"
	"github.com/JaimeStill/parity/internal/datasets"
	"github.com/JaimeStill/parity/internal/pipeline"
	"github.com/JaimeStill/parity/pkg/metrics"
	"github.com/JaimeStill/parity/pkg/pagination"
	"github.com/JaimeStill/parity/pkg/reweighing"
	"github.com/JaimeStill/parity/pkg/routes"
	"github.com/JaimeStill/parity/pkg/storage"
)

type mockSystem struct {
	listFn       func(ctx context.Context, page pagination.PageRequest, filters audits.Filters) (*pagination.PageResult[audits.Audit], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*audits.Audit, error)
	runFn        func(ctx context.Context, cmd audits.RunCommand) (*audits.Audit, error)
	reweightedFn func(ctx context.Context, id uuid.UUID) (*storage.BlobResult, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler() *audits.Handler {
	return audits.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters audits.Filters) (*pagination.PageResult[audits.Audit], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*audits.Audit, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Run(ctx context.Context, cmd audits.RunCommand) (*audits.Audit, error) {
	return m.runFn(ctx, cmd)
}

func (m *mockSystem) Reweighted(ctx context.Context, id uuid.UUID) (*storage.BlobResult, error) {
	return m.reweightedFn(ctx, id)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

func sampleAudit() audits.Audit {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	return audits.Audit{
		ID:             id,
		DatasetID:      uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		DatasetName:    "german credit",
		Privileged:     metrics.Attribute("age", 1),
		Unprivileged:   metrics.Attribute("age", 0),
		Cuts:           []float64{0.7},
		Shuffle:        true,
		PartitionSizes: []int{700, 300},
		Before:         metrics.Report{MeanDifference: -0.127, DisparateImpact: 0.81},
		After:          metrics.Report{MeanDifference: 0, DisparateImpact: 1},
		Weights: reweighing.Weights{
			PrivilegedFavorable:     0.93,
			PrivilegedUnfavorable:   1.18,
			UnprivilegedFavorable:   1.24,
			UnprivilegedUnfavorable: 0.72,
		},
		ResultKey: fmt.Sprintf("audits/%s/reweighted.json", id),
		CreatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	a := sampleAudit()

	var captured audits.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f audits.Filters) (*pagination.PageResult[audits.Audit], error) {
			captured = f
			result := pagination.NewPageResult([]audits.Audit{a}, 1, 1, 20)
			return &result, nil
		},
	}

	path := "/audits?dataset_id=" + a.DatasetID.String() + "&shuffle=true&seed=abc"

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[audits.Audit]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].Weights != a.Weights {
		t.Errorf("data = %+v, want the sample audit", result.Data)
	}

	if captured.DatasetID == nil || *captured.DatasetID != a.DatasetID {
		t.Errorf("dataset_id filter = %v, want %v", captured.DatasetID, a.DatasetID)
	}
	if captured.Shuffle == nil || !*captured.Shuffle {
		t.Errorf("shuffle filter = %v, want true", captured.Shuffle)
	}
	if captured.Seed != nil {
		t.Errorf("malformed seed should be ignored, got %d", *captured.Seed)
	}
}

func TestHandlerFind(t *testing.T) {
	a := sampleAudit()

	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"found", "/audits/" + a.ID.String(), nil, http.StatusOK},
		{"invalid uuid", "/audits/42", nil, http.StatusBadRequest},
		{"not found", "/audits/" + uuid.New().String(), audits.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				findFn: func(_ context.Context, _ uuid.UUID) (*audits.Audit, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &a, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerReport(t *testing.T) {
	a := sampleAudit()
	sys := &mockSystem{
		findFn: func(_ context.Context, _ uuid.UUID) (*audits.Audit, error) {
			return &a, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/audits/"+a.ID.String()+"/report", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}

	want := strings.Join(a.Lines(), "\n") + "\n"
	if rec.Body.String() != want {
		t.Errorf("body =\n%s\nwant\n%s", rec.Body, want)
	}
	if !strings.Contains(want, "  disparate_impact = 0.810000") {
		t.Errorf("report missing the pre-reweighing disparate impact:\n%s", want)
	}
}

func TestHandlerReweighted(t *testing.T) {
	a := sampleAudit()
	body := `{"schema":{},"records":[]}`

	t.Run("streams the stored partition", func(t *testing.T) {
		sys := &mockSystem{
			reweightedFn: func(_ context.Context, id uuid.UUID) (*storage.BlobResult, error) {
				if id != a.ID {
					return nil, audits.ErrNotFound
				}
				return &storage.BlobResult{
					BlobMeta: storage.BlobMeta{
						Key:           a.ResultKey,
						ContentType:   "application/json",
						ContentLength: int64(len(body)),
					},
					Body: io.NopCloser(strings.NewReader(body)),
				}, nil
			},
		}

		rec := httptest.NewRecorder()
		setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/audits/"+a.ID.String()+"/reweighted", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != body {
			t.Errorf("body = %q, want %q", rec.Body, body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
	})

	t.Run("missing blob", func(t *testing.T) {
		sys := &mockSystem{
			reweightedFn: func(_ context.Context, _ uuid.UUID) (*storage.BlobResult, error) {
				return nil, storage.ErrNotFound
			},
		}

		rec := httptest.NewRecorder()
		setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/audits/"+a.ID.String()+"/reweighted", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestHandlerRun(t *testing.T) {
	a := sampleAudit()

	t.Run("decodes the run command", func(t *testing.T) {
		var captured audits.RunCommand
		sys := &mockSystem{
			runFn: func(_ context.Context, cmd audits.RunCommand) (*audits.Audit, error) {
				captured = cmd
				return &a, nil
			},
		}

		body := fmt.Sprintf(
			`{"dataset_id": %q, "cuts": [0.6], "seed": 7, "privileged": [{"age": 1}], "unprivileged": [{"age": 0}]}`,
			a.DatasetID,
		)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/audits", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		setupMux(sys).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}
		if captured.DatasetID != a.DatasetID {
			t.Errorf("dataset_id = %v, want %v", captured.DatasetID, a.DatasetID)
		}
		if captured.Seed == nil || *captured.Seed != 7 {
			t.Errorf("seed = %v, want 7", captured.Seed)
		}
		if captured.Shuffle != nil {
			t.Errorf("shuffle = %v, want unset", *captured.Shuffle)
		}
		if got := captured.Privileged.String(); got != "{age=1}" {
			t.Errorf("privileged = %s, want {age=1}", got)
		}
	})

	rejected := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed json", "{", nil, http.StatusBadRequest},
		{"missing dataset", `{"cuts": [0.7]}`, nil, http.StatusBadRequest},
		{"unknown dataset", `{"dataset_id": "550e8400-e29b-41d4-a716-446655440000"}`, fmt.Errorf("open dataset: %w", datasets.ErrNotFound), http.StatusNotFound},
		{"invalid request", `{"dataset_id": "550e8400-e29b-41d4-a716-446655440000"}`, pipeline.ErrInvalidRequest, http.StatusBadRequest},
		{"stage failure", `{"dataset_id": "550e8400-e29b-41d4-a716-446655440000"}`, fmt.Errorf("%w: fit: %w", pipeline.ErrStageFailed, reweighing.ErrEmptyCell), http.StatusUnprocessableEntity},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				runFn: func(_ context.Context, _ audits.RunCommand) (*audits.Audit, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &a, nil
				},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/audits", bytes.NewReader([]byte(tt.body)))
			setupMux(sys).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerDelete(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not found", audits.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				deleteFn: func(_ context.Context, got uuid.UUID) error {
					if got != id {
						t.Errorf("id = %v, want %v", got, id)
					}
					return tt.err
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest("DELETE", "/audits/"+id.String(), nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

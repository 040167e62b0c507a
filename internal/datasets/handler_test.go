package datasets_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/parity/internal/datasets"
	"github.com/JaimeStill/parity/pkg/dataset"
	"github.com/JaimeStill/parity/pkg/pagination"
	"github.com/JaimeStill/parity/pkg/routes"
)

const creditCSV = "duration,amount,age,credit\n6,1169,1,1\n48,5951,0,0\n12,2096,1,1\n42,7882,0,1\n"

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters datasets.Filters) (*pagination.PageResult[datasets.Dataset], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*datasets.Dataset, error)
	createFn func(ctx context.Context, cmd datasets.CreateCommand) (*datasets.Dataset, error)
	openFn   func(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *datasets.Handler {
	return datasets.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters datasets.Filters) (*pagination.PageResult[datasets.Dataset], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*datasets.Dataset, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd datasets.CreateCommand) (*datasets.Dataset, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Open(ctx context.Context, id uuid.UUID) (*dataset.Dataset, error) {
	return m.openFn(ctx, id)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(10 * 1024 * 1024).Routes())
	return mux
}

func sampleDataset() datasets.Dataset {
	return datasets.Dataset{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Name:        "german credit",
		Filename:    "german.csv",
		Format:      dataset.FormatCSV,
		ContentType: "text/csv",
		SizeBytes:   int64(len(creditCSV)),
		RowCount:    4,
		Schema: dataset.Schema{
			Features:         []string{"duration", "amount"},
			Label:            "credit",
			Protected:        []string{"age"},
			FavorableLabel:   1,
			UnfavorableLabel: 0,
		},
		StorageKey: "datasets/550e8400-e29b-41d4-a716-446655440000/german.csv",
		UploadedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func uploadForm(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestHandlerList(t *testing.T) {
	d := sampleDataset()

	t.Run("returns paginated list", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, _ datasets.Filters) (*pagination.PageResult[datasets.Dataset], error) {
				result := pagination.NewPageResult([]datasets.Dataset{d}, 1, 1, 20)
				return &result, nil
			},
		}

		rec := httptest.NewRecorder()
		setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/datasets", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[datasets.Dataset]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Total != 1 || len(result.Data) != 1 {
			t.Fatalf("total = %d, data = %d, want 1 and 1", result.Total, len(result.Data))
		}
		if !result.Data[0].Schema.Equal(d.Schema) {
			t.Errorf("schema = %s, want %s", result.Data[0].Schema, d.Schema)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured datasets.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, f datasets.Filters) (*pagination.PageResult[datasets.Dataset], error) {
				captured = f
				result := pagination.NewPageResult([]datasets.Dataset{}, 0, 1, 20)
				return &result, nil
			},
		}

		rec := httptest.NewRecorder()
		setupMux(sys).ServeHTTP(rec, httptest.NewRequest("GET", "/datasets?format=csv&label=credit", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Format == nil || *captured.Format != "csv" {
			t.Errorf("format filter = %v, want csv", captured.Format)
		}
		if captured.Label == nil || *captured.Label != "credit" {
			t.Errorf("label filter = %v, want credit", captured.Label)
		}
		if captured.Name != nil {
			t.Errorf("name filter = %v, want nil", *captured.Name)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	d := sampleDataset()

	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"found", "/datasets/" + d.ID.String(), nil, http.StatusOK},
		{"invalid uuid", "/datasets/not-a-uuid", nil, http.StatusBadRequest},
		{"not found", "/datasets/" + uuid.New().String(), datasets.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				findFn: func(_ context.Context, _ uuid.UUID) (*datasets.Dataset, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &d, nil
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

func TestHandlerSearch(t *testing.T) {
	t.Run("normalizes pagination", func(t *testing.T) {
		var capturedPage pagination.PageRequest
		var capturedFilters datasets.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, f datasets.Filters) (*pagination.PageResult[datasets.Dataset], error) {
				capturedPage = page
				capturedFilters = f
				result := pagination.NewPageResult([]datasets.Dataset{}, 0, page.Page, page.PageSize)
				return &result, nil
			},
		}

		body := []byte(`{"page": 0, "page_size": 500, "name": "german"}`)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/datasets/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		setupMux(sys).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedPage.Page != 1 || capturedPage.PageSize != 100 {
			t.Errorf("page = %d size = %d, want 1 and 100", capturedPage.Page, capturedPage.PageSize)
		}
		if capturedFilters.Name == nil || *capturedFilters.Name != "german" {
			t.Errorf("name filter = %v, want german", capturedFilters.Name)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/datasets/search", bytes.NewReader([]byte("not json")))
		setupMux(&mockSystem{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerUpload(t *testing.T) {
	d := sampleDataset()

	t.Run("maps csv columns from form values", func(t *testing.T) {
		var captured datasets.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd datasets.CreateCommand) (*datasets.Dataset, error) {
				captured = cmd
				return &d, nil
			},
		}

		body, contentType := uploadForm(t, "german.csv", []byte(creditCSV), map[string]string{
			"name":      "german credit",
			"label":     "credit",
			"protected": "age",
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		setupMux(sys).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}
		if captured.Format != dataset.FormatCSV {
			t.Errorf("format = %q, want csv", captured.Format)
		}
		if captured.Name != "german credit" || captured.Filename != "german.csv" {
			t.Errorf("name = %q filename = %q", captured.Name, captured.Filename)
		}

		ds, err := dataset.Decode(bytes.NewReader(captured.Data), captured.Format, captured.Options...)
		if err != nil {
			t.Fatalf("decode with captured options: %v", err)
		}
		if !ds.Schema().Equal(d.Schema) {
			t.Errorf("schema = %s, want %s", ds.Schema(), d.Schema)
		}
	})

	t.Run("custom label values", func(t *testing.T) {
		var captured datasets.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd datasets.CreateCommand) (*datasets.Dataset, error) {
				captured = cmd
				return &d, nil
			},
		}

		data := []byte("age,credit\n1,2\n0,1\n")
		body, contentType := uploadForm(t, "upload.bin", data, map[string]string{
			"format":            "csv",
			"label":             "credit",
			"protected":         "age",
			"favorable_label":   "2",
			"unfavorable_label": "1",
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		setupMux(sys).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}

		ds, err := dataset.Decode(bytes.NewReader(captured.Data), captured.Format, captured.Options...)
		if err != nil {
			t.Fatalf("decode with captured options: %v", err)
		}
		if s := ds.Schema(); s.FavorableLabel != 2 || s.UnfavorableLabel != 1 {
			t.Errorf("label values = %v/%v, want 2/1", s.FavorableLabel, s.UnfavorableLabel)
		}
	})

	rejected := []struct {
		name     string
		filename string
		fields   map[string]string
		err      error
		want     int
	}{
		{"missing file", "", map[string]string{"label": "credit"}, nil, http.StatusBadRequest},
		{"unknown extension", "german.xlsx", nil, nil, http.StatusBadRequest},
		{"non-numeric label value", "german.csv", map[string]string{"favorable_label": "good"}, nil, http.StatusBadRequest},
		{"invalid dataset", "german.csv", nil, datasets.ErrInvalidDataset, http.StatusBadRequest},
		{"duplicate", "german.csv", nil, datasets.ErrDuplicate, http.StatusConflict},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(_ context.Context, _ datasets.CreateCommand) (*datasets.Dataset, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &d, nil
				},
			}

			body, contentType := uploadForm(t, tt.filename, []byte(creditCSV), tt.fields)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/datasets", body)
			req.Header.Set("Content-Type", contentType)
			setupMux(sys).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerUploadLimit(t *testing.T) {
	t.Run("rejects a body over the limit", func(t *testing.T) {
		called := false
		sys := &mockSystem{
			createFn: func(_ context.Context, _ datasets.CreateCommand) (*datasets.Dataset, error) {
				called = true
				return nil, nil
			},
		}

		mux := http.NewServeMux()
		routes.Register(mux, sys.Handler(1024).Routes())

		data := []byte(strings.Repeat(creditCSV, 200))
		body, contentType := uploadForm(t, "german.csv", data, map[string]string{
			"label":     "credit",
			"protected": "age",
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
		if called {
			t.Error("Create called for an oversized upload")
		}
	})

	t.Run("non-multipart body is a bad request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/datasets", strings.NewReader(`{"name":"german"}`))
		req.Header.Set("Content-Type", "application/json")
		setupMux(&mockSystem{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerDelete(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"not found", datasets.ErrNotFound, http.StatusNotFound},
		{"referenced by audits", datasets.ErrInUse, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured uuid.UUID
			sys := &mockSystem{
				deleteFn: func(_ context.Context, got uuid.UUID) error {
					captured = got
					return tt.err
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys).ServeHTTP(rec, httptest.NewRequest("DELETE", "/datasets/"+id.String(), nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if captured != id {
				t.Errorf("id = %v, want %v", captured, id)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{datasets.ErrNotFound, http.StatusNotFound},
		{datasets.ErrDuplicate, http.StatusConflict},
		{datasets.ErrInUse, http.StatusConflict},
		{datasets.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{datasets.ErrInvalidDataset, http.StatusBadRequest},
		{datasets.ErrInvalidID, http.StatusBadRequest},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := datasets.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

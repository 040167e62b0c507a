package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
	"github.com/JaimeStill/parity/pkg/middleware"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=paritystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/paritystore;"

func testInfra(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PARITY_DB_NAME", "parity")
	t.Setenv("PARITY_DB_USER", "parity")
	t.Setenv("PARITY_STORAGE_CONNECTION_STRING", azuriteConnString)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestHealthz(t *testing.T) {
	router := buildRouter(testInfra(t), "1.2.3")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Version != "1.2.3" {
		t.Errorf("body = %+v", got)
	}
	if rec.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("router middleware did not assign a request ID")
	}
}

func TestReadyzBeforeStartup(t *testing.T) {
	router := buildRouter(testInfra(t), "1.2.3")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var got status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "starting" {
		t.Errorf("status = %q, want starting", got.Status)
	}
}

func TestModulesMount(t *testing.T) {
	infra := testInfra(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("NewModules() error = %v", err)
	}

	router := buildRouter(infra, cfg.Version)
	modules.Mount(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/datasets/not-a-uuid", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 from the mounted API module", rec.Code)
	}
}

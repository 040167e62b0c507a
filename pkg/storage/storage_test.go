package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/JaimeStill/parity/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=paritystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/paritystore;"

// newSystem builds a client against a local emulator address. Nothing in
// these tests reaches the network.
func newSystem(t *testing.T) storage.System {
	t.Helper()

	sys, err := storage.New(&storage.Config{
		ContainerName:    storage.DefaultContainer,
		ConnectionString: azuriteConnString,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sys
}

func TestNew(t *testing.T) {
	if newSystem(t) == nil {
		t.Fatal("New() returned nil system")
	}

	_, err := storage.New(&storage.Config{
		ContainerName:    storage.DefaultContainer,
		ConnectionString: "not-a-connection-string",
	}, slog.Default())
	if err == nil {
		t.Error("expected error for malformed connection string")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("download blob audits/x: %w", storage.ErrNotFound), http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{fmt.Errorf("list blobs datasets/: %w", storage.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("unexpected failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseMaxResults(t *testing.T) {
	const fallback int32 = 50

	valid := map[string]int32{
		"":     fallback,
		"100":  100,
		"5000": storage.MaxListCap,
		"9999": storage.MaxListCap,
	}
	for in, want := range valid {
		got, err := storage.ParseMaxResults(in, fallback)
		if err != nil || got != want {
			t.Errorf("ParseMaxResults(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"0", "-1", "abc", "99999999999"} {
		if _, err := storage.ParseMaxResults(in, fallback); err == nil {
			t.Errorf("ParseMaxResults(%q) expected error", in)
		}
	}
}

func TestKeysAreValidatedBeforeRequests(t *testing.T) {
	sys := newSystem(t)
	ctx := context.Background()

	keys := map[string]error{
		"":                             storage.ErrEmptyKey,
		"datasets/../secrets/key":      storage.ErrInvalidKey,
		"audits/..hidden/weights.json": storage.ErrInvalidKey,
	}

	for key, want := range keys {
		ops := map[string]error{
			"Upload": sys.Upload(ctx, key, bytes.NewReader(nil), "application/json"),
			"Delete": sys.Delete(ctx, key),
		}
		_, ops["Download"] = sys.Download(ctx, key)
		_, ops["Find"] = sys.Find(ctx, key)
		_, ops["Exists"] = sys.Exists(ctx, key)

		for op, err := range ops {
			if !errors.Is(err, want) {
				t.Errorf("%s(%q) error = %v, want %v", op, key, err, want)
			}
		}
	}

	if _, err := sys.List(ctx, "datasets/../audits", "", 10); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("List() error = %v, want ErrInvalidKey", err)
	}
}

package infrastructure_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
	"github.com/JaimeStill/parity/pkg/database"
	"github.com/JaimeStill/parity/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=paritystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/paritystore;"

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "parity",
			User:            "parity",
			Password:        "parity",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "datasets",
			ConnectionString: azuriteConnString,
		},
		Version:  "0.1.0",
		LogLevel: "info",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Storage == nil {
		t.Error("Storage is nil")
	}
}

func TestNewLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "warn"

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if infra.Logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !infra.Logger.Enabled(ctx, slog.LevelWarn) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestNewDatabaseConnection(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := infra.Database.Connection()
	if conn == nil {
		t.Fatal("Database.Connection() returned nil")
	}
	conn.Close()
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	_, err := infrastructure.New(cfg)
	if err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		infrastructure.NewLogger(&buf, slog.LevelInfo, config.LogFormatJSON).Info("audit complete", "rows", 1000)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output is not JSON: %v: %s", err, buf.String())
		}
		if entry["msg"] != "audit complete" || entry["rows"] != float64(1000) {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		infrastructure.NewLogger(&buf, slog.LevelInfo, config.LogFormatText).Info("audit complete")

		if !strings.Contains(buf.String(), `msg="audit complete"`) {
			t.Errorf("unexpected text output %q", buf.String())
		}
	})

	t.Run("level", func(t *testing.T) {
		var buf bytes.Buffer
		infrastructure.NewLogger(&buf, slog.LevelWarn, config.LogFormatText).Info("dropped")

		if buf.Len() != 0 {
			t.Errorf("info should be filtered at warn, got %q", buf.String())
		}
	})
}

func TestWithLogger(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	scoped := infra.WithLogger(logger)

	if scoped.Logger != logger {
		t.Error("scoped logger not applied")
	}
	if infra.Logger == logger {
		t.Error("original infrastructure was modified")
	}
	if scoped.Database != infra.Database || scoped.Storage != infra.Storage || scoped.Lifecycle != infra.Lifecycle {
		t.Error("scoped copy should share systems")
	}
}

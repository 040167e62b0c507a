package database_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/parity/pkg/database"
	"github.com/JaimeStill/parity/pkg/lifecycle"
)

func testConfig() database.Config {
	return database.Config{
		Host:            "localhost",
		Port:            5432,
		Name:            "parity",
		User:            "parity",
		Password:        "parity",
		SSLMode:         "disable",
		AppName:         "parity-test",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "3s",
	}
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := testConfig()

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", got)
	}
	if sys.Ready() {
		t.Error("should not be ready before Start")
	}
}

func TestNewRejectsBadSSLMode(t *testing.T) {
	cfg := testConfig()
	cfg.SSLMode = "sometimes"

	if _, err := database.New(&cfg, slog.Default()); err == nil {
		t.Fatal("expected error for unknown sslmode")
	}
}

func TestStartupFailsWithoutServer(t *testing.T) {
	cfg := testConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ConnTimeout = "200ms"

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New(nil)
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err = lc.Startup(context.Background())
	if !errors.Is(err, database.ErrNotReady) {
		t.Fatalf("Startup() error = %v, want ErrNotReady", err)
	}
	if sys.Ready() {
		t.Error("should not be ready after failed ping")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

package database_test

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/parity/pkg/database"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := database.Config{Name: "parity", User: "parity"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "localhost"},
		{"port", cfg.Port, 5432},
		{"ssl_mode", cfg.SSLMode, "disable"},
		{"app_name", cfg.AppName, "parity"},
		{"max_open_conns", cfg.MaxOpenConns, 25},
		{"max_idle_conns", cfg.MaxIdleConns, 5},
		{"conn_max_lifetime", cfg.ConnMaxLifetimeDuration(), 15 * time.Minute},
		{"conn_timeout", cfg.ConnTimeoutDuration(), 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_DB_PORT", "5433")
	t.Setenv("TEST_DB_NAME", "audits")
	t.Setenv("TEST_DB_USER", "auditor")
	t.Setenv("TEST_DB_APP_NAME", "parity-worker")
	t.Setenv("TEST_DB_MAX_OPEN", "50")
	t.Setenv("TEST_DB_MAX_IDLE", "not-a-number")

	env := &database.Env{
		Host:         "TEST_DB_HOST",
		Port:         "TEST_DB_PORT",
		Name:         "TEST_DB_NAME",
		User:         "TEST_DB_USER",
		AppName:      "TEST_DB_APP_NAME",
		MaxOpenConns: "TEST_DB_MAX_OPEN",
		MaxIdleConns: "TEST_DB_MAX_IDLE",
	}

	cfg := database.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "db.internal"},
		{"port", cfg.Port, 5433},
		{"name", cfg.Name, "audits"},
		{"user", cfg.User, "auditor"},
		{"app_name", cfg.AppName, "parity-worker"},
		{"max_open_conns", cfg.MaxOpenConns, 50},
		{"unparsable max_idle_conns keeps default", cfg.MaxIdleConns, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
		want string
	}{
		{"missing name", database.Config{User: "u"}, "name required"},
		{"missing user", database.Config{Name: "n"}, "user required"},
		{"bad port", database.Config{Name: "n", User: "u", Port: 70000}, "invalid port"},
		{"idle exceeds open", database.Config{Name: "n", User: "u", MaxOpenConns: 2, MaxIdleConns: 4}, "exceeds max_open_conns"},
		{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "forever"}, "invalid conn_max_lifetime"},
		{"bad timeout", database.Config{Name: "n", User: "u", ConnTimeout: "soon"}, "invalid conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Port: 5432, Name: "parity", User: "parity"}
	base.Merge(&database.Config{Host: "db.prod", MaxOpenConns: 100})

	if base.Host != "db.prod" {
		t.Errorf("host = %q, want db.prod", base.Host)
	}
	if base.Port != 5432 {
		t.Errorf("port = %d, want 5432 (zero overlay value ignored)", base.Port)
	}
	if base.MaxOpenConns != 100 {
		t.Errorf("max_open_conns = %d, want 100", base.MaxOpenConns)
	}
}

func TestDsn(t *testing.T) {
	cfg := database.Config{
		Host:     "db.internal",
		Port:     5433,
		Name:     "parity",
		User:     "auditor",
		Password: "p@ss/word",
		SSLMode:  "require",
		AppName:  "parity",
	}

	u, err := url.Parse(cfg.Dsn())
	if err != nil {
		t.Fatalf("Dsn() is not a URL: %v", err)
	}

	if u.Scheme != "postgres" || u.Host != "db.internal:5433" || u.Path != "/parity" {
		t.Errorf("unexpected dsn %s", u)
	}
	if pw, _ := u.User.Password(); pw != "p@ss/word" {
		t.Errorf("password = %q, want p@ss/word", pw)
	}
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Errorf("sslmode = %q, want require", got)
	}
	if got := u.Query().Get("application_name"); got != "parity" {
		t.Errorf("application_name = %q, want parity", got)
	}
}

package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hubooks/reading-service/internal/config"
	"github.com/hubooks/reading-service/internal/database"
	"github.com/hubooks/reading-service/internal/repository"
	"github.com/hubooks/reading-service/internal/security"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useTempDatabase(t *testing.T) string {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", config.DBDriverSQLite)
	t.Setenv("DATABASE_URL", dsn)
	return dsn
}

func TestReaderEnrollAndSetPIN(t *testing.T) {
	dsn := useTempDatabase(t)

	out, err := runCLI(t, "", "reader", "enroll", "--name", "Alice", "--pin", "1234", "--target", "7")
	if err != nil {
		t.Fatalf("enroll: %v output=%s", err, out)
	}
	if !strings.Contains(out, "name=Alice") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := runCLI(t, "", "reader", "enroll", "--name", "Alice", "--pin", "1234"); err == nil {
		t.Fatal("duplicate enroll must fail")
	}

	if out, err := runCLI(t, "9876\n", "reader", "set-pin", "--name", "Alice", "--pin-stdin"); err != nil {
		t.Fatalf("set-pin: %v output=%s", err, out)
	}

	db, err := database.Open(&config.Config{DBDriver: config.DBDriverSQLite, DatabaseURL: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	reader, err := repository.NewReaderRepository(db).FindByName(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if reader.TargetCount != 7 {
		t.Fatalf("expected target 7, got %d", reader.TargetCount)
	}
	if !security.VerifyPIN("9876", reader.PinSalt, reader.PinHash) {
		t.Fatal("PIN from stdin must be enrolled")
	}
}

func TestReaderEnrollRejectsShortPIN(t *testing.T) {
	useTempDatabase(t)
	if _, err := runCLI(t, "", "reader", "enroll", "--name", "Bob", "--pin", "12"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMigrateCommand(t *testing.T) {
	useTempDatabase(t)
	out, err := runCLI(t, "", "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "driver=sqlite") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestHealthCommand(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/health/ready" && !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, "", "health", "--base-url", srv.URL, "--ci")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, `"ok":true`) {
		t.Fatalf("unexpected ci output %q", out)
	}

	ready.Store(false)
	if _, err := runCLI(t, "", "health", "--base-url", srv.URL); err == nil {
		t.Fatal("expected failure when readiness is 503")
	}
}

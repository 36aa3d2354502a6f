package database

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/hubooks/reading-service/internal/config"
	"github.com/hubooks/reading-service/internal/domain"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DBDriverSQLite, DatabaseURL: "file:dbtest?mode=memory&cache=shared"}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !db.Migrator().HasTable(&domain.Reader{}) || !db.Migrator().HasTable(&domain.Session{}) {
		t.Fatal("expected readers and sessions tables")
	}

	first := &domain.Reader{Name: "dup", CurrentRound: 1}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err = db.Create(&domain.Reader{Name: "dup", CurrentRound: 1}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected translated duplicate key error, got %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(&config.Config{DBDriver: "mysql", DatabaseURL: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMigrateOnStartupOnlyForSQLite(t *testing.T) {
	if !MigrateOnStartup(&config.Config{DBDriver: config.DBDriverSQLite}) {
		t.Fatal("sqlite databases must migrate on startup")
	}
	if MigrateOnStartup(&config.Config{DBDriver: config.DBDriverPostgres}) {
		t.Fatal("postgres must only migrate through the migrate command")
	}
}

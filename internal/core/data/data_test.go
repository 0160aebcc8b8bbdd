package data

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dcrodman/roulette/internal/core"
)

// Creates a database for testing. For the sake of simplicity, this only uses the
// SQLite engine and creates a new database on every invocation since it is relatively
// cheap to do so.
func setUpDatabase(t *testing.T) *gorm.DB {
	testDBFile := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(testDBFile), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}

	if err = Migrate(db); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}
	t.Cleanup(func() { Close(db) })
	return db
}

func TestOpen(t *testing.T) {
	cfg, err := core.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("error loading config: %v", err)
	}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	if db == nil {
		t.Fatal("Open() with the sqlite engine returned a nil database")
	}
	if err := CreateMatch(db, &Match{ID: "a", Player1: "x", Player2: "y", Result: "P1"}); err != nil {
		t.Errorf("CreateMatch() on an opened database failed: %v", err)
	}
	if err := Close(db); err != nil {
		t.Errorf("Close() returned an unexpected error: %v", err)
	}
}

func TestOpen_None(t *testing.T) {
	cfg := &core.Config{}
	cfg.Database.Engine = "none"

	db, err := Open(cfg)
	if err != nil || db != nil {
		t.Errorf("Open() with engine none want = nil, nil, got = %v, %v", db, err)
	}
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) returned an unexpected error: %v", err)
	}
}

package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	"github.com/rwonjong94/anchormoms-web-sub002/storage/database"
)

// RootDir finds the module root (the directory holding go.mod).
// go-test changes the working directory to the package being tested.
func RootDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("RootDir() failed: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("RootDir() failed: go.mod not found")
		}
		dir = parent
	}
}

// PrepareDB opens the postgres test database described by TEST_DATABASE_* variables,
// migrates it and empties it. Tests are skipped when TEST_DATABASE_HOST is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TEST_DATABASE_PORT"))
	if port == 0 {
		port = 5432
	}
	conf := core.DBConfig{
		Engine:     "postgres",
		Host:       host,
		Port:       port,
		Name:       envOr("TEST_DATABASE_NAME", "anchormoms_test"),
		User:       envOr("TEST_DATABASE_USER", "anchormoms"),
		Password:   os.Getenv("TEST_DATABASE_PASSWORD"),
		DisableTLS: true,
	}

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB, filepath.Join(RootDir(t), "migrations"), "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB deletes every roadmap.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE roadmap, roadmap_override"); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

// CreateRoadmap stores a roadmap for studentID, with optional override arrays.
func CreateRoadmap(
	t *testing.T,
	repo roadmap.Repository,
	studentID string,
	base roadmap.BaseSettings,
	extras ...roadmap.Extras,
) roadmap.Document {
	t.Helper()
	doc := roadmap.Document{Base: base}
	if len(extras) > 0 {
		doc.Extras = extras[0]
	}
	if err := repo.SaveRoadmap(context.Background(), studentID, doc); err != nil {
		t.Fatalf("CreateRoadmap() failed: %v", err)
	}
	return doc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

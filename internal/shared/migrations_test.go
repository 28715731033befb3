package shared

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return count > 0
}

func TestMigrations(t *testing.T) {
	t.Run("creates the cache schema", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("migrations failed: %v", err)
		}

		for _, table := range []string{"tracks", "page_entries", "schema_migrations"} {
			if !tableExists(t, db, table) {
				t.Errorf("table %s missing after migration", table)
			}
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatal(err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		var applied int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
			t.Fatal(err)
		}
		if applied != 1 {
			t.Errorf("expected 1 applied migration, got %d", applied)
		}
	})

	t.Run("rollback removes the schema", func(t *testing.T) {
		db := newTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatal(err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}

		if tableExists(t, db, "tracks") {
			t.Error("tracks table survived rollback")
		}
		if tableExists(t, db, "page_entries") {
			t.Error("page_entries table survived rollback")
		}
	})

	t.Run("rollback with nothing applied fails", func(t *testing.T) {
		db := newTestDB(t)
		if err := createMigrationsTable(db); err != nil {
			t.Fatal(err)
		}

		if err := RollbackMigration(db); err == nil {
			t.Fatal("expected an error with no applied migrations")
		}
	})

	t.Run("unique constraint dedupes tracks", func(t *testing.T) {
		db := newTestDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatal(err)
		}

		insert := `INSERT INTO tracks (service, service_id, title) VALUES ('spotify', 't1', 'Song')`
		if _, err := db.Exec(insert); err != nil {
			t.Fatal(err)
		}
		if _, err := db.Exec(insert); err == nil {
			t.Error("duplicate track row accepted")
		}
	})
}

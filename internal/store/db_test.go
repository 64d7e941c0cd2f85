package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMemory(t *testing.T) {
	db := testDB(t)

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion = %d, want 3", v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "memories", "vault_entries", "index_memories"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMemoriesConstraints(t *testing.T) {
	db := testDB(t)

	// Valid insert
	_, err := db.Exec(`
		INSERT INTO memories (layer, key, value, created_at)
		VALUES ('episodic', 'episodic:u1:1000', 'hello', 1000)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Unknown layer rejected by CHECK
	_, err = db.Exec(`
		INSERT INTO memories (layer, key, value, created_at)
		VALUES ('ephemeral', 'x', 'y', 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid layer, got nil")
	}

	// Duplicate key rejected by UNIQUE
	_, err = db.Exec(`
		INSERT INTO memories (layer, key, value, created_at)
		VALUES ('working', 'episodic:u1:1000', 'again', 1000)
	`)
	if err == nil {
		t.Error("expected error for duplicate key, got nil")
	}
}

func TestVaultConstraints(t *testing.T) {
	db := testDB(t)

	_, err := db.Exec(`
		INSERT INTO vault_entries (namespace, key, value, created_at, updated_at)
		VALUES ('knowledge', 'fact', x'00', 1000, 1000)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO vault_entries (namespace, key, value, created_at, updated_at)
		VALUES ('secret', 'fact', x'00', 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid namespace, got nil")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 3 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 3", v)
	}
}

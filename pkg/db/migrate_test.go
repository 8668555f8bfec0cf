package db

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver, needed for tests
)

// checkTableExists is a test helper to verify that a table exists.
func checkTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()
	query := fmt.Sprintf("SELECT name FROM sqlite_master WHERE type='table' AND name='%s';", tableName)
	var name string
	err := db.QueryRow(query).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			t.Errorf("Table '%s' does not exist, but it should.", tableName)
			return
		}
		t.Fatalf("Error checking if table '%s' exists: %v", tableName, err)
	}
	if name != tableName {
		t.Errorf("Table check query returned '%s' but expected '%s'", name, tableName)
	}
}

// checkIndexExists is a test helper to verify that an index exists.
func checkIndexExists(t *testing.T, db *sql.DB, indexName string) {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name = ?;", indexName).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			t.Errorf("Index '%s' does not exist, but it should.", indexName)
			return
		}
		t.Fatalf("Error checking if index '%s' exists: %v", indexName, err)
	}
}

func TestUpgradeDB_NewDatabase(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion); err != nil {
		t.Fatalf("UpgradeDB failed on a new in-memory database: %v", err)
	}

	expectedTables := []string{"mdtrack_versions", "meta", "projects", "decks", "matches", "tags", "match_tags", "match_tag_names", "preferences"}
	for _, tableName := range expectedTables {
		checkTableExists(t, db, tableName)
	}

	expectedIndexes := []string{
		"idx_projects_updated_at", "idx_decks_name",
		"idx_matches_project", "idx_matches_played_at",
		"idx_matches_my_deck_name", "idx_matches_op_deck_name",
		"idx_matches_result", "idx_matches_turn_order",
		"idx_tags_name", "idx_match_tag_names_tag_name",
	}
	for _, indexName := range expectedIndexes {
		checkIndexExists(t, db, indexName)
	}

	version, err := GetComponentSchemaVersion(db, TrackerDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed after UpgradeDB: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("Expected component '%s' to be at version %d, but got %d", TrackerDBComponent, TargetSchemaVersion, version)
	}

	// The meta singleton should carry the same version.
	var metaVersion int64
	if err := db.QueryRow("SELECT schema_version FROM meta WHERE id = ?;", MetaID).Scan(&metaVersion); err != nil {
		t.Fatalf("Failed to read meta singleton: %v", err)
	}
	if metaVersion != TargetSchemaVersion {
		t.Errorf("Expected meta schema_version %d, got %d", TargetSchemaVersion, metaVersion)
	}
}

func TestUpgradeDB_SecondRunPerformsNoWrites(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion); err != nil {
		t.Fatalf("First UpgradeDB failed: %v", err)
	}

	var changesBefore int64
	if err := db.QueryRow("SELECT total_changes();").Scan(&changesBefore); err != nil {
		t.Fatalf("Failed to read total_changes before second upgrade: %v", err)
	}

	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion); err != nil {
		t.Fatalf("Second UpgradeDB failed: %v", err)
	}

	var changesAfter int64
	if err := db.QueryRow("SELECT total_changes();").Scan(&changesAfter); err != nil {
		t.Fatalf("Failed to read total_changes after second upgrade: %v", err)
	}

	if changesAfter != changesBefore {
		t.Errorf("Second UpgradeDB at the same target performed %d writes; expected 0", changesAfter-changesBefore)
	}
}

func TestUpgradeDB_StepwiseFromV1(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	// Bring the database up to version 1 only, then to the full target.
	if err := UpgradeDB(db, ":memory:", 1); err != nil {
		t.Fatalf("UpgradeDB to version 1 failed: %v", err)
	}

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='tags';").Scan(&name)
	if err != sql.ErrNoRows {
		t.Fatalf("tags table should not exist at schema version 1 (err=%v)", err)
	}

	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion); err != nil {
		t.Fatalf("UpgradeDB from 1 to %d failed: %v", TargetSchemaVersion, err)
	}

	for _, tableName := range []string{"tags", "match_tags", "match_tag_names", "preferences"} {
		checkTableExists(t, db, tableName)
	}

	version, err := GetComponentSchemaVersion(db, TrackerDBComponent)
	if err != nil {
		t.Fatalf("GetComponentSchemaVersion failed: %v", err)
	}
	if version != TargetSchemaVersion {
		t.Errorf("Expected version %d after stepwise upgrade, got %d", TargetSchemaVersion, version)
	}
}

func TestUpgradeDB_NewerVersionUnsupported(t *testing.T) {
	db, err := OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("OpenDBConnection failed for in-memory DB: %v", err)
	}
	defer db.Close()

	if err := UpgradeDB(db, ":memory:", TargetSchemaVersion); err != nil {
		t.Fatalf("UpgradeDB failed: %v", err)
	}

	// Simulate a database written by a newer build.
	newerVersion := TargetSchemaVersion + 1
	if _, err := db.Exec("UPDATE mdtrack_versions SET version = ? WHERE component = ?;", newerVersion, TrackerDBComponent); err != nil {
		t.Fatalf("Failed to bump stored version: %v", err)
	}

	err = UpgradeDB(db, ":memory:", TargetSchemaVersion)
	if err == nil {
		t.Fatalf("UpgradeDB should have failed for a newer DB version, but it did not")
	}

	expectedErrorMsg := fmt.Sprintf("component %s in database ':memory:' has schema version %d, which is newer than application's target schema version %d", TrackerDBComponent, newerVersion, TargetSchemaVersion)
	if !strings.Contains(err.Error(), expectedErrorMsg) {
		t.Errorf("UpgradeDB error message mismatch.\nExpected to contain: %s\nGot: %s", expectedErrorMsg, err.Error())
	}

	currentVersion, getErr := GetComponentSchemaVersion(db, TrackerDBComponent)
	if getErr != nil {
		t.Fatalf("GetComponentSchemaVersion failed after attempted downgrade: %v", getErr)
	}
	if currentVersion != newerVersion {
		t.Errorf("Database schema version changed from %d to %d after a failed upgrade attempt that should have been a no-op.", newerVersion, currentVersion)
	}
}

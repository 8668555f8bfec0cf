package db

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
)

const (
	// TargetSchemaVersion is the highest schema version this build of the
	// code supports for the trackerdb component.
	TargetSchemaVersion int64 = 2
	// TrackerDBComponent is the component name under which the match
	// tracker schema is versioned.
	TrackerDBComponent = "trackerdb"
	// MetaID is the key of the singleton metadata record.
	MetaID = "app"
)

// Migration is one discrete, idempotent schema step. Steps apply in order
// and each is gated by the stored version being below Version, so a step
// never runs twice against the same database. The DDL itself uses
// IF NOT EXISTS throughout: an index or table that already exists is
// success, not an error.
type Migration struct {
	Version int64
	Name    string
	SQL     string
}

// Migrations is the ordered list of schema steps for trackerdb.
var Migrations = []Migration{
	{Version: 1, Name: "base collections and lookup indexes", SQL: SchemaV1},
	{Version: 2, Name: "tags, flattened tag-name index, preferences", SQL: SchemaV2},
}

// GetComponentSchemaVersion retrieves the schema version for a component.
// Returns 0 if the component is not versioned yet or the versions table
// does not exist (a fresh database).
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM mdtrack_versions WHERE component = ?;`
	row := db.QueryRow(query, componentName)

	var version int64
	err := row.Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "mdtrack_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// UpgradeDB brings the trackerdb component of the database up to
// targetVersion by applying, inside a single transaction, every migration
// step whose version is above the stored version and at or below the
// target. A database already at the target performs no writes at all. A
// database newer than the target is an error: this build cannot know what
// the extra schema means. dbIdentifierForLog is used for logging only.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, targetVersion int64) error {
	currentVersion, err := GetComponentSchemaVersion(db, TrackerDBComponent)
	if err != nil {
		return err
	}

	if currentVersion == targetVersion {
		fmt.Fprintf(os.Stderr, "Component %s in database '%s' is already up to date (schema version %d).\n", TrackerDBComponent, dbIdentifierForLog, currentVersion)
		return nil
	}
	if currentVersion > targetVersion {
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", TrackerDBComponent, dbIdentifierForLog, currentVersion, targetVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction for '%s': %w", dbIdentifierForLog, err)
	}
	defer tx.Rollback()

	for _, m := range Migrations {
		if currentVersion >= m.Version || m.Version > targetVersion {
			continue
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration step %d (%s) failed for '%s': %w", m.Version, m.Name, dbIdentifierForLog, err)
		}
		fmt.Fprintf(os.Stderr, "Applied migration step %d (%s) to database '%s'\n", m.Version, m.Name, dbIdentifierForLog)
	}

	setVersionSQL := `
INSERT INTO mdtrack_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`
	if _, err := tx.Exec(setVersionSQL, TrackerDBComponent, targetVersion); err != nil {
		return fmt.Errorf("failed to record schema version %d for component %s: %w", targetVersion, TrackerDBComponent, err)
	}

	setMetaSQL := `
INSERT INTO meta (id, schema_version) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version, updated_at = unixepoch();`
	if _, err := tx.Exec(setMetaSQL, MetaID, targetVersion); err != nil {
		return fmt.Errorf("failed to update meta record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration for '%s': %w", dbIdentifierForLog, err)
	}

	fmt.Fprintf(os.Stderr, "Component %s in database '%s' upgraded to schema version %d\n", TrackerDBComponent, dbIdentifierForLog, targetVersion)
	return nil
}

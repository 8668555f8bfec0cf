package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	pkgdb "github.com/mdtracker/mdtrack/pkg/db"
	"github.com/mdtracker/mdtrack/pkg/utils"
)

// resolveDBPath expands the --dbpath flag (falling back to the per-user
// default location) and makes sure the parent directory exists.
func resolveDBPath() (string, error) {
	return utils.ResolveAndEnsureDBPath(dbPath)
}

// openDB opens the tracker database and brings an uninitialized or
// out-of-date schema up to the current version.
func openDB() (*sql.DB, error) {
	resolvedPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}

	dbConn, err := pkgdb.OpenDBConnection(resolvedPath, true, "NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	currentVersion, err := pkgdb.GetComponentSchemaVersion(dbConn, pkgdb.TrackerDBComponent)
	if err != nil {
		dbConn.Close()
		return nil, err
	}
	if currentVersion < pkgdb.TargetSchemaVersion {
		if err := pkgdb.UpgradeDB(dbConn, resolvedPath, pkgdb.TargetSchemaVersion); err != nil {
			dbConn.Close()
			return nil, err
		}
	}
	return dbConn, nil
}

// printJSON renders a record (or list of records) as indented JSON.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

// splitList parses a comma-separated flag value into trimmed, non-empty items.
func splitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}

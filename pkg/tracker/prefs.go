package tracker

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrPreferenceNotFound = errors.New("preference not found")
)

// Well-known preference keys. "Last selected" UI state lives here instead
// of in ambient globals.
const (
	PrefActiveProject = "activeProjectId"
	PrefLastDeck      = "lastDeckId"
)

const (
	setPreferenceStatement = `
	INSERT INTO preferences (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = unixepoch()
	`

	getPreferenceStatement = `
	SELECT value FROM preferences WHERE key = ?
	`

	deletePreferenceStatement = `
	DELETE FROM preferences WHERE key = ?
	`
)

func SetPreference(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx, setPreferenceStatement, key, value)
	return err
}

func GetPreference(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, getPreferenceStatement, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrPreferenceNotFound
		}
		return "", err
	}
	return value, nil
}

func DeletePreference(ctx context.Context, db *sql.DB, key string) error {
	_, err := db.ExecContext(ctx, deletePreferenceStatement, key)
	return err
}

package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTagNotFound = errors.New("tag not found")
)

const (
	createTagStatement = `
	INSERT INTO tags (id, name, color, description)
	VALUES (?, ?, ?, ?)
	`

	getTagStatement = `
	SELECT id, name, color, description, created_at, updated_at
	FROM tags
	WHERE id = ?
	`

	getTagByNameStatement = `
	SELECT id, name, color, description, created_at, updated_at
	FROM tags
	WHERE name = ?
	ORDER BY created_at ASC
	LIMIT 1
	`

	listTagsStatement = `
	SELECT id, name, color, description, created_at, updated_at
	FROM tags
	ORDER BY name ASC
	`

	renameTagStatement = `
	UPDATE tags
	SET name = ?, updated_at = unixepoch()
	WHERE id = ?
	`

	deleteTagStatement = `
	DELETE FROM tags
	WHERE id = ?
	`

	// Bumps updated_at on exactly the matches that carry a reference to
	// the tag being deleted; matches without one see no write at all.
	touchMatchesForTagStatement = `
	UPDATE matches
	SET updated_at = unixepoch()
	WHERE id IN (SELECT DISTINCT match_id FROM match_tags WHERE tag_id = ?)
	`

	nullTagReferencesStatement = `
	UPDATE match_tags
	SET tag_id = NULL
	WHERE tag_id = ?
	`
)

func scanTag(row interface{ Scan(...any) error }) (Tag, error) {
	var tag Tag
	var color, description sql.NullString

	err := row.Scan(
		&tag.ID,
		&tag.Name,
		&color,
		&description,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		return Tag{}, err
	}

	tag.Color = color.String
	tag.Description = description.String
	return tag, nil
}

// CreateTag stores a new tag. Duplicate names are allowed at this level;
// callers that want uniqueness check with GetTagByName first.
func CreateTag(ctx context.Context, db *sql.DB, name, color, description string) (Tag, error) {
	tagID := uuid.New()

	_, err := db.ExecContext(
		ctx,
		createTagStatement,
		tagID,
		name,
		nullableString(color),
		nullableString(description),
	)
	if err != nil {
		return Tag{}, err
	}

	return GetTag(ctx, db, tagID)
}

func GetTag(ctx context.Context, db *sql.DB, id uuid.UUID) (Tag, error) {
	tag, err := scanTag(db.QueryRowContext(ctx, getTagStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, err
	}
	return tag, nil
}

// GetTagByName returns the oldest tag with the given name, or
// ErrTagNotFound.
func GetTagByName(ctx context.Context, db *sql.DB, name string) (Tag, error) {
	tag, err := scanTag(db.QueryRowContext(ctx, getTagByNameStatement, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tag{}, ErrTagNotFound
		}
		return Tag{}, err
	}
	return tag, nil
}

func ListTags(ctx context.Context, db *sql.DB) ([]Tag, error) {
	rows, err := db.QueryContext(ctx, listTagsStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

// RenameTag changes the tag entity's name only. Matches keep whatever
// tag-name snapshot they were written with; rename is never retroactive.
func RenameTag(ctx context.Context, db *sql.DB, id uuid.UUID, newName string) (Tag, error) {
	res, err := db.ExecContext(ctx, renameTagStatement, newName, id)
	if err != nil {
		return Tag{}, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Tag{}, err
	}

	if rowsAffected == 0 {
		return Tag{}, ErrTagNotFound
	}

	return GetTag(ctx, db, id)
}

// DeleteTag removes the tag entity and, in the same transaction, nulls the
// tag_id of every match tag reference that pointed to it. Tag-name
// snapshots and the flattened tag-name index are left untouched, so
// history stays human-readable after the entity is gone.
func DeleteTag(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tag delete transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deleteTagStatement, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTagNotFound
	}

	// Touch referencing matches before the references lose their tag_id.
	if _, err := tx.ExecContext(ctx, touchMatchesForTagStatement, id); err != nil {
		return fmt.Errorf("failed to bump matches referencing tag %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, nullTagReferencesStatement, id); err != nil {
		return fmt.Errorf("failed to null tag references for tag %s: %w", id, err)
	}

	return tx.Commit()
}

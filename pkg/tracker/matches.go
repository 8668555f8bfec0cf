package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMatchNotFound = errors.New("match not found")
)

const (
	createMatchStatement = `
	INSERT INTO matches (id, project_id, played_at, result, turn_order, coin_method, coin_value, rating, my_deck_id, my_deck_name, op_deck_name, note, deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	getMatchStatement = `
	SELECT id, project_id, played_at, result, turn_order, coin_method, coin_value, rating, my_deck_id, my_deck_name, op_deck_name, note, deleted, created_at, updated_at
	FROM matches
	WHERE id = ?
	`

	listMatchesByProjectStatement = `
	SELECT id, project_id, played_at, result, turn_order, coin_method, coin_value, rating, my_deck_id, my_deck_name, op_deck_name, note, deleted, created_at, updated_at
	FROM matches
	WHERE project_id = ? AND deleted = FALSE
	ORDER BY played_at ASC
	`

	listAllMatchesByProjectStatement = `
	SELECT id, project_id, played_at, result, turn_order, coin_method, coin_value, rating, my_deck_id, my_deck_name, op_deck_name, note, deleted, created_at, updated_at
	FROM matches
	WHERE project_id = ?
	ORDER BY played_at ASC
	`

	listAllMatchesStatement = `
	SELECT id, project_id, played_at, result, turn_order, coin_method, coin_value, rating, my_deck_id, my_deck_name, op_deck_name, note, deleted, created_at, updated_at
	FROM matches
	ORDER BY played_at ASC
	`

	listMatchesByTagStatement = `
	SELECT m.id, m.project_id, m.played_at, m.result, m.turn_order, m.coin_method, m.coin_value, m.rating, m.my_deck_id, m.my_deck_name, m.op_deck_name, m.note, m.deleted, m.created_at, m.updated_at
	FROM matches m
	JOIN match_tag_names mtn ON mtn.match_id = m.id
	WHERE mtn.tag_name = ? AND m.deleted = FALSE
	ORDER BY m.played_at ASC
	`

	updateMatchStatement = `
	UPDATE matches
	SET project_id = ?, played_at = ?, result = ?, turn_order = ?, coin_method = ?, coin_value = ?, rating = ?, my_deck_id = ?, my_deck_name = ?, op_deck_name = ?, note = ?, updated_at = unixepoch()
	WHERE id = ?
	`

	setMatchDeletedStatement = `
	UPDATE matches
	SET deleted = ?, updated_at = unixepoch()
	WHERE id = ?
	`

	getMatchTagsStatement = `
	SELECT tag_id, tag_name
	FROM match_tags
	WHERE match_id = ?
	ORDER BY position ASC
	`

	deleteMatchTagsStatement     = `DELETE FROM match_tags WHERE match_id = ?`
	deleteMatchTagNamesStatement = `DELETE FROM match_tag_names WHERE match_id = ?`
	insertMatchTagStatement      = `INSERT INTO match_tags (match_id, position, tag_id, tag_name) VALUES (?, ?, ?, ?)`
	insertMatchTagNameStatement  = `INSERT INTO match_tag_names (match_id, tag_name) VALUES (?, ?)`
)

// execer covers *sql.DB and *sql.Tx for the write helpers shared between
// the direct and transactional paths.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanMatch(row interface{ Scan(...any) error }) (Match, error) {
	var match Match
	var coinValue, note sql.NullString
	var rating sql.NullFloat64
	var myDeckID uuid.NullUUID

	err := row.Scan(
		&match.ID,
		&match.ProjectID,
		&match.PlayedAt,
		&match.Result,
		&match.TurnOrder,
		&match.Initiative.Method,
		&coinValue,
		&rating,
		&myDeckID,
		&match.MyDeckName,
		&match.OpDeckName,
		&note,
		&match.Deleted,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err != nil {
		return Match{}, err
	}

	match.Initiative.Value = coinValue.String
	match.Note = note.String
	if rating.Valid {
		r := rating.Float64
		match.Rating = &r
	}
	if myDeckID.Valid {
		id := myDeckID.UUID
		match.MyDeckID = &id
	}
	return match, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// writeMatchTags replaces a match's tag references and its flattened
// tag-name rows inside the caller's transaction, keeping the derived set
// consistent with the reference list by construction.
func writeMatchTags(ctx context.Context, tx execer, matchID uuid.UUID, refs []TagRef) error {
	if _, err := tx.ExecContext(ctx, deleteMatchTagsStatement, matchID); err != nil {
		return fmt.Errorf("failed to clear tag references for match %s: %w", matchID, err)
	}
	if _, err := tx.ExecContext(ctx, deleteMatchTagNamesStatement, matchID); err != nil {
		return fmt.Errorf("failed to clear flattened tag names for match %s: %w", matchID, err)
	}

	for position, ref := range refs {
		if _, err := tx.ExecContext(ctx, insertMatchTagStatement, matchID, position, nullableUUID(ref.TagID), ref.TagName); err != nil {
			return fmt.Errorf("failed to insert tag reference %d for match %s: %w", position, matchID, err)
		}
	}

	for _, name := range FlatTagNames(refs) {
		if _, err := tx.ExecContext(ctx, insertMatchTagNameStatement, matchID, name); err != nil {
			return fmt.Errorf("failed to insert flattened tag name %q for match %s: %w", name, matchID, err)
		}
	}

	return nil
}

func insertMatchRow(ctx context.Context, tx execer, match Match) error {
	_, err := tx.ExecContext(
		ctx,
		createMatchStatement,
		match.ID,
		match.ProjectID,
		match.PlayedAt,
		match.Result,
		match.TurnOrder,
		match.Initiative.Method,
		nullableString(match.Initiative.Value),
		nullableFloat(match.Rating),
		nullableUUID(match.MyDeckID),
		match.MyDeckName,
		match.OpDeckName,
		nullableString(match.Note),
		match.Deleted,
	)
	return err
}

// CreateMatch stores a new match. Identity is assigned here; the tag
// references and their flattened name set are written in the same
// transaction as the row.
func CreateMatch(ctx context.Context, db *sql.DB, match Match) (Match, error) {
	match.ID = uuid.New()
	match.Deleted = false
	if match.Initiative.Method == "" {
		match.Initiative.Method = InitiativeCoin
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, fmt.Errorf("failed to begin match create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertMatchRow(ctx, tx, match); err != nil {
		return Match{}, err
	}
	if err := writeMatchTags(ctx, tx, match.ID, match.Tags); err != nil {
		return Match{}, err
	}
	if err := tx.Commit(); err != nil {
		return Match{}, err
	}

	return GetMatch(ctx, db, match.ID)
}

func GetMatch(ctx context.Context, db *sql.DB, id uuid.UUID) (Match, error) {
	match, err := scanMatch(db.QueryRowContext(ctx, getMatchStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, ErrMatchNotFound
		}
		return Match{}, err
	}

	rows, err := db.QueryContext(ctx, getMatchTagsStatement, id)
	if err != nil {
		return Match{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ref TagRef
		var tagID uuid.NullUUID
		if err := rows.Scan(&tagID, &ref.TagName); err != nil {
			return Match{}, err
		}
		if tagID.Valid {
			tid := tagID.UUID
			ref.TagID = &tid
		}
		match.Tags = append(match.Tags, ref)
	}
	if err = rows.Err(); err != nil {
		return Match{}, err
	}

	match.TagsFlat = FlatTagNames(match.Tags)
	return match, nil
}

// UpdateMatch replaces a match's mutable fields and tag list. Callers do
// read-modify-write: GetMatch, merge, UpdateMatch. A missing id fails with
// ErrMatchNotFound instead of silently creating a record.
func UpdateMatch(ctx context.Context, db *sql.DB, match Match) (Match, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Match{}, fmt.Errorf("failed to begin match update transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		updateMatchStatement,
		match.ProjectID,
		match.PlayedAt,
		match.Result,
		match.TurnOrder,
		match.Initiative.Method,
		nullableString(match.Initiative.Value),
		nullableFloat(match.Rating),
		nullableUUID(match.MyDeckID),
		match.MyDeckName,
		match.OpDeckName,
		nullableString(match.Note),
		match.ID,
	)
	if err != nil {
		return Match{}, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Match{}, err
	}
	if rowsAffected == 0 {
		return Match{}, ErrMatchNotFound
	}

	if err := writeMatchTags(ctx, tx, match.ID, match.Tags); err != nil {
		return Match{}, err
	}
	if err := tx.Commit(); err != nil {
		return Match{}, err
	}

	return GetMatch(ctx, db, match.ID)
}

// SetMatchDeleted soft-deletes or restores a match. Soft-deleted matches
// stay retrievable; only the default listings and analytics skip them.
func SetMatchDeleted(ctx context.Context, db *sql.DB, id uuid.UUID, deleted bool) error {
	res, err := db.ExecContext(ctx, setMatchDeletedStatement, deleted, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMatchNotFound
	}

	return nil
}

func queryMatches(ctx context.Context, db *sql.DB, query string, args ...any) ([]Match, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if err := loadTagsForMatches(ctx, db, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// loadTagsForMatches fills Tags and TagsFlat for a listing in one query.
func loadTagsForMatches(ctx context.Context, db *sql.DB, matches []Match) error {
	if len(matches) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(matches))
	placeholders := make([]string, len(matches))
	args := make([]any, len(matches))
	for i := range matches {
		index[matches[i].ID] = i
		placeholders[i] = "?"
		args[i] = matches[i].ID
	}

	query := fmt.Sprintf(`
	SELECT match_id, tag_id, tag_name
	FROM match_tags
	WHERE match_id IN (%s)
	ORDER BY match_id, position ASC
	`, strings.Join(placeholders, ","))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var matchID uuid.UUID
		var tagID uuid.NullUUID
		var ref TagRef
		if err := rows.Scan(&matchID, &tagID, &ref.TagName); err != nil {
			return err
		}
		if tagID.Valid {
			tid := tagID.UUID
			ref.TagID = &tid
		}
		i, ok := index[matchID]
		if !ok {
			continue
		}
		matches[i].Tags = append(matches[i].Tags, ref)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	for i := range matches {
		matches[i].TagsFlat = FlatTagNames(matches[i].Tags)
	}
	return nil
}

// ListMatchesByProject returns a project's non-deleted matches sorted
// ascending by played-at instant.
func ListMatchesByProject(ctx context.Context, db *sql.DB, projectID uuid.UUID) ([]Match, error) {
	return queryMatches(ctx, db, listMatchesByProjectStatement, projectID)
}

// ListAllMatchesByProject returns every match of a project including
// soft-deleted ones, for history and audit views.
func ListAllMatchesByProject(ctx context.Context, db *sql.DB, projectID uuid.UUID) ([]Match, error) {
	return queryMatches(ctx, db, listAllMatchesByProjectStatement, projectID)
}

// ListMatchesByTag returns non-deleted matches whose flattened tag-name
// set contains tagName, via the match_tag_names index.
func ListMatchesByTag(ctx context.Context, db *sql.DB, tagName string) ([]Match, error) {
	return queryMatches(ctx, db, listMatchesByTagStatement, tagName)
}

func listAllMatches(ctx context.Context, db *sql.DB) ([]Match, error) {
	return queryMatches(ctx, db, listAllMatchesStatement)
}

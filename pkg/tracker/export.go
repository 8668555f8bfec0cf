package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgdb "github.com/mdtracker/mdtrack/pkg/db"
)

// ExportDocument is the JSON backup format. A full export carries all four
// collections; partial documents (any subset of the collections) are valid
// import input.
type ExportDocument struct {
	ExportedAt      string     `json:"exportedAt"`
	SchemaVersion   int64      `json:"schemaVersion"`
	ActiveProjectID *uuid.UUID `json:"activeProjectId,omitempty"`
	Projects        []Project  `json:"projects,omitempty"`
	Decks           []Deck     `json:"decks,omitempty"`
	Tags            []Tag      `json:"tags,omitempty"`
	Matches         []Match    `json:"matches,omitempty"`
}

// ProjectExportDocument is the project-scoped export variant: one project
// and its matches. Deck and tag context travels as the name snapshots
// already present on each match.
type ProjectExportDocument struct {
	ExportedAt    string  `json:"exportedAt"`
	SchemaVersion int64   `json:"schemaVersion"`
	Project       Project `json:"project"`
	Matches       []Match `json:"matches"`
}

// ImportCounts reports how many records each collection upserted.
type ImportCounts struct {
	Projects int `json:"projects"`
	Decks    int `json:"decks"`
	Tags     int `json:"tags"`
	Matches  int `json:"matches"`
}

func exportStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ExportAll produces a full backup: every project (archived included),
// deck, tag, and match (soft-deleted included).
func ExportAll(ctx context.Context, db *sql.DB, activeProjectID *uuid.UUID) (ExportDocument, error) {
	projects, err := ListProjects(ctx, db, true)
	if err != nil {
		return ExportDocument{}, fmt.Errorf("failed to export projects: %w", err)
	}
	decks, err := ListDecks(ctx, db)
	if err != nil {
		return ExportDocument{}, fmt.Errorf("failed to export decks: %w", err)
	}
	tags, err := ListTags(ctx, db)
	if err != nil {
		return ExportDocument{}, fmt.Errorf("failed to export tags: %w", err)
	}
	matches, err := listAllMatches(ctx, db)
	if err != nil {
		return ExportDocument{}, fmt.Errorf("failed to export matches: %w", err)
	}

	return ExportDocument{
		ExportedAt:      exportStamp(),
		SchemaVersion:   pkgdb.TargetSchemaVersion,
		ActiveProjectID: activeProjectID,
		Projects:        projects,
		Decks:           decks,
		Tags:            tags,
		Matches:         matches,
	}, nil
}

// ExportProject produces the project-scoped variant, including the
// project's soft-deleted matches.
func ExportProject(ctx context.Context, db *sql.DB, projectID uuid.UUID) (ProjectExportDocument, error) {
	project, err := GetProject(ctx, db, projectID)
	if err != nil {
		return ProjectExportDocument{}, err
	}
	matches, err := ListAllMatchesByProject(ctx, db, projectID)
	if err != nil {
		return ProjectExportDocument{}, fmt.Errorf("failed to export matches for project %s: %w", projectID, err)
	}

	return ProjectExportDocument{
		ExportedAt:    exportStamp(),
		SchemaVersion: pkgdb.TargetSchemaVersion,
		Project:       project,
		Matches:       matches,
	}, nil
}

// ExportDecks produces the decks-only variant.
func ExportDecks(ctx context.Context, db *sql.DB) (ExportDocument, error) {
	decks, err := ListDecks(ctx, db)
	if err != nil {
		return ExportDocument{}, fmt.Errorf("failed to export decks: %w", err)
	}
	return ExportDocument{
		ExportedAt:    exportStamp(),
		SchemaVersion: pkgdb.TargetSchemaVersion,
		Decks:         decks,
	}, nil
}

// ParseImport decodes an import document. A parse failure here means
// nothing has been written: callers only start the import transaction on a
// successfully parsed document.
func ParseImport(data []byte) (ExportDocument, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return ExportDocument{}, fmt.Errorf("malformed import document: %w", err)
	}
	return doc, nil
}

const (
	upsertProjectStatement = `
	INSERT INTO projects (id, name, description, period_start, period_end, archived, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name, description = excluded.description,
		period_start = excluded.period_start, period_end = excluded.period_end,
		archived = excluded.archived,
		created_at = excluded.created_at, updated_at = excluded.updated_at
	`

	upsertDeckStatement = `
	INSERT INTO decks (id, name, color, labels, favorite, note, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name, color = excluded.color, labels = excluded.labels,
		favorite = excluded.favorite, note = excluded.note,
		created_at = excluded.created_at, updated_at = excluded.updated_at
	`

	upsertTagStatement = `
	INSERT INTO tags (id, name, color, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name, color = excluded.color, description = excluded.description,
		created_at = excluded.created_at, updated_at = excluded.updated_at
	`

	upsertMatchStatement = `
	INSERT INTO matches (id, project_id, played_at, result, turn_order, coin_method, coin_value, rating, my_deck_id, my_deck_name, op_deck_name, note, deleted, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		project_id = excluded.project_id, played_at = excluded.played_at,
		result = excluded.result, turn_order = excluded.turn_order,
		coin_method = excluded.coin_method, coin_value = excluded.coin_value,
		rating = excluded.rating, my_deck_id = excluded.my_deck_id,
		my_deck_name = excluded.my_deck_name, op_deck_name = excluded.op_deck_name,
		note = excluded.note, deleted = excluded.deleted,
		created_at = excluded.created_at, updated_at = excluded.updated_at
	`
)

// ImportDocument upserts every present collection by identity inside one
// transaction. Writes are last-write-wins: re-importing a file overwrites
// records with the same ids, and merging independently created datasets
// can collide identities. No deduplication or identity remapping is
// performed; the returned counts let callers at least see how much was
// written. Match tag references are re-derived on the way in.
func ImportDocument(ctx context.Context, db *sql.DB, doc ExportDocument) (ImportCounts, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ImportCounts{}, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	var counts ImportCounts

	for _, project := range doc.Projects {
		start, end := periodColumns(project.Period)
		_, err := tx.ExecContext(ctx, upsertProjectStatement,
			project.ID, project.Name, project.Description, start, end, project.Archived,
			project.CreatedAt, project.UpdatedAt)
		if err != nil {
			return ImportCounts{}, fmt.Errorf("failed to import project %s: %w", project.ID, err)
		}
		counts.Projects++
	}

	for _, deck := range doc.Decks {
		labelsJSON, err := marshalLabels(deck.Labels)
		if err != nil {
			return ImportCounts{}, err
		}
		_, err = tx.ExecContext(ctx, upsertDeckStatement,
			deck.ID, deck.Name, nullableString(deck.Color), labelsJSON, deck.Favorite,
			nullableString(deck.Note), deck.CreatedAt, deck.UpdatedAt)
		if err != nil {
			return ImportCounts{}, fmt.Errorf("failed to import deck %s: %w", deck.ID, err)
		}
		counts.Decks++
	}

	for _, tag := range doc.Tags {
		_, err := tx.ExecContext(ctx, upsertTagStatement,
			tag.ID, tag.Name, nullableString(tag.Color), nullableString(tag.Description),
			tag.CreatedAt, tag.UpdatedAt)
		if err != nil {
			return ImportCounts{}, fmt.Errorf("failed to import tag %s: %w", tag.ID, err)
		}
		counts.Tags++
	}

	for _, match := range doc.Matches {
		_, err := tx.ExecContext(ctx, upsertMatchStatement,
			match.ID, match.ProjectID, match.PlayedAt, match.Result, match.TurnOrder,
			match.Initiative.Method, nullableString(match.Initiative.Value),
			nullableFloat(match.Rating), nullableUUID(match.MyDeckID),
			match.MyDeckName, match.OpDeckName, nullableString(match.Note),
			match.Deleted, match.CreatedAt, match.UpdatedAt)
		if err != nil {
			return ImportCounts{}, fmt.Errorf("failed to import match %s: %w", match.ID, err)
		}
		if err := writeMatchTags(ctx, tx, match.ID, match.Tags); err != nil {
			return ImportCounts{}, err
		}
		counts.Matches++
	}

	if err := tx.Commit(); err != nil {
		return ImportCounts{}, fmt.Errorf("failed to commit import transaction: %w", err)
	}
	return counts, nil
}

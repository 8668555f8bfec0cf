package tracker

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mdtracker/mdtrack/pkg/db"
)

func TestExportImportRoundTrip(t *testing.T) {
	source, projectID := setupTestDBWithProject(t)
	defer source.Close()

	ctx := context.Background()
	deck, err := CreateDeck(ctx, source, "Control", "#00f", []string{"slow", "removal"}, true, "main deck")
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	tag, err := CreateTag(ctx, source, "ranked", "#f00", "ladder games")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	rating := 1500.0
	match, err := CreateMatch(ctx, source, Match{
		ProjectID:  projectID,
		PlayedAt:   "2024-03-01T10:00:00Z",
		Result:     ResultWin,
		TurnOrder:  TurnFirst,
		Initiative: Initiative{Method: InitiativeCoin, Value: CoinHeads},
		Rating:     &rating,
		MyDeckID:   &deck.ID,
		MyDeckName: deck.Name,
		OpDeckName: "Aggro",
		Tags:       []TagRef{{TagID: &tag.ID, TagName: tag.Name}},
		Note:       "opening game",
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}

	doc, err := ExportAll(ctx, source, &projectID)
	if err != nil {
		t.Fatalf("ExportAll failed: %v", err)
	}
	if doc.SchemaVersion != db.TargetSchemaVersion {
		t.Errorf("Export carries schema version %d, expected %d", doc.SchemaVersion, db.TargetSchemaVersion)
	}
	if doc.ActiveProjectID == nil || *doc.ActiveProjectID != projectID {
		t.Errorf("Active project id lost in export")
	}
	if doc.ExportedAt == "" {
		t.Errorf("Export timestamp missing")
	}

	target := setupTestDB(t)
	defer target.Close()

	counts, err := ImportDocument(ctx, target, doc)
	if err != nil {
		t.Fatalf("ImportDocument failed: %v", err)
	}
	if counts.Projects != 1 || counts.Decks != 1 || counts.Tags != 1 || counts.Matches != 1 {
		t.Errorf("Unexpected import counts: %+v", counts)
	}

	// Identity and timestamps survive verbatim.
	importedProject, err := GetProject(ctx, target, projectID)
	if err != nil {
		t.Fatalf("Imported project missing: %v", err)
	}
	original, _ := GetProject(ctx, source, projectID)
	if importedProject.CreatedAt != original.CreatedAt || importedProject.UpdatedAt != original.UpdatedAt {
		t.Errorf("Project timestamps rewritten on import")
	}

	importedDeck, err := GetDeck(ctx, target, deck.ID)
	if err != nil {
		t.Fatalf("Imported deck missing: %v", err)
	}
	if importedDeck.Name != deck.Name || len(importedDeck.Labels) != 2 || !importedDeck.Favorite {
		t.Errorf("Deck fields lost in round trip: %+v", importedDeck)
	}

	importedMatch, err := GetMatch(ctx, target, match.ID)
	if err != nil {
		t.Fatalf("Imported match missing: %v", err)
	}
	if importedMatch.PlayedAt != match.PlayedAt || importedMatch.Result != match.Result {
		t.Errorf("Match core fields lost: %+v", importedMatch)
	}
	if importedMatch.Rating == nil || *importedMatch.Rating != rating {
		t.Errorf("Match rating lost: %v", importedMatch.Rating)
	}
	if importedMatch.CreatedAt != match.CreatedAt {
		t.Errorf("Match created_at rewritten on import")
	}
	if len(importedMatch.Tags) != 1 || importedMatch.Tags[0].TagName != "ranked" {
		t.Errorf("Match tag refs lost: %+v", importedMatch.Tags)
	}
	if len(importedMatch.TagsFlat) != 1 || importedMatch.TagsFlat[0] != "ranked" {
		t.Errorf("tags_flat not re-derived on import: %v", importedMatch.TagsFlat)
	}
}

func TestImportOverwritesById(t *testing.T) {
	testDB, projectID := setupTestDBWithProject(t)
	defer testDB.Close()

	ctx := context.Background()
	match := createTaggedMatch(t, testDB, projectID, "2024-03-01T10:00:00Z",
		[]TagRef{{TagName: "aggro"}})

	// Import the same match id with different fields: last write wins.
	match.Result = ResultLoss
	match.Note = "revised"
	match.Tags = []TagRef{{TagName: "control"}}
	doc := ExportDocument{Matches: []Match{match}}

	counts, err := ImportDocument(ctx, testDB, doc)
	if err != nil {
		t.Fatalf("ImportDocument failed: %v", err)
	}
	if counts.Matches != 1 {
		t.Errorf("Expected 1 match upsert, got %d", counts.Matches)
	}

	after, err := GetMatch(ctx, testDB, match.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if after.Result != ResultLoss || after.Note != "revised" {
		t.Errorf("Import did not overwrite the existing record: %+v", after)
	}
	if len(after.TagsFlat) != 1 || after.TagsFlat[0] != "control" {
		t.Errorf("Tag refs not replaced on re-import: %v", after.TagsFlat)
	}

	var total int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM matches;").Scan(&total); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Upsert created a duplicate row, have %d", total)
	}
}

func TestParseImportMalformed(t *testing.T) {
	if _, err := ParseImport([]byte("{not json")); err == nil {
		t.Errorf("Expected a parse error for malformed input")
	}

	// A partial document is fine: absent collections import as empty.
	doc, err := ParseImport([]byte(`{"schemaVersion": 2, "decks": []}`))
	if err != nil {
		t.Fatalf("Partial document rejected: %v", err)
	}
	if doc.SchemaVersion != 2 || len(doc.Projects) != 0 {
		t.Errorf("Partial document parsed incorrectly: %+v", doc)
	}
}

func TestExportProjectScoping(t *testing.T) {
	testDB, projectID := setupTestDBWithProject(t)
	defer testDB.Close()

	ctx := context.Background()
	other, err := CreateProject(ctx, testDB, "Other Season", "", nil)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	inScope := createTaggedMatch(t, testDB, projectID, "2024-03-01T10:00:00Z", nil)
	createTaggedMatch(t, testDB, other.ID, "2024-03-02T10:00:00Z", nil)

	// Soft-deleted matches are part of the backup.
	deleted := createTaggedMatch(t, testDB, projectID, "2024-03-03T10:00:00Z", nil)
	if err := SetMatchDeleted(ctx, testDB, deleted.ID, true); err != nil {
		t.Fatalf("SetMatchDeleted failed: %v", err)
	}

	doc, err := ExportProject(ctx, testDB, projectID)
	if err != nil {
		t.Fatalf("ExportProject failed: %v", err)
	}
	if doc.Project.ID != projectID {
		t.Errorf("Wrong project exported: %s", doc.Project.ID)
	}
	if len(doc.Matches) != 2 {
		t.Fatalf("Expected 2 matches (one soft-deleted), got %d", len(doc.Matches))
	}
	for _, m := range doc.Matches {
		if m.ProjectID != projectID {
			t.Errorf("Foreign project match leaked into export: %s", m.ID)
		}
	}
	if doc.Matches[0].ID != inScope.ID {
		t.Errorf("Expected chronological ordering in export")
	}

	if _, err := ExportProject(ctx, testDB, uuid.New()); err == nil {
		t.Errorf("Expected an error exporting a missing project")
	}
}

func TestExportDecksOnly(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	if _, err := CreateDeck(ctx, testDB, "Aggro", "#f00", nil, false, ""); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if _, err := CreateDeck(ctx, testDB, "Control", "", nil, true, ""); err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	doc, err := ExportDecks(ctx, testDB)
	if err != nil {
		t.Fatalf("ExportDecks failed: %v", err)
	}
	if len(doc.Decks) != 2 {
		t.Errorf("Expected 2 decks, got %d", len(doc.Decks))
	}
	if len(doc.Projects) != 0 || len(doc.Matches) != 0 || len(doc.Tags) != 0 {
		t.Errorf("Decks-only export leaked other collections")
	}
}
